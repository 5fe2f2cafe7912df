package worker

import (
	"context"
	"math/rand"

	"github.com/go-catalogsim/catalogsim/internal/arraylet"
	"github.com/go-catalogsim/catalogsim/internal/ledger"
	"github.com/go-catalogsim/catalogsim/internal/simlog"
	"github.com/go-catalogsim/catalogsim/internal/simtime"
)

// rebuildableCatalog is the shape both catalog.Customers and
// catalog.Products satisfy: bulk-rebuild the whole population under
// one write-lock hold, returning the count replaced.
type rebuildableCatalog interface {
	RebuildPhased(rng *rand.Rand, log *ledger.Log) int
}

// PhasedKind identifies which catalog a PhasedUpdater targets, for
// tally attribution.
type PhasedKind int

const (
	PhasedCustomers PhasedKind = iota
	PhasedProducts
)

// PhasedConfig configures one optional bulk-rebuild worker.
// PhasedUpdates=true is treated as disabling per-release incremental
// replacement unless both are explicitly configured — that decision is
// made by the caller wiring up workers (cmd/simulator), not here;
// PhasedUpdater only performs the rebuilds it's told to.
//
// A phased updater rotates between rebuilding customers and rebuilding
// products, but a short rebuild interval against a sizeable customer
// population needs every tick rebuilding the customer catalog, not
// every other tick, to keep up. We resolve this with one PhasedUpdater
// per catalog, each independently ticking at Interval, so "rotation" describes
// which catalogs the feature covers rather than an alternating duty
// cycle shared by one clock.
type PhasedConfig struct {
	Catalog rebuildableCatalog
	Kind    PhasedKind

	Interval          simtime.RelativeTime
	EndSimulationTime simtime.AbsoluteTime
	Metrics           *Metrics
	GlobalLedger      *ledger.Log
	MaxArrayLength    int
}

// PhasedUpdater bulk-rebuilds one catalog at a fixed interval.
type PhasedUpdater struct {
	cfg  PhasedConfig
	rng  *rand.Rand
	log  *ledger.Log
	next simtime.AbsoluteTime

	tally PhasedTally
	// history is a dense sequence of per-cycle replacement counts,
	// backed by the arraylet indirection: it is purely reporting data,
	// but routing it through arraylet exercises the same fragmented-array
	// allocation shape the fan-out containers exist to vary.
	history *arraylet.Array
}

// NewPhasedUpdater constructs a PhasedUpdater starting its rebuild
// clock at start.
func NewPhasedUpdater(cfg PhasedConfig, rng *rand.Rand, start simtime.AbsoluteTime) *PhasedUpdater {
	return &PhasedUpdater{
		cfg:     cfg,
		rng:     rng,
		log:     ledger.NewLog(),
		next:    simtime.Add(start, cfg.Interval),
		history: arraylet.New(cfg.MaxArrayLength),
	}
}

// Run executes the rebuild loop until ctx is cancelled or the
// simulation ends, then folds its tally and ledger into the shared
// accumulators.
func (p *PhasedUpdater) Run(ctx context.Context) {
	for {
		if p.next.AtLeast(p.cfg.EndSimulationTime) {
			break
		}
		now, ok := simtime.SleepUntil(ctx, p.next)
		if !ok {
			break
		}
		if now.AtLeast(p.cfg.EndSimulationTime) {
			break
		}

		p.rebuildOnce()
		p.next = simtime.Add(p.next, p.cfg.Interval)
	}

	p.cfg.Metrics.FoldPhased(p.tally)
	p.log.FoldInto(p.cfg.GlobalLedger)
	simlog.Tracef(1, "phased updater terminated", "cycles", p.history.Len())
}

func (p *PhasedUpdater) rebuildOnce() {
	replaced := p.cfg.Catalog.RebuildPhased(p.rng, p.log)
	switch p.cfg.Kind {
	case PhasedCustomers:
		p.tally.CustomerCycles++
		p.tally.CustomersReplaced += int64(replaced)
	case PhasedProducts:
		p.tally.ProductCycles++
		p.tally.ProductsReplaced += int64(replaced)
	}
	p.history.Append(int64(replaced))
}

// History exposes the per-cycle replacement counts recorded so far,
// for tests and diagnostics.
func (p *PhasedUpdater) History() []int64 {
	out := make([]int64, p.history.Len())
	for i := range out {
		out[i] = p.history.Get(i)
	}
	return out
}
