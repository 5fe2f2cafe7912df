package worker

import (
	"context"
	"math/rand"

	"github.com/go-catalogsim/catalogsim/internal/catalog"
	"github.com/go-catalogsim/catalogsim/internal/dictionary"
	"github.com/go-catalogsim/catalogsim/internal/domain"
	"github.com/go-catalogsim/catalogsim/internal/ledger"
	"github.com/go-catalogsim/catalogsim/internal/report"
	"github.com/go-catalogsim/catalogsim/internal/reservoir"
	"github.com/go-catalogsim/catalogsim/internal/simlog"
	"github.com/go-catalogsim/catalogsim/internal/simtime"
)

// queryKeywordCount is how many keywords a CustomerThread draws to
// stand in for "that customer's preference vector" each release.
const queryKeywordCount = 3

// CustomerConfig is everything a CustomerThread needs that is shared
// across the whole simulation.
type CustomerConfig struct {
	Customers *catalog.Customers
	Products  *catalog.Products
	Dict      *dictionary.Dictionary

	History *domain.HistoryQueue
	Sales   *domain.SalesQueue

	CustomerPeriod     simtime.RelativeTime
	SaveForLaterExpiry simtime.RelativeTime

	ProbabilityPurchase     float64
	ProbabilitySaveForLater float64
	ProbabilityAbandon      float64
	ProbabilityDoNothing    float64

	EndSimulationTime simtime.AbsoluteTime
	Metrics           *Metrics
	GlobalLedger      *ledger.Log
	Reservoir         *reservoir.Reservoir

	Report           *report.Printer
	ReportIndividual bool
}

// CustomerThread is a periodic worker that simulates one shopper's
// browse/purchase loop against the shared catalogs.
type CustomerThread struct {
	cfg   CustomerConfig
	label string
	shard int
	rng   *rand.Rand
	log   *ledger.Log

	nextRelease simtime.AbsoluteTime
	tally       CustomerTally
}

// NewCustomerThread constructs a CustomerThread affiliated with shard
// index i, starting its release clock at start.
func NewCustomerThread(cfg CustomerConfig, label string, i int, rng *rand.Rand, start simtime.AbsoluteTime) *CustomerThread {
	return &CustomerThread{
		cfg:         cfg,
		label:       label,
		shard:       i,
		rng:         rng,
		log:         ledger.NewLog(),
		nextRelease: start,
	}
}

// Run executes the periodic release loop until ctx is cancelled or the
// simulation ends, then folds this thread's tally and ledger into the
// shared accumulators.
func (c *CustomerThread) Run(ctx context.Context) {
	for {
		if c.nextRelease.AtLeast(c.cfg.EndSimulationTime) {
			break
		}
		releaseStart := c.nextRelease
		now, ok := simtime.SleepUntil(ctx, c.nextRelease)
		if !ok {
			break
		}
		if now.AtLeast(c.cfg.EndSimulationTime) {
			break
		}

		now = c.release(releaseStart, now)

		c.cfg.Reservoir.Insert(simtime.Sub(now, releaseStart).Duration().Microseconds())
		c.nextRelease = simtime.Add(c.nextRelease, c.cfg.CustomerPeriod)
	}

	if c.cfg.ReportIndividual && c.cfg.Report != nil {
		c.cfg.Report.PrintCustomerThread(c.label, c.tally.Releases, c.tally.Purchases,
			c.tally.SavedForLater, c.tally.Abandoned, c.tally.DidNothing)
	}
	c.cfg.Metrics.FoldCustomer(c.tally)
	c.log.FoldInto(c.cfg.GlobalLedger)
	simlog.Tracef(1, "customer thread terminated", "label", c.label, "releases", c.tally.Releases)
}

// release performs one full customer action — search, pick from the
// matched-or-saved pool, then purchase/save/abandon/do-nothing — and
// returns the AbsoluteTime observed immediately after the action, for
// response-time measurement.
func (c *CustomerThread) release(releaseStart, now simtime.AbsoluteTime) simtime.AbsoluteTime {
	customer := c.cfg.Customers.SelectRandom(c.rng)

	keywords := c.cfg.Dict.Keywords(c.rng, queryKeywordCount)
	c.log.AccumulateAlloc(ledger.Ephemeral, ledger.ArrayReference, ledger.Expand, int64(len(keywords)))
	_, matchAny := c.cfg.Products.SearchMatching(keywords)
	c.log.AccumulateGarbage(ledger.Ephemeral, ledger.ArrayReference, ledger.Expand, int64(len(keywords)))

	saved := customer.SnapshotProducts(ledger.TransientShort, c.log)
	pool := unionProducts(matchAny, saved)
	c.log.AccumulateGarbage(ledger.TransientShort, ledger.ArrayReference, ledger.Expand, int64(len(saved)))

	decision := weightedChoice(c.rng,
		c.cfg.ProbabilityPurchase, c.cfg.ProbabilitySaveForLater,
		c.cfg.ProbabilityAbandon, c.cfg.ProbabilityDoNothing)
	if len(pool) == 0 && (decision == Purchase || decision == SaveForLater) {
		decision = DoNothing
	}

	switch decision {
	case Purchase:
		product := pool[c.rng.Intn(len(pool))]
		txn := domain.NewSalesTransaction(customer, product, "", c.log)
		c.cfg.Sales.Shard(c.shard).Enqueue(txn)
	case SaveForLater:
		product := pool[c.rng.Intn(len(pool))]
		expiration := simtime.Add(now, c.cfg.SaveForLaterExpiry)
		h := domain.NewBrowsingHistory(customer, product, expiration, c.log)
		c.cfg.History.Shard(c.shard).Enqueue(h)
		customer.Add(h, c.log)
	}
	c.tally.record(decision)

	return simtime.Now()
}

// unionProducts merges matched and saved, deduplicated by product ID,
// allocating the combined slice as the Ephemeral selection pool that
// lives only for the remainder of this release.
func unionProducts(matched, saved []*domain.Product) []*domain.Product {
	seen := make(map[uint64]struct{}, len(matched)+len(saved))
	out := make([]*domain.Product, 0, len(matched)+len(saved))
	for _, p := range matched {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	for _, p := range saved {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
