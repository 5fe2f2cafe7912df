package worker

import (
	"context"
	"math/rand"

	"github.com/go-catalogsim/catalogsim/internal/catalog"
	"github.com/go-catalogsim/catalogsim/internal/domain"
	"github.com/go-catalogsim/catalogsim/internal/ledger"
	"github.com/go-catalogsim/catalogsim/internal/report"
	"github.com/go-catalogsim/catalogsim/internal/simlog"
	"github.com/go-catalogsim/catalogsim/internal/simtime"
)

// ServerConfig is everything a ServerThread needs that is shared
// across the whole simulation (catalogs, queues, timing, accumulators).
type ServerConfig struct {
	Customers *catalog.Customers
	Products  *catalog.Products

	History *domain.HistoryQueue
	Sales   *domain.SalesQueue

	ServerPeriod              simtime.RelativeTime
	CustomerReplacementCount  int
	CustomerReplacementPeriod simtime.RelativeTime
	ProductReplacementCount   int
	ProductReplacementPeriod  simtime.RelativeTime

	EndSimulationTime simtime.AbsoluteTime
	Metrics           *Metrics
	GlobalLedger      *ledger.Log

	Report           *report.Printer
	ReportIndividual bool
}

// ServerThread rotates among four attention points each release: drain
// the affiliated sales shard, expire the affiliated history shard,
// and — when due — replace a fixed count of random customers or
// products.
type ServerThread struct {
	cfg   ServerConfig
	label string
	shard int
	rng   *rand.Rand
	log   *ledger.Log

	attn attentionCounter

	nextRelease             simtime.AbsoluteTime
	customerReplacementTime simtime.AbsoluteTime
	productReplacementTime  simtime.AbsoluteTime

	tally ServerTally
}

// NewServerThread constructs a ServerThread affiliated with shard
// index i (mod the queue shard counts), starting its release clock at
// start.
func NewServerThread(cfg ServerConfig, label string, i int, rng *rand.Rand, start simtime.AbsoluteTime) *ServerThread {
	return &ServerThread{
		cfg:                     cfg,
		label:                   label,
		shard:                   i,
		rng:                     rng,
		log:                     ledger.NewLog(),
		nextRelease:             start,
		customerReplacementTime: simtime.Add(start, cfg.CustomerReplacementPeriod),
		productReplacementTime:  simtime.Add(start, cfg.ProductReplacementPeriod),
	}
}

// Run executes the periodic release loop until ctx is cancelled or the
// simulation's end time is reached, then folds this thread's tally and
// ledger into the shared accumulators.
func (s *ServerThread) Run(ctx context.Context) {
	for {
		if s.nextRelease.AtLeast(s.cfg.EndSimulationTime) {
			break
		}
		now, ok := simtime.SleepUntil(ctx, s.nextRelease)
		if !ok {
			break
		}
		if now.AtLeast(s.cfg.EndSimulationTime) {
			break
		}

		s.release(now)
		s.nextRelease = simtime.Add(s.nextRelease, s.cfg.ServerPeriod)
	}

	if s.cfg.ReportIndividual && s.cfg.Report != nil {
		s.cfg.Report.PrintServerThread(s.label, s.tally.Releases, s.tally.SalesDrained,
			s.tally.HistoriesExpired, s.tally.CustomerReplacements, s.tally.ProductReplacements)
	}
	s.cfg.Metrics.FoldServer(s.tally)
	s.log.FoldInto(s.cfg.GlobalLedger)
	simlog.Tracef(1, "server thread terminated", "label", s.label, "releases", s.tally.Releases)
}

func (s *ServerThread) release(now simtime.AbsoluteTime) {
	s.tally.Releases++
	point := s.attn.next()
	switch point {
	case 0:
		s.drainSales()
	case 1:
		s.drainExpiredHistories(now)
	case 2:
		s.maybeReplaceCustomers(now)
	case 3:
		s.maybeReplaceProducts(now)
	}
}

func (s *ServerThread) drainSales() {
	shard := s.cfg.Sales.Shard(s.shard)
	for {
		txn, ok := shard.Dequeue()
		if !ok {
			return
		}
		txn.Release(s.log)
		s.tally.SalesDrained++
	}
}

func (s *ServerThread) drainExpiredHistories(now simtime.AbsoluteTime) {
	shard := s.cfg.History.Shard(s.shard)
	for {
		h, ok := shard.PullIfExpired(now)
		if !ok {
			return
		}
		h.Customer.RetireOne(h)
		h.Release(s.log)
		s.tally.HistoriesExpired++
	}
}

func (s *ServerThread) maybeReplaceCustomers(now simtime.AbsoluteTime) {
	if !now.AtLeast(s.customerReplacementTime) {
		return
	}
	for i := 0; i < s.cfg.CustomerReplacementCount; i++ {
		s.cfg.Customers.ReplaceRandom(s.rng, s.log)
		s.tally.CustomerReplacements++
	}
	s.customerReplacementTime = simtime.Add(s.customerReplacementTime, s.cfg.CustomerReplacementPeriod)
}

func (s *ServerThread) maybeReplaceProducts(now simtime.AbsoluteTime) {
	if !now.AtLeast(s.productReplacementTime) {
		return
	}
	for i := 0; i < s.cfg.ProductReplacementCount; i++ {
		s.cfg.Products.ReplaceRandom(s.rng, s.log)
		s.tally.ProductReplacements++
	}
	s.productReplacementTime = simtime.Add(s.productReplacementTime, s.cfg.ProductReplacementPeriod)
}
