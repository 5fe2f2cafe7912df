// Command simulator is the process entry point for the catalog/browse
// memory-workload generator: it parses the Key=Value argv surface,
// wires the shared catalogs/queues/accounting, spawns the configured
// worker population, runs for SimulationDuration, and prints the final
// report. Parse config, wire dependencies, install signal handling,
// run, report, exit with the matching code.
package main

import (
	"context"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/go-catalogsim/catalogsim/internal/catalog"
	"github.com/go-catalogsim/catalogsim/internal/config"
	"github.com/go-catalogsim/catalogsim/internal/dictionary"
	"github.com/go-catalogsim/catalogsim/internal/domain"
	"github.com/go-catalogsim/catalogsim/internal/ledger"
	"github.com/go-catalogsim/catalogsim/internal/report"
	"github.com/go-catalogsim/catalogsim/internal/reservoir"
	"github.com/go-catalogsim/catalogsim/internal/simfail"
	"github.com/go-catalogsim/catalogsim/internal/simlog"
	"github.com/go-catalogsim/catalogsim/internal/simtime"
	"github.com/go-catalogsim/catalogsim/internal/worker"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	cfg, err := config.Parse(args)
	if err != nil {
		simlog.Error("configuration error", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seedRNG := rand.New(rand.NewSource(1))

	dict, err := loadDictionary(cfg)
	if err != nil {
		simlog.Error("configuration error", "err", err)
		return 1
	}

	globalLedger := ledger.NewLog()
	customers := catalog.NewCustomers(cfg.NumCustomers, dict, seedRNG, globalLedger)
	products := catalog.NewProducts(cfg.NumProducts, dict, seedRNG, globalLedger)
	history := domain.NewHistoryQueue(cfg.BrowsingHistoryQueueCount)
	sales := domain.NewSalesQueue(cfg.SalesTransactionQueueCount)

	metrics := worker.NewMetrics()
	res := reservoir.NewWithSegmentCap(cfg.ResponseTimeMeasurements, cfg.MaxArrayLength)
	printer := report.NewPrinter(out, cfg.ReportCSV)

	start := simtime.Now()
	end := simtime.Add(start, simtime.FromDuration(cfg.SimulationDuration))

	var wg sync.WaitGroup
	runCustomers(ctx, &wg, cfg, customers, products, dict, history, sales, metrics, res, globalLedger, printer, start, end)
	runServers(ctx, &wg, cfg, customers, products, history, sales, metrics, globalLedger, printer, start, end)
	runPhasedUpdaters(ctx, &wg, cfg, customers, products, metrics, globalLedger, start, end)

	wg.Wait()
	shutdown(customers, products, history, sales, globalLedger)

	printer.PrintFinal(buildFinalReport(cfg, metrics, res, customers, products, globalLedger))
	return 0
}

// shutdown walks the root set once every worker has terminated: it
// drains whatever sales and browsing-history entries are still queued,
// then retires every remaining customer and product, so the ledger
// closes to zero live memory instead of leaving the final population's
// allocations uncollected.
func shutdown(customers *catalog.Customers, products *catalog.Products, history *domain.HistoryQueue, sales *domain.SalesQueue, globalLedger *ledger.Log) {
	drainLog := ledger.NewLog()
	sales.DrainAll(drainLog)
	history.DrainAll(drainLog)
	customers.Teardown(drainLog)
	products.Teardown(drainLog)
	drainLog.FoldInto(globalLedger)
}

func loadDictionary(cfg *config.Config) (*dictionary.Dictionary, error) {
	if cfg.DictionaryFile != "" {
		return dictionary.LoadFile(cfg.DictionaryFile)
	}
	return dictionary.Load(cfg.DictionarySize), nil
}

func runCustomers(
	ctx context.Context, wg *sync.WaitGroup, cfg *config.Config,
	customers *catalog.Customers, products *catalog.Products, dict *dictionary.Dictionary,
	history *domain.HistoryQueue, sales *domain.SalesQueue,
	metrics *worker.Metrics, res *reservoir.Reservoir, globalLedger *ledger.Log,
	printer *report.Printer, start, end simtime.AbsoluteTime,
) {
	custCfg := worker.CustomerConfig{
		Customers: customers, Products: products, Dict: dict,
		History: history, Sales: sales,
		CustomerPeriod:          simtime.FromDuration(cfg.CustomerPeriod),
		SaveForLaterExpiry:      simtime.FromDuration(cfg.SaveForLaterExpiry),
		ProbabilityPurchase:     cfg.ProbabilityPurchase,
		ProbabilitySaveForLater: cfg.ProbabilitySaveForLater,
		ProbabilityAbandon:      cfg.ProbabilityAbandon,
		ProbabilityDoNothing:    cfg.ProbabilityDoNothing,
		EndSimulationTime:       end,
		Metrics:                 metrics,
		GlobalLedger:            globalLedger,
		Reservoir:               res,
		Report:                  printer,
		ReportIndividual:        cfg.ReportIndividualThreads,
	}

	for i := 0; i < cfg.CustomerThreads; i++ {
		label := "customer-" + strconv.Itoa(i)
		rng := rand.New(rand.NewSource(int64(i) + 1))
		ct := worker.NewCustomerThread(custCfg, label, i, rng, start)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer simfail.Guard(label)
			ct.Run(ctx)
		}()
	}
}

func runServers(
	ctx context.Context, wg *sync.WaitGroup, cfg *config.Config,
	customers *catalog.Customers, products *catalog.Products,
	history *domain.HistoryQueue, sales *domain.SalesQueue,
	metrics *worker.Metrics, globalLedger *ledger.Log,
	printer *report.Printer, start, end simtime.AbsoluteTime,
) {
	srvCfg := worker.ServerConfig{
		Customers: customers, Products: products,
		History: history, Sales: sales,
		ServerPeriod:              simtime.FromDuration(cfg.ServerPeriod),
		CustomerReplacementCount:  cfg.CustomerReplacementCount,
		CustomerReplacementPeriod: simtime.FromDuration(cfg.CustomerReplacementPeriod),
		ProductReplacementCount:   cfg.ProductReplacementCount,
		ProductReplacementPeriod:  simtime.FromDuration(cfg.ProductReplacementPeriod),
		EndSimulationTime:         end,
		Metrics:                   metrics,
		GlobalLedger:              globalLedger,
		Report:                    printer,
		ReportIndividual:          cfg.ReportIndividualThreads,
	}

	// PhasedUpdates=true disables incremental replacement unless the
	// operator explicitly also set a replacement count/period, in which
	// case both run side by side.
	if cfg.PhasedUpdates && !cfg.WasSet("CustomerReplacementCount") && !cfg.WasSet("CustomerReplacementPeriod") {
		srvCfg.CustomerReplacementCount = 0
	}
	if cfg.PhasedUpdates && !cfg.WasSet("ProductReplacementCount") && !cfg.WasSet("ProductReplacementPeriod") {
		srvCfg.ProductReplacementCount = 0
	}

	for i := 0; i < cfg.ServerThreads; i++ {
		label := "server-" + strconv.Itoa(i)
		rng := rand.New(rand.NewSource(int64(i) + 1000))
		st := worker.NewServerThread(srvCfg, label, i, rng, start)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer simfail.Guard(label)
			st.Run(ctx)
		}()
	}
}

func runPhasedUpdaters(
	ctx context.Context, wg *sync.WaitGroup, cfg *config.Config,
	customers *catalog.Customers, products *catalog.Products,
	metrics *worker.Metrics, globalLedger *ledger.Log, start, end simtime.AbsoluteTime,
) {
	if !cfg.PhasedUpdates {
		return
	}

	interval := simtime.FromDuration(cfg.PhasedUpdateInterval)
	specs := []struct {
		label   string
		catalog interface {
			RebuildPhased(rng *rand.Rand, log *ledger.Log) int
		}
		kind worker.PhasedKind
	}{
		{"phased-customers", customers, worker.PhasedCustomers},
		{"phased-products", products, worker.PhasedProducts},
	}

	for i, spec := range specs {
		pCfg := worker.PhasedConfig{
			Catalog: spec.catalog, Kind: spec.kind,
			Interval: interval, EndSimulationTime: end,
			Metrics: metrics, GlobalLedger: globalLedger,
			MaxArrayLength: cfg.MaxArrayLength,
		}
		rng := rand.New(rand.NewSource(int64(i) + 2000))
		pu := worker.NewPhasedUpdater(pCfg, rng, start)
		label := spec.label
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer simfail.Guard(label)
			pu.Run(ctx)
		}()
	}
}

func buildFinalReport(
	cfg *config.Config, metrics *worker.Metrics, res *reservoir.Reservoir,
	customers *catalog.Customers, products *catalog.Products, globalLedger *ledger.Log,
) report.Final {
	custTally, srvTally, phasedTally := metrics.Snapshot()
	alloc, garbage := globalLedger.Snapshot()

	var rows []report.LedgerRow
	for span := ledger.LifeSpan(0); span < ledger.NumLifeSpans; span++ {
		for kind := ledger.MemoryKind(0); kind < ledger.NumMemoryKinds; kind++ {
			a, g := alloc[span][kind], garbage[span][kind]
			if a == 0 && g == 0 {
				continue
			}
			rows = append(rows, report.LedgerRow{
				LifeSpan: span.String(), Kind: kind.String(),
				Alloc: a, Garbage: g, Live: ledger.LiveMemory(alloc, garbage, span, kind),
			})
		}
	}

	return report.Final{
		Customer: report.CustomerTotals{
			Releases: custTally.Releases, Purchases: custTally.Purchases,
			SavedForLater: custTally.SavedForLater, Abandoned: custTally.Abandoned,
			DidNothing: custTally.DidNothing,
		},
		Server: report.ServerTotals{
			Releases: srvTally.Releases, SalesDrained: srvTally.SalesDrained,
			HistoriesExpired: srvTally.HistoriesExpired,
			CustomerReplacements: srvTally.CustomerReplacements,
			ProductReplacements:  srvTally.ProductReplacements,
		},
		Phased: report.PhasedTotals{
			CustomerCycles: phasedTally.CustomerCycles, ProductCycles: phasedTally.ProductCycles,
			CustomersReplaced: phasedTally.CustomersReplaced, ProductsReplaced: phasedTally.ProductsReplaced,
		},
		Percentiles: res.Percentiles(),
		Gates: []report.GateReport{
			{Name: "customers", Reader: customers.ReaderStats(), Writer: customers.WriterStats()},
			{Name: "products", Reader: products.ReaderStats(), Writer: products.WriterStats()},
		},
		Ledger: rows,
	}
}
