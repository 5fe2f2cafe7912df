// Package report renders the simulation's output: per-thread blocks
// (when ReportIndividualThreads is set) and the final aggregated
// report, either as olekukonko/tablewriter tables or as CSV
// (ReportCSV=true). All multi-line output is serialized under one
// global report lock so interleaved per-thread blocks from
// concurrently-terminating workers stay readable.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/olekukonko/tablewriter"

	"github.com/go-catalogsim/catalogsim/internal/gate"
	"github.com/go-catalogsim/catalogsim/internal/reservoir"
)

// Printer is the report lock plus its output sink. Construct one per
// run and share it across every worker.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
	csv bool
}

// NewPrinter returns a Printer writing to out. csv selects ReportCSV
// mode (plain CSV rows) over the default tablewriter tables.
func NewPrinter(out io.Writer, csv bool) *Printer {
	return &Printer{out: out, csv: csv}
}

// WithLock runs fn under the report lock, exactly once, releasing even
// if fn panics.
func (p *Printer) WithLock(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn()
}

// PrintCustomerThread prints one CustomerThread's terminal tally under
// the report lock, for ReportIndividualThreads=true runs.
func (p *Printer) PrintCustomerThread(label string, releases, purchases, savedForLater, abandoned, doNothing int64) {
	p.WithLock(func() {
		fmt.Fprintf(p.out, "customer %-12s releases=%-6d purchases=%-6d saved=%-6d abandoned=%-6d do_nothing=%-6d\n",
			label, releases, purchases, savedForLater, abandoned, doNothing)
	})
}

// PrintServerThread prints one ServerThread's terminal tally under the
// report lock, for ReportIndividualThreads=true runs.
func (p *Printer) PrintServerThread(label string, releases, salesDrained, historiesExpired, customerReplacements, productReplacements int64) {
	p.WithLock(func() {
		fmt.Fprintf(p.out, "server   %-12s releases=%-6d sales_drained=%-6d histories_expired=%-6d cust_replaced=%-6d prod_replaced=%-6d\n",
			label, releases, salesDrained, historiesExpired, customerReplacements, productReplacements)
	})
}

// LedgerRow is one (lifespan, kind) cell of the final accounting
// report: plain strings/ints so this package has no dependency on the
// ledger package's enum types.
type LedgerRow struct {
	LifeSpan string
	Kind     string
	Alloc    int64
	Garbage  int64
	Live     int64
}

// CustomerTotals is the aggregated customer-worker tally for the final
// report.
type CustomerTotals struct {
	Releases      int64
	Purchases     int64
	SavedForLater int64
	Abandoned     int64
	DidNothing    int64
}

// ServerTotals is the aggregated server-worker tally for the final
// report.
type ServerTotals struct {
	Releases             int64
	SalesDrained         int64
	HistoriesExpired     int64
	CustomerReplacements int64
	ProductReplacements  int64
}

// PhasedTotals is the aggregated phased-update tally for the final
// report; zero-valued when phased updates were not enabled.
type PhasedTotals struct {
	CustomerCycles    int64
	ProductCycles     int64
	CustomersReplaced int64
	ProductsReplaced  int64
}

// GateReport names one concurrency gate's reader/writer wait stats for
// the contention summary.
type GateReport struct {
	Name   string
	Reader gate.Stats
	Writer gate.Stats
}

// Final is everything the terminal report renders.
type Final struct {
	Customer    CustomerTotals
	Server      ServerTotals
	Phased      PhasedTotals
	Percentiles reservoir.Percentiles
	Gates       []GateReport
	Ledger      []LedgerRow
}

// PrintFinal renders the complete final report under the report lock,
// as tables (default) or CSV (ReportCSV=true).
func (p *Printer) PrintFinal(r Final) {
	p.WithLock(func() {
		if p.csv {
			p.renderCSV(r)
			return
		}
		p.renderTables(r)
	})
}

func (p *Printer) renderTables(r Final) {
	fmt.Fprintln(p.out, "\n=== Customer workers ===")
	summary := tablewriter.NewWriter(p.out)
	summary.Header("Releases", "Purchases", "SavedForLater", "Abandoned", "DoNothing")
	summary.Append(
		strconv.FormatInt(r.Customer.Releases, 10),
		strconv.FormatInt(r.Customer.Purchases, 10),
		strconv.FormatInt(r.Customer.SavedForLater, 10),
		strconv.FormatInt(r.Customer.Abandoned, 10),
		strconv.FormatInt(r.Customer.DidNothing, 10),
	)
	summary.Render()

	fmt.Fprintln(p.out, "\n=== Server workers ===")
	srv := tablewriter.NewWriter(p.out)
	srv.Header("Releases", "SalesDrained", "HistoriesExpired", "CustReplaced", "ProdReplaced")
	srv.Append(
		strconv.FormatInt(r.Server.Releases, 10),
		strconv.FormatInt(r.Server.SalesDrained, 10),
		strconv.FormatInt(r.Server.HistoriesExpired, 10),
		strconv.FormatInt(r.Server.CustomerReplacements, 10),
		strconv.FormatInt(r.Server.ProductReplacements, 10),
	)
	srv.Render()

	if r.Phased.CustomerCycles > 0 || r.Phased.ProductCycles > 0 {
		fmt.Fprintln(p.out, "\n=== Phased updates ===")
		ph := tablewriter.NewWriter(p.out)
		ph.Header("CustomerCycles", "CustomersReplaced", "ProductCycles", "ProductsReplaced")
		ph.Append(
			strconv.FormatInt(r.Phased.CustomerCycles, 10),
			strconv.FormatInt(r.Phased.CustomersReplaced, 10),
			strconv.FormatInt(r.Phased.ProductCycles, 10),
			strconv.FormatInt(r.Phased.ProductsReplaced, 10),
		)
		ph.Render()
	}

	fmt.Fprintln(p.out, "\n=== Response-time percentiles (microseconds) ===")
	pct := tablewriter.NewWriter(p.out)
	pct.Header("P50", "P95", "P99", "P99.9", "P99.99", "P99.999", "P100")
	pct.Append(r.Percentiles.P50, r.Percentiles.P95, r.Percentiles.P99,
		r.Percentiles.P999, r.Percentiles.P9999, r.Percentiles.P99999, r.Percentiles.P100)
	pct.Render()

	if len(r.Gates) > 0 {
		fmt.Fprintln(p.out, "\n=== Concurrency gate contention ===")
		g := tablewriter.NewWriter(p.out)
		g.Header("Gate", "Role", "Count", "MinWait", "MaxWait", "AvgWait")
		for _, gr := range r.Gates {
			g.Append(gr.Name, "reader",
				strconv.FormatInt(gr.Reader.Count, 10), strconv.FormatInt(gr.Reader.MinWait, 10),
				strconv.FormatInt(gr.Reader.MaxWait, 10), fmt.Sprintf("%.2f", gr.Reader.AvgWait()))
			g.Append(gr.Name, "writer",
				strconv.FormatInt(gr.Writer.Count, 10), strconv.FormatInt(gr.Writer.MinWait, 10),
				strconv.FormatInt(gr.Writer.MaxWait, 10), fmt.Sprintf("%.2f", gr.Writer.AvgWait()))
		}
		g.Render()
	}

	fmt.Fprintln(p.out, "\n=== Lifespan / memory-kind ledger ===")
	led := tablewriter.NewWriter(p.out)
	led.Header("LifeSpan", "Kind", "Alloc", "Garbage", "Live")
	for _, row := range r.Ledger {
		led.Append(row.LifeSpan, row.Kind,
			strconv.FormatInt(row.Alloc, 10), strconv.FormatInt(row.Garbage, 10), strconv.FormatInt(row.Live, 10))
	}
	led.Render()
}

func (p *Printer) renderCSV(r Final) {
	w := csv.NewWriter(p.out)
	defer w.Flush()

	_ = w.Write([]string{"section", "field", "value"})
	_ = w.Write([]string{"customer", "releases", strconv.FormatInt(r.Customer.Releases, 10)})
	_ = w.Write([]string{"customer", "purchases", strconv.FormatInt(r.Customer.Purchases, 10)})
	_ = w.Write([]string{"customer", "saved_for_later", strconv.FormatInt(r.Customer.SavedForLater, 10)})
	_ = w.Write([]string{"customer", "abandoned", strconv.FormatInt(r.Customer.Abandoned, 10)})
	_ = w.Write([]string{"customer", "do_nothing", strconv.FormatInt(r.Customer.DidNothing, 10)})

	_ = w.Write([]string{"server", "releases", strconv.FormatInt(r.Server.Releases, 10)})
	_ = w.Write([]string{"server", "sales_drained", strconv.FormatInt(r.Server.SalesDrained, 10)})
	_ = w.Write([]string{"server", "histories_expired", strconv.FormatInt(r.Server.HistoriesExpired, 10)})
	_ = w.Write([]string{"server", "customer_replacements", strconv.FormatInt(r.Server.CustomerReplacements, 10)})
	_ = w.Write([]string{"server", "product_replacements", strconv.FormatInt(r.Server.ProductReplacements, 10)})

	_ = w.Write([]string{"phased", "customer_cycles", strconv.FormatInt(r.Phased.CustomerCycles, 10)})
	_ = w.Write([]string{"phased", "customers_replaced", strconv.FormatInt(r.Phased.CustomersReplaced, 10)})
	_ = w.Write([]string{"phased", "product_cycles", strconv.FormatInt(r.Phased.ProductCycles, 10)})
	_ = w.Write([]string{"phased", "products_replaced", strconv.FormatInt(r.Phased.ProductsReplaced, 10)})

	_ = w.Write([]string{"percentile", "p50", r.Percentiles.P50})
	_ = w.Write([]string{"percentile", "p95", r.Percentiles.P95})
	_ = w.Write([]string{"percentile", "p99", r.Percentiles.P99})
	_ = w.Write([]string{"percentile", "p99.9", r.Percentiles.P999})
	_ = w.Write([]string{"percentile", "p99.99", r.Percentiles.P9999})
	_ = w.Write([]string{"percentile", "p99.999", r.Percentiles.P99999})
	_ = w.Write([]string{"percentile", "p100", r.Percentiles.P100})

	for _, gr := range r.Gates {
		_ = w.Write([]string{"gate." + gr.Name, "reader_count", strconv.FormatInt(gr.Reader.Count, 10)})
		_ = w.Write([]string{"gate." + gr.Name, "writer_count", strconv.FormatInt(gr.Writer.Count, 10)})
	}

	for _, row := range r.Ledger {
		_ = w.Write([]string{"ledger." + row.LifeSpan + "." + row.Kind, "alloc", strconv.FormatInt(row.Alloc, 10)})
		_ = w.Write([]string{"ledger." + row.LifeSpan + "." + row.Kind, "garbage", strconv.FormatInt(row.Garbage, 10)})
		_ = w.Write([]string{"ledger." + row.LifeSpan + "." + row.Kind, "live", strconv.FormatInt(row.Live, 10)})
	}
}
