package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-catalogsim/catalogsim/internal/gate"
	"github.com/go-catalogsim/catalogsim/internal/report"
	"github.com/go-catalogsim/catalogsim/internal/reservoir"
)

func sampleFinal() report.Final {
	return report.Final{
		Customer: report.CustomerTotals{Releases: 10, Purchases: 2, SavedForLater: 3, Abandoned: 1, DidNothing: 4},
		Server:   report.ServerTotals{Releases: 10, SalesDrained: 2, HistoriesExpired: 1},
		Gates: []report.GateReport{
			{Name: "customers", Reader: gate.Stats{Count: 5, MinWait: 0, MaxWait: 2, TotalWait: 3}},
		},
		Percentiles: reservoir.Percentiles{P50: "100", P95: "*", P99: "*", P999: "*", P9999: "*", P99999: "*", P100: "100"},
		Ledger: []report.LedgerRow{
			{LifeSpan: "Ephemeral", Kind: "PlainObject", Alloc: 5, Garbage: 5, Live: 0},
		},
	}
}

func TestPrintFinalTableMode(t *testing.T) {
	var buf bytes.Buffer
	p := report.NewPrinter(&buf, false)
	p.PrintFinal(sampleFinal())

	out := buf.String()
	assert.Contains(t, out, "Customer workers")
	assert.Contains(t, out, "Lifespan")
	assert.Contains(t, out, "Ephemeral")
}

func TestPrintFinalCSVMode(t *testing.T) {
	var buf bytes.Buffer
	p := report.NewPrinter(&buf, true)
	p.PrintFinal(sampleFinal())

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "section,field,value"))
	assert.Contains(t, out, "customer,releases,10")
	assert.Contains(t, out, "ledger.Ephemeral.PlainObject,live,0")
}

func TestPrintCustomerThreadSerializesUnderLock(t *testing.T) {
	var buf bytes.Buffer
	p := report.NewPrinter(&buf, false)
	p.PrintCustomerThread("customer-0", 10, 2, 3, 1, 4)
	assert.Contains(t, buf.String(), "customer-0")
}
