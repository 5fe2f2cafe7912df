package worker

import "sync"

// CustomerTally is one CustomerThread's decision counters, folded into
// a shared Metrics accumulator at termination.
type CustomerTally struct {
	Releases      int64
	Purchases     int64
	SavedForLater int64
	Abandoned     int64
	DidNothing    int64
}

func (t *CustomerTally) record(d Decision) {
	t.Releases++
	switch d {
	case Purchase:
		t.Purchases++
	case SaveForLater:
		t.SavedForLater++
	case Abandon:
		t.Abandoned++
	case DoNothing:
		t.DidNothing++
	}
}

// ServerTally is one ServerThread's attention-point counters.
type ServerTally struct {
	Releases             int64
	SalesDrained         int64
	HistoriesExpired     int64
	CustomerReplacements int64
	ProductReplacements  int64
}

// PhasedTally records a PhasedUpdater's bulk-rebuild activity.
type PhasedTally struct {
	CustomerCycles    int64
	ProductCycles     int64
	CustomersReplaced int64
	ProductsReplaced  int64
}

// Metrics is the shared global accumulator every worker folds its
// thread-local tally into at termination, guarded by one mutex —
// mirroring the report lock's "single global lock serializes a
// multi-line block" discipline, but for accumulation rather than
// output.
type Metrics struct {
	mu       sync.Mutex
	Customer CustomerTally
	Server   ServerTally
	Phased   PhasedTally
}

// NewMetrics returns an empty global accumulator.
func NewMetrics() *Metrics { return &Metrics{} }

// FoldCustomer accumulates t into the shared customer tally.
func (m *Metrics) FoldCustomer(t CustomerTally) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Customer.Releases += t.Releases
	m.Customer.Purchases += t.Purchases
	m.Customer.SavedForLater += t.SavedForLater
	m.Customer.Abandoned += t.Abandoned
	m.Customer.DidNothing += t.DidNothing
}

// FoldServer accumulates t into the shared server tally.
func (m *Metrics) FoldServer(t ServerTally) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Server.Releases += t.Releases
	m.Server.SalesDrained += t.SalesDrained
	m.Server.HistoriesExpired += t.HistoriesExpired
	m.Server.CustomerReplacements += t.CustomerReplacements
	m.Server.ProductReplacements += t.ProductReplacements
}

// FoldPhased accumulates t into the shared phased-update tally.
func (m *Metrics) FoldPhased(t PhasedTally) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Phased.CustomerCycles += t.CustomerCycles
	m.Phased.ProductCycles += t.ProductCycles
	m.Phased.CustomersReplaced += t.CustomersReplaced
	m.Phased.ProductsReplaced += t.ProductsReplaced
}

// Snapshot returns a copy of the accumulated tallies, safe to call
// concurrently with any Fold* call.
func (m *Metrics) Snapshot() (CustomerTally, ServerTally, PhasedTally) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Customer, m.Server, m.Phased
}
