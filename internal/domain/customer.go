// Package domain holds the simulation's entity graph — Customer,
// Product, BrowsingHistory, SalesTransaction — along with the
// intrusive shard/queue primitives and the per-customer save-for-later
// buffer that operate directly on them. These types are mutually
// referential (a BrowsingHistory points at its Customer and vice
// versa) so they live in one package rather than forcing an artificial
// split across an import cycle.
package domain

import (
	"sync"
	"sync/atomic"

	"github.com/go-catalogsim/catalogsim/internal/ledger"
)

// initialSFLQCapacity is the starting size of a Customer's
// save-for-later circular buffer; it doubles on overflow.
const initialSFLQCapacity = 8

// Customer is a simulated shopper. Identity is ID; the Customers
// catalog owns it, while BrowsingHistory and SalesTransaction hold
// weak (non-owning) references to it.
type Customer struct {
	ID           uint64
	Name         string
	PurchaseHash uint64

	deceased atomic.Bool

	mu        sync.Mutex // guards the save-for-later buffer below
	sflqBuf   []*BrowsingHistory
	sflqHead  int
	sflqCount int
}

// NewCustomer constructs a Customer, accounting its construction on
// log: the header, the name string's bytes, and the initial
// save-for-later buffer are all allocated Ephemeral, then promoted to
// NearlyForever since the catalog holds the Customer for its own
// lifetime (until replaced).
func NewCustomer(id uint64, name string, purchaseHash uint64, log *ledger.Log) *Customer {
	log.AccumulateAlloc(ledger.Ephemeral, ledger.PlainObject, ledger.Expand, 1)
	log.AccumulateAlloc(ledger.Ephemeral, ledger.ObjectRSB, ledger.Expand, int64(len(name)))
	log.AccumulateAlloc(ledger.Ephemeral, ledger.ArrayReference, ledger.Expand, initialSFLQCapacity)

	log.PromoteAlloc(ledger.Ephemeral, ledger.NearlyForever, ledger.PlainObject, 1)
	log.PromoteAlloc(ledger.Ephemeral, ledger.NearlyForever, ledger.ObjectRSB, int64(len(name)))
	log.PromoteAlloc(ledger.Ephemeral, ledger.NearlyForever, ledger.ArrayReference, initialSFLQCapacity)

	return &Customer{
		ID:           id,
		Name:         name,
		PurchaseHash: purchaseHash,
		sflqBuf:      make([]*BrowsingHistory, initialSFLQCapacity),
	}
}

// Deceased reports whether the customer has been retired by a catalog
// replacement. Monotonic: once true, never reverts to false.
func (c *Customer) Deceased() bool { return c.deceased.Load() }

// Release accounts this Customer's own garbage (header, name bytes) at
// NearlyForever, the lifespan it was promoted to at construction. The
// caller is responsible for having already drained the sflq via
// PrepareForDemise.
func (c *Customer) Release(log *ledger.Log) {
	log.AccumulateGarbage(ledger.NearlyForever, ledger.PlainObject, ledger.Expand, 1)
	log.AccumulateGarbage(ledger.NearlyForever, ledger.ObjectRSB, ledger.Expand, int64(len(c.Name)))
}
