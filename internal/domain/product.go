package domain

import "github.com/go-catalogsim/catalogsim/internal/ledger"

// Product is a simulated catalog item. The catalog owns Products for
// its own lifetime; BrowsingHistory and SalesTransaction hold weak
// references to one.
type Product struct {
	ID          uint64
	Name        string
	Description string
	Keywords    []string
}

// NewProduct constructs a Product, accounting its header, name+
// description bytes, and keyword slice as Ephemeral, then promoted once
// to NearlyForever — the catalog residence lifespan.
func NewProduct(id uint64, name, description string, keywords []string, log *ledger.Log) *Product {
	rsb := int64(len(name) + len(description))

	log.AccumulateAlloc(ledger.Ephemeral, ledger.PlainObject, ledger.Expand, 1)
	log.AccumulateAlloc(ledger.Ephemeral, ledger.ObjectRSB, ledger.Expand, rsb)
	log.AccumulateAlloc(ledger.Ephemeral, ledger.ArrayReference, ledger.Expand, int64(len(keywords)))

	log.PromoteAlloc(ledger.Ephemeral, ledger.NearlyForever, ledger.PlainObject, 1)
	log.PromoteAlloc(ledger.Ephemeral, ledger.NearlyForever, ledger.ObjectRSB, rsb)
	log.PromoteAlloc(ledger.Ephemeral, ledger.NearlyForever, ledger.ArrayReference, int64(len(keywords)))

	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Keywords:    keywords,
	}
}

// Release accounts this Product's garbage at NearlyForever, the
// lifespan it was promoted to at construction.
func (p *Product) Release(log *ledger.Log) {
	log.AccumulateGarbage(ledger.NearlyForever, ledger.PlainObject, ledger.Expand, 1)
	log.AccumulateGarbage(ledger.NearlyForever, ledger.ObjectRSB, ledger.Expand, int64(len(p.Name)+len(p.Description)))
	log.AccumulateGarbage(ledger.NearlyForever, ledger.ArrayReference, ledger.Expand, int64(len(p.Keywords)))
}
