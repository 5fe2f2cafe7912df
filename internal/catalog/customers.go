// Package catalog implements the shared, concurrently-accessed
// Customers and Products populations: fixed-size indexed arrays
// protected by a gate.Gate, with incremental random replacement and an
// optional phased bulk rebuild.
package catalog

import (
	"math/rand"
	"sync"

	"github.com/go-catalogsim/catalogsim/internal/dictionary"
	"github.com/go-catalogsim/catalogsim/internal/domain"
	"github.com/go-catalogsim/catalogsim/internal/gate"
	"github.com/go-catalogsim/catalogsim/internal/ledger"
)

// Customers is the fixed-size, randomly-replaceable customer
// population. select_random and search-adjacent reads take the gate's
// read side; replace_random and rebuild_phased take the write side.
type Customers struct {
	g    *gate.Gate
	dict *dictionary.Dictionary

	names sync.Mutex // guards usedNames/nextID, independent of g: name allocation never blocks catalog readers
	usedNames map[string]struct{}
	nextID    uint64

	population []*domain.Customer
}

// NewCustomers builds an initial population of n customers, accounted
// on log.
func NewCustomers(n int, dict *dictionary.Dictionary, rng *rand.Rand, log *ledger.Log) *Customers {
	c := &Customers{
		g:          gate.New(),
		dict:       dict,
		usedNames:  make(map[string]struct{}, n),
		population: make([]*domain.Customer, n),
	}
	for i := range c.population {
		c.population[i] = c.spawn(rng, log)
	}
	return c
}

func (c *Customers) spawn(rng *rand.Rand, log *ledger.Log) *domain.Customer {
	c.names.Lock()
	name := c.dict.NewName(rng, c.usedNames)
	id := c.nextID
	c.nextID++
	c.names.Unlock()
	return domain.NewCustomer(id, name, rng.Uint64(), log)
}

// Len returns the population size.
func (c *Customers) Len() int {
	return gate.ReadValue(c.g, func() int { return len(c.population) })
}

// SelectRandom returns a uniformly random customer under the gate's
// read side.
func (c *Customers) SelectRandom(rng *rand.Rand) *domain.Customer {
	return gate.ReadValue(c.g, func() *domain.Customer {
		return c.population[rng.Intn(len(c.population))]
	})
}

// ReplaceRandom evicts one arbitrary customer under the write lock:
// retires it (prepare-for-demise drains its sflq and accounts garbage
// for every BrowsingHistory it held), frees its own header/name, then
// installs a freshly constructed customer at the same index.
func (c *Customers) ReplaceRandom(rng *rand.Rand, log *ledger.Log) {
	c.g.Write(func() {
		idx := rng.Intn(len(c.population))
		old := c.population[idx]
		old.PrepareForDemise(log)
		old.Release(log)
		c.population[idx] = c.spawn(rng, log)
	})
}

// RebuildPhased builds a full replacement population in a scratch
// slice under the read lock (so concurrent readers of the live
// population are unaffected while names are drawn), then swaps the
// whole population in under one short write-lock hold. Returns the
// count replaced.
func (c *Customers) RebuildPhased(rng *rand.Rand, log *ledger.Log) int {
	var scratch []*domain.Customer
	c.g.Read(func() {
		scratch = make([]*domain.Customer, len(c.population))
		for i := range scratch {
			scratch[i] = c.spawn(rng, log)
		}
	})

	n := len(scratch)
	c.g.Write(func() {
		for _, old := range c.population {
			old.PrepareForDemise(log)
			old.Release(log)
		}
		copy(c.population, scratch)
	})
	return n
}

// ReaderStats and WriterStats expose the underlying gate's
// wait-iteration bookkeeping for the final report.
func (c *Customers) ReaderStats() gate.Stats { return c.g.ReaderStats() }
func (c *Customers) WriterStats() gate.Stats { return c.g.WriterStats() }

// Teardown retires every customer still in the population, accounting
// their sflq contents and their own header/name memory as garbage.
// Called once, after every worker has terminated, so the shutdown
// ledger can walk the root set down to zero live memory instead of
// leaving the final population's NearlyForever allocations uncollected.
func (c *Customers) Teardown(log *ledger.Log) {
	c.g.Write(func() {
		for _, cust := range c.population {
			cust.PrepareForDemise(log)
			cust.Release(log)
		}
		c.population = nil
	})
}
