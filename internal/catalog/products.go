package catalog

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/go-catalogsim/catalogsim/internal/dictionary"
	"github.com/go-catalogsim/catalogsim/internal/domain"
	"github.com/go-catalogsim/catalogsim/internal/gate"
	"github.com/go-catalogsim/catalogsim/internal/ledger"
)

// keywordsPerProduct is how many keywords each product is tagged with
// when generated.
const keywordsPerProduct = 4

// Products is the fixed-size, randomly-replaceable product population.
// It additionally carries a keyword inverted index (keyword -> set of
// product ids), maintained under the gate's write side alongside
// replacement.
type Products struct {
	g    *gate.Gate
	dict *dictionary.Dictionary

	names sync.Mutex
	usedNames map[string]struct{}
	nextID    uint64

	population []*domain.Product
	byID       map[uint64]*domain.Product
	index      map[string]map[uint64]struct{}
}

// NewProducts builds an initial population of n products, accounted on
// log, with their keywords indexed.
func NewProducts(n int, dict *dictionary.Dictionary, rng *rand.Rand, log *ledger.Log) *Products {
	p := &Products{
		g:          gate.New(),
		dict:       dict,
		usedNames:  make(map[string]struct{}, n),
		population: make([]*domain.Product, n),
		byID:       make(map[uint64]*domain.Product, n),
		index:      make(map[string]map[uint64]struct{}),
	}
	for i := range p.population {
		prod := p.spawn(rng, log)
		p.population[i] = prod
		p.indexAdd(prod)
	}
	return p
}

func (p *Products) spawn(rng *rand.Rand, log *ledger.Log) *domain.Product {
	p.names.Lock()
	name := p.dict.NewName(rng, p.usedNames)
	id := p.nextID
	p.nextID++
	p.names.Unlock()

	keywords := p.dict.Keywords(rng, keywordsPerProduct)
	description := strings.Join(p.dict.Keywords(rng, keywordsPerProduct+2), " ")
	return domain.NewProduct(id, name, description, keywords, log)
}

// indexAdd registers prod in both the inverted keyword index and the
// id lookup map. Callers must hold the write lock (or, during initial
// construction, have no concurrent readers yet).
func (p *Products) indexAdd(prod *domain.Product) {
	p.byID[prod.ID] = prod
	for _, kw := range prod.Keywords {
		ids, ok := p.index[kw]
		if !ok {
			ids = make(map[uint64]struct{})
			p.index[kw] = ids
		}
		ids[prod.ID] = struct{}{}
	}
}

func (p *Products) indexRemove(prod *domain.Product) {
	for _, kw := range prod.Keywords {
		ids := p.index[kw]
		delete(ids, prod.ID)
		if len(ids) == 0 {
			delete(p.index, kw)
		}
	}
	delete(p.byID, prod.ID)
}

// Len returns the population size.
func (p *Products) Len() int {
	return gate.ReadValue(p.g, func() int { return len(p.population) })
}

// SelectRandom returns a uniformly random product under the gate's
// read side.
func (p *Products) SelectRandom(rng *rand.Rand) *domain.Product {
	return gate.ReadValue(p.g, func() *domain.Product {
		return p.population[rng.Intn(len(p.population))]
	})
}

// SearchMatching returns the products hitting every supplied keyword
// (matchAll) and those hitting at least one (matchAny), computed under
// the read lock. The returned slices are plain copies of product
// pointers and are safe to use after the lock releases.
func (p *Products) SearchMatching(keywords []string) (matchAll, matchAny []*domain.Product) {
	gate.ReadValue(p.g, func() struct{} {
		if len(keywords) == 0 {
			return struct{}{}
		}
		hits := make(map[uint64]int, 16)
		for _, kw := range keywords {
			for id := range p.index[kw] {
				hits[id]++
			}
		}
		for id, n := range hits {
			prod := p.byID[id]
			if prod == nil {
				continue
			}
			matchAny = append(matchAny, prod)
			if n == len(keywords) {
				matchAll = append(matchAll, prod)
			}
		}
		return struct{}{}
	})
	return matchAll, matchAny
}

// ReplaceRandom evicts one arbitrary product under the write lock,
// removing it from the inverted index, releasing its garbage, and
// installing a freshly constructed product (re-indexed) at the same
// position.
func (p *Products) ReplaceRandom(rng *rand.Rand, log *ledger.Log) {
	p.g.Write(func() {
		idx := rng.Intn(len(p.population))
		old := p.population[idx]
		p.indexRemove(old)
		old.Release(log)

		fresh := p.spawn(rng, log)
		p.population[idx] = fresh
		p.indexAdd(fresh)
	})
}

// RebuildPhased mirrors Customers.RebuildPhased: build a scratch
// population (and its index) under the read lock, then swap both in
// under one write-lock hold. Returns the count replaced.
func (p *Products) RebuildPhased(rng *rand.Rand, log *ledger.Log) int {
	var scratch []*domain.Product
	scratchIndex := make(map[string]map[uint64]struct{})
	scratchByID := make(map[uint64]*domain.Product)

	p.g.Read(func() {
		scratch = make([]*domain.Product, len(p.population))
		for i := range scratch {
			prod := p.spawn(rng, log)
			scratch[i] = prod
			scratchByID[prod.ID] = prod
			for _, kw := range prod.Keywords {
				ids, ok := scratchIndex[kw]
				if !ok {
					ids = make(map[uint64]struct{})
					scratchIndex[kw] = ids
				}
				ids[prod.ID] = struct{}{}
			}
		}
	})
	// scratch/scratchIndex/scratchByID are built entirely off to the
	// side here; p.population/p.byID/p.index are only touched below,
	// under the write lock.

	n := len(scratch)
	p.g.Write(func() {
		for _, old := range p.population {
			p.indexRemove(old)
			old.Release(log)
		}
		copy(p.population, scratch)
		p.index = scratchIndex
		for id, prod := range scratchByID {
			p.byID[id] = prod
		}
	})
	return n
}

// ReaderStats and WriterStats expose the underlying gate's
// wait-iteration bookkeeping for the final report.
func (p *Products) ReaderStats() gate.Stats { return p.g.ReaderStats() }
func (p *Products) WriterStats() gate.Stats { return p.g.WriterStats() }

// Teardown releases every product still in the population. Called once,
// after every worker has terminated, so the shutdown ledger can walk
// the root set down to zero live memory instead of leaving the final
// population's NearlyForever allocations uncollected.
func (p *Products) Teardown(log *ledger.Log) {
	p.g.Write(func() {
		for _, prod := range p.population {
			prod.Release(log)
		}
		p.population = nil
		p.byID = nil
		p.index = nil
	})
}
