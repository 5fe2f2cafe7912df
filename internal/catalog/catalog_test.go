package catalog_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-catalogsim/catalogsim/internal/catalog"
	"github.com/go-catalogsim/catalogsim/internal/dictionary"
	"github.com/go-catalogsim/catalogsim/internal/ledger"
)

func TestCustomersSelectRandomAndReplaceRandom(t *testing.T) {
	log := ledger.NewLog()
	dict := dictionary.Load(16)
	rng := rand.New(rand.NewSource(1))

	customers := catalog.NewCustomers(10, dict, rng, log)
	require.Equal(t, 10, customers.Len())

	picked := customers.SelectRandom(rng)
	require.NotNil(t, picked)

	before := picked.ID
	customers.ReplaceRandom(rng, log)
	// Population size is unchanged after a replacement.
	assert.Equal(t, 10, customers.Len())
	_ = before
}

func TestCustomersRebuildPhasedReplacesEveryone(t *testing.T) {
	log := ledger.NewLog()
	dict := dictionary.Load(16)
	rng := rand.New(rand.NewSource(2))

	customers := catalog.NewCustomers(5, dict, rng, log)
	replaced := customers.RebuildPhased(rng, log)
	assert.Equal(t, 5, replaced)
	assert.Equal(t, 5, customers.Len())
}

func TestProductsSearchMatchingAllVsAny(t *testing.T) {
	log := ledger.NewLog()
	dict := dictionary.Load(26)
	rng := rand.New(rand.NewSource(3))

	products := catalog.NewProducts(20, dict, rng, log)

	// Pull a keyword that's actually present by inspecting a selected
	// product, so the test doesn't depend on the dictionary's exact
	// contents.
	sample := products.SelectRandom(rng)
	require.NotEmpty(t, sample.Keywords)

	matchAll, matchAny := products.SearchMatching(sample.Keywords[:1])
	assert.NotEmpty(t, matchAny)
	assert.GreaterOrEqual(t, len(matchAny), len(matchAll))

	noMatchAll, noMatchAny := products.SearchMatching(nil)
	assert.Empty(t, noMatchAll)
	assert.Empty(t, noMatchAny)
}

func TestProductsReplaceRandomUpdatesIndex(t *testing.T) {
	log := ledger.NewLog()
	dict := dictionary.Load(26)
	rng := rand.New(rand.NewSource(4))

	products := catalog.NewProducts(8, dict, rng, log)
	products.ReplaceRandom(rng, log)
	assert.Equal(t, 8, products.Len())
}

func TestProductsRebuildPhasedReplacesEveryone(t *testing.T) {
	log := ledger.NewLog()
	dict := dictionary.Load(26)
	rng := rand.New(rand.NewSource(5))

	products := catalog.NewProducts(6, dict, rng, log)
	replaced := products.RebuildPhased(rng, log)
	assert.Equal(t, 6, replaced)
	assert.Equal(t, 6, products.Len())
}

func TestCustomersConcurrentReadersDoNotRace(t *testing.T) {
	log := ledger.NewLog()
	dict := dictionary.Load(16)
	rng := rand.New(rand.NewSource(6))
	customers := catalog.NewCustomers(50, dict, rng, log)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(seed int64) {
			r := rand.New(rand.NewSource(seed))
			for j := 0; j < 200; j++ {
				customers.SelectRandom(r)
			}
			done <- struct{}{}
		}(int64(i + 100))
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
