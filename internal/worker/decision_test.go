package worker

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedChoiceOnlyPurchase(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		assert.Equal(t, Purchase, weightedChoice(rng, 1, 0, 0, 0))
	}
}

func TestWeightedChoiceZeroSumFallsBackToDoNothing(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, DoNothing, weightedChoice(rng, 0, 0, 0, 0))
}

func TestWeightedChoiceDistributionRoughlyMatchesWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	counts := map[Decision]int{}
	const n = 20000
	for i := 0; i < n; i++ {
		counts[weightedChoice(rng, 0.2, 0.3, 0.1, 0.4)]++
	}
	assert.InDelta(t, 0.2, float64(counts[Purchase])/n, 0.03)
	assert.InDelta(t, 0.3, float64(counts[SaveForLater])/n, 0.03)
	assert.InDelta(t, 0.1, float64(counts[Abandon])/n, 0.03)
	assert.InDelta(t, 0.4, float64(counts[DoNothing])/n, 0.03)
}
