package worker

import "math/rand"

// Decision is the outcome of one CustomerThread release: what the
// customer did with the selection pool it assembled this cycle.
type Decision int

const (
	Purchase Decision = iota
	SaveForLater
	Abandon
	DoNothing
)

func (d Decision) String() string {
	switch d {
	case Purchase:
		return "Purchase"
	case SaveForLater:
		return "SaveForLater"
	case Abandon:
		return "Abandon"
	default:
		return "DoNothing"
	}
}

// weightedChoice picks one of the four decisions in proportion to the
// configured probabilities, the way a synthetic-workload operation mix
// is sampled: draw a uniform float in [0, sum), then walk a running
// total until it's exceeded. Any non-negative weights work; they need
// not sum to 1 (config.validate only requires a positive sum).
func weightedChoice(rng *rand.Rand, purchase, saveForLater, abandon, doNothing float64) Decision {
	sum := purchase + saveForLater + abandon + doNothing
	if sum <= 0 {
		return DoNothing
	}
	roll := rng.Float64() * sum

	running := purchase
	if roll < running {
		return Purchase
	}
	running += saveForLater
	if roll < running {
		return SaveForLater
	}
	running += abandon
	if roll < running {
		return Abandon
	}
	return DoNothing
}
