package chaos

import (
	"math/rand"

	"github.com/havocd/havoc/internal/core/domain"
)

// Variate returns a deterministic value in [0,1) for (seed, draw).
//
// The effective seed mixes the base seed with the draw index so that
// consecutive draws under one seed form a decorrelated sequence. A caller
// that reuses a draw index gets the same value back; a caller that never
// advances the draw index degenerates to a constant stream, which is why
// every call site threads an explicit, monotonically increasing index.
func Variate(seed int64, draw uint64) float64 {
	return rand.New(rand.NewSource(int64(mix(uint64(seed), draw)))).Float64()
}

// mix is a splitmix64 finalizer over the seed/draw pair. Adjacent seeds
// must not produce correlated generator states.
func mix(seed, draw uint64) uint64 {
	z := seed + draw*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// WeightedChoice makes a deterministic weighted categorical draw over
// candidates. Ties and ordering are stable: candidates are walked in
// input order. All-zero (or negative-sum) weights are a configuration
// error, not a silent uniform fallback.
func WeightedChoice(seed int64, draw uint64, candidates []domain.ErrorClass, weights []float64) (domain.ErrorClass, error) {
	if len(candidates) == 0 {
		return "", domain.NewConfigurationError("weights", "no candidates to choose from")
	}
	if len(weights) != len(candidates) {
		return "", domain.NewConfigurationError("weights",
			"%d weights for %d candidates", len(weights), len(candidates))
	}

	var total float64
	for i, w := range weights {
		if w < 0 {
			return "", domain.NewConfigurationError("weights",
				"negative weight %v for class %s", w, candidates[i])
		}
		total += w
	}
	if total <= 0 {
		return "", domain.NewConfigurationError("weights", "all weights are zero")
	}

	x := Variate(seed, draw) * total
	for i, w := range weights {
		x -= w
		if x < 0 {
			return candidates[i], nil
		}
	}
	// Floating point can leave a sliver at the top of the range.
	return candidates[len(candidates)-1], nil
}
