// Package lifetime provides the lifetime distributions sampled by the
// reliability engine.
//
// A Distribution never owns a pseudorandom source: every sampling call takes
// the *rand.Rand of the caller, so a simulation run fully controls
// reproducibility by seeding its own generators.
package lifetime

import (
	"errors"
	"math/rand/v2"
)

// ErrInvalidParameter is returned when a distribution is built from
// parameters outside its domain.
var ErrInvalidParameter = errors.New("invalid distribution parameter")

// Distribution is the capability the engine needs from a lifetime model.
type Distribution interface {
	// Sample returns size independent lifetime draws. Draws are non-negative
	// and may be +Inf for a unit that never fails.
	Sample(rng *rand.Rand, size int) []float64

	// Survival returns P(T > t).
	Survival(t float64) float64

	// Mean returns the expected lifetime.
	Mean() float64

	// SampleRemaining returns size residual-life draws for a unit known to
	// have survived to age.
	SampleRemaining(rng *rand.Rand, age float64, size int) []float64
}

// SurvivalAt evaluates the survival function of d at every point of ts.
func SurvivalAt(d Distribution, ts []float64) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = d.Survival(t)
	}
	return out
}

// openUnit returns a uniform draw on (0, 1], safe to pass to math.Log.
func openUnit(rng *rand.Rand) float64 {
	return 1.0 - rng.Float64()
}
