package lifetime

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Exponential is the constant failure rate distribution. A zero Lambda
// describes a unit that never fails: every draw is +Inf.
type Exponential struct {
	Lambda float64
}

// NewExponential validates the rate and returns the distribution.
func NewExponential(lambda float64) (Exponential, error) {
	if lambda < 0 || math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return Exponential{}, fmt.Errorf("%w: failure rate %v must be finite and non-negative", ErrInvalidParameter, lambda)
	}
	return Exponential{Lambda: lambda}, nil
}

func (e Exponential) Sample(rng *rand.Rand, size int) []float64 {
	out := make([]float64, size)
	for i := range out {
		if e.Lambda == 0 {
			out[i] = math.Inf(1)
			continue
		}
		out[i] = rng.ExpFloat64() / e.Lambda
	}
	return out
}

func (e Exponential) Survival(t float64) float64 {
	if t <= 0 {
		return 1.0
	}
	return math.Exp(-e.Lambda * t)
}

func (e Exponential) Mean() float64 {
	if e.Lambda == 0 {
		return math.Inf(1)
	}
	return 1.0 / e.Lambda
}

// SampleRemaining ignores age: the distribution is memoryless.
func (e Exponential) SampleRemaining(rng *rand.Rand, age float64, size int) []float64 {
	return e.Sample(rng, size)
}

func (e Exponential) String() string {
	return fmt.Sprintf("Exponential(lambda=%g)", e.Lambda)
}
