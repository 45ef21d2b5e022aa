package lifetime

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Fixed is a deterministic lifetime source. Every Sample call returns the
// first size entries of Values, repeating the sequence when size exceeds its
// length. The generator is never consulted, which makes Fixed the usual test
// double and the replay form of recorded failure times.
type Fixed struct {
	Values []float64
}

// NewFixed copies values into a Fixed distribution.
func NewFixed(values ...float64) (Fixed, error) {
	if len(values) == 0 {
		return Fixed{}, fmt.Errorf("%w: fixed sequence is empty", ErrInvalidParameter)
	}
	for i, v := range values {
		if v < 0 || math.IsNaN(v) {
			return Fixed{}, fmt.Errorf("%w: fixed value %d is %v", ErrInvalidParameter, i, v)
		}
	}
	return Fixed{Values: append([]float64(nil), values...)}, nil
}

func (f Fixed) Sample(_ *rand.Rand, size int) []float64 {
	out := make([]float64, size)
	for i := range out {
		out[i] = f.Values[i%len(f.Values)]
	}
	return out
}

// Survival is the empirical fraction of Values exceeding t.
func (f Fixed) Survival(t float64) float64 {
	alive := 0
	for _, v := range f.Values {
		if v > t {
			alive++
		}
	}
	return float64(alive) / float64(len(f.Values))
}

func (f Fixed) Mean() float64 {
	sum := 0.0
	for _, v := range f.Values {
		sum += v
	}
	return sum / float64(len(f.Values))
}

// SampleRemaining replays the values that outlive age, shifted by age.
// When no value outlives age every draw is zero.
func (f Fixed) SampleRemaining(_ *rand.Rand, age float64, size int) []float64 {
	survivors := make([]float64, 0, len(f.Values))
	for _, v := range f.Values {
		if v > age {
			survivors = append(survivors, v-age)
		}
	}
	out := make([]float64, size)
	if len(survivors) == 0 {
		return out
	}
	for i := range out {
		out[i] = survivors[i%len(survivors)]
	}
	return out
}
