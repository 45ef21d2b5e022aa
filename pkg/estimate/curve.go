package estimate

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGrid is returned for a time grid that is not finite and strictly
// ascending.
var ErrInvalidGrid = errors.New("invalid time grid")

// CurvePoint is one point of an empirical reliability curve.
type CurvePoint struct {
	Time        float64 `json:"time"`
	Probability float64 `json:"probability"`
}

// ValidateGrid checks that grid is finite and strictly ascending.
func ValidateGrid(grid []float64) error {
	for i, t := range grid {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: point %d is %v", ErrInvalidGrid, i, t)
		}
		if i > 0 && !(t > grid[i-1]) {
			return fmt.Errorf("%w: point %d (%v) does not exceed point %d (%v)", ErrInvalidGrid, i, t, i-1, grid[i-1])
		}
	}
	return nil
}

// Linspace returns n evenly spaced points from start to end inclusive.
func Linspace(start, end float64, n int) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{start}
	}
	out := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = end
	return out
}

// Curve pairs the grid with the accumulator's empirical survival.
func (a *Accumulator) Curve() []CurvePoint {
	survival := a.Survival()
	out := make([]CurvePoint, len(a.grid))
	for i, t := range a.grid {
		out[i] = CurvePoint{Time: t, Probability: survival[i]}
	}
	return out
}
