// Package estimate aggregates per-trial failure times into reliability
// estimates.
//
// An Accumulator only holds sums, extrema and counts, so partial
// accumulators built by independent workers can be merged into one without
// revisiting the samples.
package estimate

import (
	"math"
	"sort"
)

// Accumulator collects failure times for one simulation run.
type Accumulator struct {
	grid []float64

	count    int
	sum      float64
	mean     float64 // running mean, used only for m2
	m2       float64 // sum of squared deviations from the running mean
	min      float64
	max      float64
	censored int

	// buckets[i] counts failure times x with grid[i-1] < x <= grid[i];
	// buckets[len(grid)] counts the ones beyond the last grid point.
	buckets []int64
}

// NewAccumulator returns an empty accumulator over grid. The grid is shared,
// not copied; callers must not modify it while the accumulator is in use.
func NewAccumulator(grid []float64) *Accumulator {
	return &Accumulator{
		grid:    grid,
		min:     math.Inf(1),
		max:     math.Inf(-1),
		buckets: make([]int64, len(grid)+1),
	}
}

// Add records one observed failure time.
func (a *Accumulator) Add(x float64) {
	a.count++
	a.sum += x

	delta := x - a.mean
	a.mean += delta / float64(a.count)
	a.m2 += delta * (x - a.mean)

	if x < a.min {
		a.min = x
	}
	if x > a.max {
		a.max = x
	}

	// first grid index with grid[i] >= x: the trial survives every point before it
	a.buckets[sort.SearchFloat64s(a.grid, x)]++
}

// AddCensored records a failure time that is only a lower bound.
func (a *Accumulator) AddCensored(x float64) {
	a.censored++
	a.Add(x)
}

// Merge folds other into a. Both accumulators must share the same grid.
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil || other.count == 0 {
		return
	}
	if a.count == 0 {
		a.count = other.count
		a.sum = other.sum
		a.mean = other.mean
		a.m2 = other.m2
		a.min = other.min
		a.max = other.max
		a.censored = other.censored
		copy(a.buckets, other.buckets)
		return
	}

	n := float64(a.count + other.count)
	delta := other.mean - a.mean
	a.m2 += other.m2 + delta*delta*float64(a.count)*float64(other.count)/n
	a.mean += delta * float64(other.count) / n

	a.count += other.count
	a.sum += other.sum
	a.censored += other.censored
	a.min = math.Min(a.min, other.min)
	a.max = math.Max(a.max, other.max)
	for i := range a.buckets {
		a.buckets[i] += other.buckets[i]
	}
}

// Count returns the number of recorded trials.
func (a *Accumulator) Count() int { return a.count }

// Censored returns how many of the recorded trials were censored.
func (a *Accumulator) Censored() int { return a.censored }

// Sum returns the sum of the recorded failure times.
func (a *Accumulator) Sum() float64 { return a.sum }

// Mean returns the arithmetic mean of the failure times, NaN when empty.
func (a *Accumulator) Mean() float64 {
	if a.count == 0 {
		return math.NaN()
	}
	return a.sum / float64(a.count)
}

// Variance returns the unbiased sample variance, NaN below two trials.
func (a *Accumulator) Variance() float64 {
	if a.count < 2 {
		return math.NaN()
	}
	return a.m2 / float64(a.count-1)
}

func (a *Accumulator) StdDev() float64 {
	return math.Sqrt(a.Variance())
}

// HalfWidth returns z times the standard error of the mean.
func (a *Accumulator) HalfWidth(z float64) float64 {
	if a.count < 2 {
		return math.Inf(1)
	}
	return z * a.StdDev() / math.Sqrt(float64(a.count))
}

// RelativeHalfWidth returns HalfWidth(z) divided by the mean.
func (a *Accumulator) RelativeHalfWidth(z float64) float64 {
	mean := a.Mean()
	if a.count < 2 || mean == 0 || math.IsNaN(mean) {
		return math.Inf(1)
	}
	return a.HalfWidth(z) / math.Abs(mean)
}

func (a *Accumulator) Min() float64 { return a.min }
func (a *Accumulator) Max() float64 { return a.max }

// Survival returns, for every grid point t, the fraction of trials whose
// failure time exceeds t.
func (a *Accumulator) Survival() []float64 {
	out := make([]float64, len(a.grid))
	if a.count == 0 {
		return out
	}
	var alive int64
	for i := len(a.grid) - 1; i >= 0; i-- {
		alive += a.buckets[i+1]
		out[i] = float64(alive) / float64(a.count)
	}
	return out
}
