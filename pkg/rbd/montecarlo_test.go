package rbd

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-rbd/pkg/estimate"
)

const testLambda = 1e-4

func series(t *testing.T, blocks ...LifetimeSource) *System {
	t.Helper()
	sys := NewSystem(WithSystemName("series"))
	prev := Node(Entry)
	for _, b := range blocks {
		require.NoError(t, sys.Connect(prev, b))
		prev = b
	}
	require.NoError(t, sys.Connect(prev, Exit))
	return sys
}

func parallelSystem(t *testing.T, blocks ...LifetimeSource) *System {
	t.Helper()
	sys := NewSystem(WithSystemName("parallel"))
	for _, b := range blocks {
		require.NoError(t, sys.Connect(Entry, b))
		require.NoError(t, sys.Connect(b, Exit))
	}
	return sys
}

func trio(t *testing.T) (a, b, c *Component) {
	return exponential(t, "A", testLambda), exponential(t, "B", testLambda), exponential(t, "C", testLambda)
}

func TestMTTFOrdering(t *testing.T) {
	a, b, c := trio(t)
	grid := estimate.Linspace(0, 50000, 5)

	for _, seed := range []uint64{1, 2, 3} {
		opts := Options{Trials: 6000, Seed: seed, Grid: grid}

		s, err := series(t, a, b, c).MonteCarlo(context.Background(), opts)
		require.NoError(t, err)
		sp, err := seriesParallel(t, a, b, c).MonteCarlo(context.Background(), opts)
		require.NoError(t, err)
		p, err := parallelSystem(t, a, b, c).MonteCarlo(context.Background(), opts)
		require.NoError(t, err)

		assert.Less(t, s.MTTF, sp.MTTF, "seed %d", seed)
		assert.Less(t, sp.MTTF, p.MTTF, "seed %d", seed)

		// closed forms: 1/3λ, 2/3λ and 11/6λ
		assert.InEpsilon(t, 1/(3*testLambda), s.MTTF, 0.05)
		assert.InEpsilon(t, 2/(3*testLambda), sp.MTTF, 0.05)
		assert.InEpsilon(t, 11/(6*testLambda), p.MTTF, 0.05)
	}
}

func TestEstimateStabilizesWithTrials(t *testing.T) {
	a, b, c := trio(t)
	sys := seriesParallel(t, a, b, c)
	grid := estimate.Linspace(0, 50000, 5)

	small, err := sys.MonteCarlo(context.Background(), Options{Trials: 2000, Seed: 7, Grid: grid})
	require.NoError(t, err)
	large, err := sys.MonteCarlo(context.Background(), Options{Trials: 8000, Seed: 7, Grid: grid})
	require.NoError(t, err)

	assert.Less(t, math.Abs(small.MTTF-large.MTTF)/large.MTTF, 0.3)
	assert.Less(t, large.HalfWidth, small.HalfWidth)
}

func TestResultIndependentOfWorkers(t *testing.T) {
	a, b, c := trio(t)
	sys := seriesParallel(t, a, b, c)
	opts := Options{Trials: 1000, Seed: 42, Grid: estimate.Linspace(0, 20000, 9), ChunkSize: 64, KeepSamples: true}

	opts.Workers = 1
	one, err := sys.MonteCarlo(context.Background(), opts)
	require.NoError(t, err)

	opts.Workers = 8
	eight, err := sys.MonteCarlo(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, one.MTTF, eight.MTTF)
	assert.Equal(t, one.StdDev, eight.StdDev)
	assert.Equal(t, one.Curve, eight.Curve)
	assert.Equal(t, one.Samples, eight.Samples)
	assert.NotEqual(t, one.RunID, eight.RunID)
}

func TestSeedChangesResult(t *testing.T) {
	a, b, c := trio(t)
	sys := seriesParallel(t, a, b, c)
	grid := []float64{1000}

	r1, err := sys.MonteCarlo(context.Background(), Options{Trials: 200, Seed: 1, Grid: grid})
	require.NoError(t, err)
	r2, err := sys.MonteCarlo(context.Background(), Options{Trials: 200, Seed: 2, Grid: grid})
	require.NoError(t, err)
	assert.NotEqual(t, r1.MTTF, r2.MTTF)
}

func TestCurveMatchesSamples(t *testing.T) {
	a, b, c := trio(t)
	sys := seriesParallel(t, a, b, c)
	grid := estimate.Linspace(0, 30000, 7)

	res, err := sys.MonteCarlo(context.Background(), Options{Trials: 3000, Seed: 5, Grid: grid, KeepSamples: true})
	require.NoError(t, err)
	require.Len(t, res.Samples, 3000)
	require.Len(t, res.Curve, len(grid))

	for i, point := range res.Curve {
		alive := 0
		for _, x := range res.Samples {
			if x > point.Time {
				alive++
			}
		}
		assert.Equal(t, grid[i], point.Time)
		assert.InDelta(t, float64(alive)/3000, point.Probability, 1e-12, "t=%v", point.Time)
		if i > 0 {
			assert.LessOrEqual(t, point.Probability, res.Curve[i-1].Probability)
		}
	}

	sum, lo, hi := 0.0, math.Inf(1), math.Inf(-1)
	for _, x := range res.Samples {
		sum += x
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	assert.InDelta(t, sum/3000, res.MTTF, 1e-6*res.MTTF)
	assert.Equal(t, lo, res.MinFailure)
	assert.Equal(t, hi, res.MaxFailure)
}

func TestDeterministicStructures(t *testing.T) {
	tests := []struct {
		name string
		sys  func(t *testing.T) *System
		want float64
	}{
		{"series fails at the first failure", func(t *testing.T) *System {
			return series(t, fixed(t, "A", 7), fixed(t, "B", 3), fixed(t, "C", 5))
		}, 3},
		{"parallel fails at the last failure", func(t *testing.T) *System {
			return parallelSystem(t, fixed(t, "A", 7), fixed(t, "B", 3), fixed(t, "C", 5))
		}, 7},
		{"series-parallel limited by the series block", func(t *testing.T) *System {
			return seriesParallel(t, fixed(t, "A", 4), fixed(t, "B", 2), fixed(t, "C", 9))
		}, 4},
		{"series-parallel limited by the branches", func(t *testing.T) *System {
			return seriesParallel(t, fixed(t, "A", 10), fixed(t, "B", 2), fixed(t, "C", 9))
		}, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.sys(t).MonteCarlo(context.Background(), Options{Trials: 20, Grid: []float64{1}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.MTTF)
			assert.Equal(t, 0.0, res.StdDev)
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestMonteCarloRejectsOptions(t *testing.T) {
	sys := series(t, exponential(t, "A", 1))

	tests := []struct {
		name      string
		opts      Options
		numerical bool
	}{
		{"no trials", Options{Trials: 0, Grid: []float64{1}}, false},
		{"negative trials", Options{Trials: -5, Grid: []float64{1}}, false},
		{"descending grid", Options{Trials: 10, Grid: []float64{5, 1}}, true},
		{"repeated grid point", Options{Trials: 10, Grid: []float64{1, 1}}, true},
		{"nan in grid", Options{Trials: 10, Grid: []float64{math.NaN()}}, true},
		{"negative tolerance", Options{Trials: 10, Grid: []float64{1}, Tolerance: -0.1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := sys.MonteCarlo(context.Background(), tt.opts)
			require.Error(t, err)
			assert.Nil(t, res)
			if tt.numerical {
				assert.True(t, IsNumerical(err), "got %v", err)
			} else {
				assert.True(t, IsConfiguration(err), "got %v", err)
			}
		})
	}
}

func TestMonteCarloRejectsInvalidSamples(t *testing.T) {
	tests := []struct {
		name   string
		sample func(size int) []float64
	}{
		{"negative", func(size int) []float64 { return []float64{-1} }},
		{"nan", func(size int) []float64 { return []float64{math.NaN()} }},
		{"wrong length", func(size int) []float64 { return []float64{1, 2} }},
		{"panic", func(size int) []float64 { panic("broken source") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := &stubSource{name: "bad", sample: tt.sample}
			sys := series(t, exponential(t, "A", 1), bad)

			res, err := sys.MonteCarlo(context.Background(), Options{Trials: 100, Grid: []float64{1}, Workers: 2, ChunkSize: 10})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, IsNumerical(err), "got %v", err)
		})
	}
}

func TestConvergenceWarning(t *testing.T) {
	sys := series(t, exponential(t, "A", testLambda))

	res, err := sys.MonteCarlo(context.Background(), Options{Trials: 100, Seed: 3, Grid: []float64{1}, Tolerance: 1e-6})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.True(t, IsConvergence(res.Warnings[0]))

	var w *ConvergenceWarning
	require.True(t, errors.As(res.Warnings[0], &w))
	assert.Equal(t, 100, w.Trials)
	assert.Greater(t, w.RelativeHalfWidth, w.Tolerance)

	res, err = sys.MonteCarlo(context.Background(), Options{Trials: 100, Seed: 3, Grid: []float64{1}, Tolerance: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

func TestCancelledRunReturnsPartialResult(t *testing.T) {
	sys := series(t, exponential(t, "A", testLambda))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := sys.MonteCarlo(ctx, Options{Trials: 1000, Grid: []float64{1}})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.True(t, res.Cancelled)
	assert.Equal(t, 1000, res.Requested)
	assert.Less(t, res.Trials, 1000)
}

func TestCensoredTrials(t *testing.T) {
	// a direct entry-to-exit edge keeps the system connected forever
	sys := NewSystem()
	a := fixed(t, "A", 7)
	require.NoError(t, sys.Connect(Entry, a, Exit))
	require.NoError(t, sys.Connect(a, Exit))

	res, err := sys.MonteCarlo(context.Background(), Options{Trials: 30, Grid: []float64{1}})
	require.NoError(t, err)
	assert.Equal(t, 30, res.Censored)
	assert.Equal(t, 7.0, res.MTTF)
	require.Len(t, res.Warnings, 1)

	var w *CensoringWarning
	require.True(t, errors.As(res.Warnings[0], &w))
	assert.Equal(t, 30, w.Censored)
	assert.Zero(t, w.Unbounded)
	assert.NotContains(t, w.Error(), "not meaningful")
}

func TestNeverFailingBlockIsCensored(t *testing.T) {
	sys := series(t, exponential(t, "A", 0))

	res, err := sys.MonteCarlo(context.Background(), Options{Trials: 10, Grid: []float64{1}})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Censored)
	assert.Equal(t, 10, res.Unbounded)
	assert.Equal(t, 0.0, res.MTTF)

	require.Len(t, res.Warnings, 1)
	var w *CensoringWarning
	require.True(t, errors.As(res.Warnings[0], &w))
	assert.Equal(t, 10, w.Unbounded)
	assert.Contains(t, w.Error(), "MTTF is not meaningful")
}

func TestInfiniteLifetimesAreSkipped(t *testing.T) {
	// B never fails; the series still fails with A
	sys := series(t, fixed(t, "A", 6), exponential(t, "B", 0))
	res, err := sys.MonteCarlo(context.Background(), Options{Trials: 10, Grid: []float64{1}})
	require.NoError(t, err)
	assert.Equal(t, 6.0, res.MTTF)
	assert.Zero(t, res.Censored)
}

func TestResultString(t *testing.T) {
	sys := series(t, fixed(t, "A", 2))
	res, err := sys.MonteCarlo(context.Background(), Options{Trials: 10, Seed: 9, Grid: []float64{1}})
	require.NoError(t, err)
	assert.Contains(t, res.String(), "series")
	assert.Contains(t, res.String(), "seed 9")
}
