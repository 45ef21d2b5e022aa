package estimate

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestAccumulator_MeanAndExtrema(t *testing.T) {
	acc := NewAccumulator(nil)
	for _, x := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		acc.Add(x)
	}

	if acc.Count() != 8 {
		t.Errorf("Count() = %d, want 8", acc.Count())
	}
	if acc.Mean() != 5 {
		t.Errorf("Mean() = %v, want 5", acc.Mean())
	}
	if want := 32.0 / 7.0; math.Abs(acc.Variance()-want) > 1e-12 {
		t.Errorf("Variance() = %v, want %v", acc.Variance(), want)
	}
	if acc.Min() != 2 || acc.Max() != 9 {
		t.Errorf("Min/Max = %v/%v, want 2/9", acc.Min(), acc.Max())
	}
}

func TestAccumulator_Empty(t *testing.T) {
	acc := NewAccumulator([]float64{0, 1})
	if !math.IsNaN(acc.Mean()) {
		t.Errorf("Mean() of empty accumulator = %v, want NaN", acc.Mean())
	}
	if !math.IsInf(acc.RelativeHalfWidth(1.96), 1) {
		t.Errorf("RelativeHalfWidth() of empty accumulator = %v, want +Inf", acc.RelativeHalfWidth(1.96))
	}
	for i, s := range acc.Survival() {
		if s != 0 {
			t.Errorf("Survival()[%d] = %v, want 0", i, s)
		}
	}
}

func TestAccumulator_Survival(t *testing.T) {
	grid := []float64{0, 1, 2, 3}
	acc := NewAccumulator(grid)
	samples := []float64{0, 0.5, 1, 2.5, 10}
	for _, x := range samples {
		acc.Add(x)
	}

	got := acc.Survival()
	for i, g := range grid {
		alive := 0
		for _, x := range samples {
			if x > g {
				alive++
			}
		}
		want := float64(alive) / float64(len(samples))
		if got[i] != want {
			t.Errorf("Survival at t=%v = %v, want %v", g, got[i], want)
		}
	}
}

func TestAccumulator_Censored(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Add(1)
	acc.AddCensored(3)
	if acc.Censored() != 1 || acc.Count() != 2 {
		t.Errorf("Censored/Count = %d/%d, want 1/2", acc.Censored(), acc.Count())
	}
}

func TestAccumulator_MergeMatchesSequential(t *testing.T) {
	grid := Linspace(0, 10, 11)
	rng := rand.New(rand.NewPCG(5, 5))

	whole := NewAccumulator(grid)
	parts := []*Accumulator{NewAccumulator(grid), NewAccumulator(grid), NewAccumulator(grid)}
	for i := 0; i < 3000; i++ {
		x := rng.ExpFloat64() * 4
		whole.Add(x)
		parts[i%3].Add(x)
	}

	merged := NewAccumulator(grid)
	for _, p := range parts {
		merged.Merge(p)
	}

	if merged.Count() != whole.Count() {
		t.Fatalf("Count() = %d, want %d", merged.Count(), whole.Count())
	}
	if math.Abs(merged.Mean()-whole.Mean()) > 1e-9 {
		t.Errorf("Mean() = %v, want %v", merged.Mean(), whole.Mean())
	}
	if math.Abs(merged.Variance()-whole.Variance()) > 1e-6 {
		t.Errorf("Variance() = %v, want %v", merged.Variance(), whole.Variance())
	}
	if merged.Min() != whole.Min() || merged.Max() != whole.Max() {
		t.Errorf("extrema differ: %v/%v vs %v/%v", merged.Min(), merged.Max(), whole.Min(), whole.Max())
	}
	ws, ms := whole.Survival(), merged.Survival()
	for i := range ws {
		if ws[i] != ms[i] {
			t.Errorf("Survival()[%d] = %v, want %v", i, ms[i], ws[i])
		}
	}
}

func TestAccumulator_SurvivalNonIncreasingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	grid := Linspace(0, 100, 21)
	properties.Property("empirical survival never increases", prop.ForAll(
		func(samples []float64) bool {
			acc := NewAccumulator(grid)
			for _, x := range samples {
				acc.Add(x)
			}
			s := acc.Survival()
			for i := 1; i < len(s); i++ {
				if s[i] > s[i-1] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(0, 150)),
	))

	properties.TestingRun(t)
}

func TestValidateGrid(t *testing.T) {
	tests := []struct {
		name    string
		grid    []float64
		wantErr bool
	}{
		{"empty", nil, false},
		{"ascending", []float64{0, 1, 2}, false},
		{"repeated point", []float64{0, 1, 1}, true},
		{"descending", []float64{2, 1}, true},
		{"nan", []float64{0, math.NaN()}, true},
		{"infinite", []float64{0, math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGrid(tt.grid)
			if tt.wantErr && !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("ValidateGrid(%v) = %v, want ErrInvalidGrid", tt.grid, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateGrid(%v) unexpected error: %v", tt.grid, err)
			}
		})
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(0, 50000, 5)
	want := []float64{0, 12500, 25000, 37500, 50000}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Linspace[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if len(Linspace(0, 1, 0)) != 0 {
		t.Error("Linspace with n=0 should be empty")
	}
	if one := Linspace(3, 9, 1); len(one) != 1 || one[0] != 3 {
		t.Errorf("Linspace with n=1 = %v, want [3]", one)
	}
}
