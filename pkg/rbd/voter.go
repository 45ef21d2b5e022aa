package rbd

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// Voter is an M-out-of-N redundancy group: N replicas of one source, of
// which at least M must be alive for the group to be alive.
type Voter struct {
	name   string
	source LifetimeSource
	m, n   int
}

// NewVoter builds an m-out-of-n group over source. 1 <= m <= n is required.
func NewVoter(source LifetimeSource, m, n int) (*Voter, error) {
	if source == nil {
		return nil, NewError("NewVoter").Entity("voter").Configuration().Context("source is nil").Err()
	}
	name := fmt.Sprintf("%s[%d/%d]", source.Name(), m, n)
	if n < 1 || m < 1 || m > n {
		return nil, NewError("NewVoter").Voter(name).Numerical().
			Context("need 1 <= M <= N, got M=%d N=%d", m, n).Err()
	}
	return &Voter{name: name, source: source, m: m, n: n}, nil
}

// WithName returns a copy of v registered under name.
func (v *Voter) WithName(name string) *Voter {
	out := *v
	out.name = name
	return &out
}

func (v *Voter) Name() string           { return v.name }
func (v *Voter) M() int                 { return v.m }
func (v *Voter) N() int                 { return v.n }
func (v *Voter) Source() LifetimeSource { return v.source }

// TimeToFailureSample draws N replica lifetimes and returns the instant the
// group drops below M alive replicas: the (N-M+1)-th smallest draw.
func (v *Voter) TimeToFailureSample(rng *rand.Rand) (float64, error) {
	replicas := v.source.SampleFailureTime(rng, v.n)
	if len(replicas) != v.n {
		return 0, NewError("TimeToFailureSample").Voter(v.name).Numerical().
			Context("source returned %d replica lifetimes, want %d", len(replicas), v.n).Err()
	}
	for i, x := range replicas {
		if x < 0 || math.IsNaN(x) {
			return x, NewError("TimeToFailureSample").Voter(v.name).Numerical().
				Context("replica %d lifetime is %v", i, x).Err()
		}
	}
	sort.Float64s(replicas)
	return replicas[v.n-v.m], nil
}

// SampleFailureTime returns size independent group failure times. A draw
// whose replicas were invalid carries the offending value so the evaluator
// rejects the run.
func (v *Voter) SampleFailureTime(rng *rand.Rand, size int) []float64 {
	out := make([]float64, size)
	for i := range out {
		x, err := v.TimeToFailureSample(rng)
		if err != nil && !(x < 0 || math.IsNaN(x)) {
			x = math.NaN()
		}
		out[i] = x
	}
	return out
}

// Reliability returns P(at least M of N replicas survive t), computed from
// the replica survival function. It returns an error when the source has
// no analytic survival function.
func (v *Voter) Reliability(t float64) (float64, error) {
	model, ok := v.source.(reliabilityModel)
	if !ok {
		return 0, fmt.Errorf("voter %q: %w", v.name, errNoReliability)
	}
	r := model.Reliability(t)
	total := 0.0
	for k := v.m; k <= v.n; k++ {
		total += binomial(v.n, k) * math.Pow(r, float64(k)) * math.Pow(1-r, float64(v.n-k))
	}
	return total, nil
}

func (v *Voter) String() string {
	return v.name
}

func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	c := 1.0
	for i := 1; i <= k; i++ {
		c = c * float64(n-k+i) / float64(i)
	}
	return c
}
