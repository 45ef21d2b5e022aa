package rbd

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/dd0wney/cluso-rbd/pkg/lifetime"
)

// meanTolerance is the relative tolerance when checking a distribution's
// mean against a component's nominal failure rate.
const meanTolerance = 1e-6

// LifetimeSource is the capability the engine samples. Components, voters
// and test doubles all satisfy it; the evaluator never looks further.
type LifetimeSource interface {
	Name() string
	SampleFailureTime(rng *rand.Rand, size int) []float64
}

// Component is a named block with a nominal failure rate and a lifetime
// distribution. Components are values once built: the With* methods return
// modified copies.
type Component struct {
	name   string
	lambda float64
	dist   lifetime.Distribution
	age    float64
}

// NewComponent creates a component whose lifetime is exponential with rate
// lambda. A zero rate describes a block that never fails.
func NewComponent(name string, lambda float64) (*Component, error) {
	if name == "" {
		return nil, NewError("NewComponent").Entity("block").Configuration().Context("name is empty").Err()
	}
	dist, err := lifetime.NewExponential(lambda)
	if err != nil {
		return nil, NewError("NewComponent").Block(name).Configuration().Context("%v", err).Err()
	}
	return &Component{name: name, lambda: lambda, dist: dist}, nil
}

// WithDistribution returns a copy of c using dist. When c has a positive
// failure rate, dist must have mean 1/lambda.
func (c *Component) WithDistribution(dist lifetime.Distribution) (*Component, error) {
	if dist == nil {
		return nil, NewError("WithDistribution").Block(c.name).Configuration().Context("distribution is nil").Err()
	}
	if c.lambda > 0 {
		want := 1.0 / c.lambda
		got := dist.Mean()
		if math.IsNaN(got) || math.Abs(got-want) > meanTolerance*want {
			return nil, NewError("WithDistribution").Block(c.name).Configuration().
				Context("distribution mean %g is inconsistent with failure rate %g (mean %g)", got, c.lambda, want).Err()
		}
	}
	out := *c
	out.dist = dist
	return &out, nil
}

// WithAge returns a copy of c that has already been in service for age.
// Its failure times are residual lives conditioned on surviving to age.
func (c *Component) WithAge(age float64) (*Component, error) {
	if age < 0 || math.IsNaN(age) || math.IsInf(age, 0) {
		return nil, NewError("WithAge").Block(c.name).Numerical().Context("age %v must be finite and non-negative", age).Err()
	}
	out := *c
	out.age = age
	return &out, nil
}

func (c *Component) Name() string                        { return c.name }
func (c *Component) Lambda() float64                     { return c.lambda }
func (c *Component) Age() float64                        { return c.age }
func (c *Component) Distribution() lifetime.Distribution { return c.dist }

// SampleFailureTime draws size failure times from the component's
// distribution, measured from now.
func (c *Component) SampleFailureTime(rng *rand.Rand, size int) []float64 {
	if c.age > 0 {
		return c.dist.SampleRemaining(rng, c.age, size)
	}
	return c.dist.Sample(rng, size)
}

// Reliability returns the probability that the component survives another
// t, given its age.
func (c *Component) Reliability(t float64) float64 {
	if c.age == 0 {
		return c.dist.Survival(t)
	}
	base := c.dist.Survival(c.age)
	if base == 0 {
		return 0
	}
	return c.dist.Survival(c.age+t) / base
}

// MTTF returns the mean lifetime of a new unit.
func (c *Component) MTTF() float64 {
	return c.dist.Mean()
}

func (c *Component) String() string {
	return c.name
}

// reliabilityModel is implemented by sources that know their own survival
// function.
type reliabilityModel interface {
	Reliability(t float64) float64
}

// errNoReliability is returned by analytic helpers for sources without a
// survival function.
var errNoReliability = errors.New("source has no analytic reliability")
