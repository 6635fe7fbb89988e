package vector

import (
	"fmt"
	"math/rand"
)

// Marginal is an independent normal distribution for one input coordinate.
type Marginal struct {
	Name   string
	Mean   float64
	StdDev float64
}

// Sampler draws Monte Carlo designs of experiments from independent
// per-coordinate normal marginals.
type Sampler struct {
	marginals []Marginal
	rng       *rand.Rand
}

func NewSampler(marginals []Marginal, seed int64) (*Sampler, error) {
	if len(marginals) == 0 {
		return nil, fmt.Errorf("sampler needs at least one marginal")
	}
	for _, m := range marginals {
		if m.StdDev < 0 {
			return nil, fmt.Errorf("marginal %q: stddev must be non-negative, got %f", m.Name, m.StdDev)
		}
	}
	return &Sampler{
		marginals: marginals,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

func (s *Sampler) Dimension() int { return len(s.marginals) }

// Draw generates a sample of n points. Deterministic for a given seed.
func (s *Sampler) Draw(n int) Sample {
	out := make(Sample, n)
	for i := range out {
		p := make(Point, len(s.marginals))
		for j, m := range s.marginals {
			p[j] = m.Mean + m.StdDev*s.rng.NormFloat64()
		}
		out[i] = p
	}
	return out
}
