package operators

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
)

var ErrInvalidOperator = errors.New("invalid variation operator")

// SBX performs simulated binary crossover on real-valued genomes.
type SBX struct {
	Rate              float64
	DistributionIndex float64
	Rand              *rand.Rand
}

var _ framework.Variation = &SBX{}

func (o *SBX) Arity() int { return 2 }

func (o *SBX) Evolve(parents []*framework.Solution) []*framework.Solution {
	p1 := parents[0].Genome.(*framework.RealGenome)
	p2 := parents[1].Genome.(*framework.RealGenome)
	child1 := p1.Clone().(*framework.RealGenome)
	child2 := p2.Clone().(*framework.RealGenome)

	if o.Rand.Float64() < o.Rate {
		exp := 1.0 / (o.DistributionIndex + 1.0)
		for i := range child1.Variables {
			beta := 0.0
			if u := o.Rand.Float64(); u <= 0.5 {
				beta = math.Pow(2*u, exp)
			} else {
				beta = math.Pow(1.0/(2*(1.0-u)), exp)
			}

			x1, x2 := p1.Variables[i], p2.Variables[i]
			child1.Variables[i] = 0.5 * ((1+beta)*x1 + (1-beta)*x2)
			child2.Variables[i] = 0.5 * ((1-beta)*x1 + (1+beta)*x2)

			// Bound checking
			if i < len(child1.Bounds) {
				child1.Variables[i] = child1.Bounds[i].Clamp(child1.Variables[i])
			}
			if i < len(child2.Bounds) {
				child2.Variables[i] = child2.Bounds[i].Clamp(child2.Variables[i])
			}
		}
	}

	return []*framework.Solution{framework.NewSolution(child1), framework.NewSolution(child2)}
}

// PolynomialMutation perturbs each real variable with probability Rate.
type PolynomialMutation struct {
	Rate              float64
	DistributionIndex float64
	Rand              *rand.Rand
}

var _ framework.Variation = &PolynomialMutation{}

func (o *PolynomialMutation) Arity() int { return 1 }

func (o *PolynomialMutation) Evolve(parents []*framework.Solution) []*framework.Solution {
	g := parents[0].Genome.Clone().(*framework.RealGenome)
	exp := 1.0 / (o.DistributionIndex + 1.0)

	for i := range g.Variables {
		if o.Rand.Float64() >= o.Rate || i >= len(g.Bounds) {
			continue
		}
		delta := 0.0
		if u := o.Rand.Float64(); u <= 0.5 {
			delta = math.Pow(2*u, exp) - 1
		} else {
			delta = 1 - math.Pow(2*(1-u), exp)
		}

		b := g.Bounds[i]
		g.Variables[i] = b.Clamp(g.Variables[i] + delta*(b.H-b.L))
	}

	return []*framework.Solution{framework.NewSolution(g)}
}

// SinglePointCrossover swaps the tails of two binary genomes.
type SinglePointCrossover struct {
	Rate float64
	Rand *rand.Rand
}

var _ framework.Variation = &SinglePointCrossover{}

func (o *SinglePointCrossover) Arity() int { return 2 }

func (o *SinglePointCrossover) Evolve(parents []*framework.Solution) []*framework.Solution {
	child1 := parents[0].Genome.Clone().(*framework.BinaryGenome)
	child2 := parents[1].Genome.Clone().(*framework.BinaryGenome)

	n := min(len(child1.Bits), len(child2.Bits))
	if n > 0 && o.Rand.Float64() < o.Rate {
		point := o.Rand.IntN(n)
		for i := point; i < n; i++ {
			child1.Bits[i], child2.Bits[i] = child2.Bits[i], child1.Bits[i]
		}
	}

	return []*framework.Solution{framework.NewSolution(child1), framework.NewSolution(child2)}
}

// BitFlip flips each bit with probability Rate.
type BitFlip struct {
	Rate float64
	Rand *rand.Rand
}

var _ framework.Variation = &BitFlip{}

func (o *BitFlip) Arity() int { return 1 }

func (o *BitFlip) Evolve(parents []*framework.Solution) []*framework.Solution {
	g := parents[0].Genome.Clone().(*framework.BinaryGenome)
	for i := range g.Bits {
		if o.Rand.Float64() < o.Rate {
			g.Bits[i] = !g.Bits[i]
		}
	}
	return []*framework.Solution{framework.NewSolution(g)}
}

// GA applies a crossover and then mutates every child it produced.
// The mutation operator must have arity 1; see Validate.
type GA struct {
	Crossover framework.Variation
	Mutation  framework.Variation
}

var _ framework.Variation = &GA{}

// NewGA combines crossover and mutation after checking their arities.
func NewGA(crossover, mutation framework.Variation) (*GA, error) {
	g := &GA{Crossover: crossover, Mutation: mutation}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate reports operators that Evolve could not chain.
func (o *GA) Validate() error {
	switch {
	case o.Crossover == nil || o.Mutation == nil:
		return fmt.Errorf("%w: crossover and mutation are required", ErrInvalidOperator)
	case o.Crossover.Arity() <= 0:
		return fmt.Errorf("%w: crossover arity must be positive, got %d", ErrInvalidOperator, o.Crossover.Arity())
	case o.Mutation.Arity() != 1:
		return fmt.Errorf("%w: mutation arity must be 1, got %d", ErrInvalidOperator, o.Mutation.Arity())
	}
	return nil
}

func (o *GA) Arity() int { return o.Crossover.Arity() }

func (o *GA) Evolve(parents []*framework.Solution) []*framework.Solution {
	children := o.Crossover.Evolve(parents)
	out := make([]*framework.Solution, 0, len(children))
	for _, c := range children {
		out = append(out, o.Mutation.Evolve([]*framework.Solution{c})...)
	}
	return out
}

// NewRealGA returns SBX followed by polynomial mutation with the usual
// NSGA-II settings for a problem with numVars variables.
func NewRealGA(rng *rand.Rand, numVars int) *GA {
	return &GA{
		Crossover: &SBX{Rate: 0.9, DistributionIndex: 15, Rand: rng},
		Mutation:  &PolynomialMutation{Rate: 1.0 / float64(numVars), DistributionIndex: 20, Rand: rng},
	}
}

// NewBinaryGA returns single-point crossover followed by bit flip mutation.
func NewBinaryGA(rng *rand.Rand, numBits int) *GA {
	return &GA{
		Crossover: &SinglePointCrossover{Rate: 0.9, Rand: rng},
		Mutation:  &BitFlip{Rate: 1.0 / float64(numBits), Rand: rng},
	}
}

// RandomRealInitialization draws every variable uniformly within its bounds.
func RandomRealInitialization(rng *rand.Rand, b []framework.Bounds) framework.Initialization {
	return framework.InitializationFunc(func(n int) []framework.Genome {
		out := make([]framework.Genome, n)
		for i := range out {
			vars := make([]float64, len(b))
			for j := range vars {
				vars[j] = b[j].L + rng.Float64()*(b[j].H-b[j].L)
			}
			out[i] = framework.NewRealGenome(vars, b)
		}
		return out
	})
}

// RandomBinaryInitialization draws every bit with probability one half.
func RandomBinaryInitialization(rng *rand.Rand, numBits int) framework.Initialization {
	return framework.InitializationFunc(func(n int) []framework.Genome {
		out := make([]framework.Genome, n)
		for i := range out {
			bits := make([]bool, numBits)
			for j := range bits {
				bits[j] = rng.IntN(2) == 1
			}
			out[i] = framework.NewBinaryGenome(bits)
		}
		return out
	})
}
