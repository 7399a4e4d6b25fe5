package framework

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ObjectiveFunc computes a single objective of a decision vector.
type ObjectiveFunc func(Genome) float64

// Constraint returns how much a decision vector violates a constraint.
// 0 means the constraint is satisfied.
type Constraint func(Genome) float64

// BinaryGenome uses a binary encoding scheme, where each bit
// or group of bits can have a meaning in the context of the problem.
type BinaryGenome struct {
	Bits []bool
}

func NewBinaryGenome(bits []bool) *BinaryGenome {
	return &BinaryGenome{
		Bits: bits,
	}
}

func (g *BinaryGenome) Clone() Genome {
	newBits := make([]bool, len(g.Bits))
	copy(newBits, g.Bits)
	return &BinaryGenome{
		Bits: newBits,
	}
}

func (g *BinaryGenome) Key() string {
	var b strings.Builder
	b.Grow(len(g.Bits))
	for _, bit := range g.Bits {
		if bit {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// RealGenome represents a decision vector with real-valued variables.
type RealGenome struct {
	Variables []float64
	Bounds    []Bounds
}

type Bounds struct {
	L float64
	H float64
}

// Clamp limits v to the interval [b.L, b.H].
func (b Bounds) Clamp(v float64) float64 {
	if v < b.L {
		return b.L
	}
	if v > b.H {
		return b.H
	}
	return v
}

func NewRealGenome(vars []float64, b []Bounds) *RealGenome {
	return &RealGenome{
		Variables: vars,
		Bounds:    b,
	}
}

// Clone copies the variables. Bounds are shared since they never change
// during a run.
func (g *RealGenome) Clone() Genome {
	vars := make([]float64, len(g.Variables))
	copy(vars, g.Variables)
	return &RealGenome{
		Variables: vars,
		Bounds:    g.Bounds,
	}
}

func (g *RealGenome) Key() string {
	parts := make([]string, len(g.Variables))
	for i, v := range g.Variables {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// FuncProblem builds a Problem out of plain objective and constraint
// functions. The constraint violation is the sum of all contributions.
type FuncProblem struct {
	ProblemName    string
	ObjectiveFuncs []ObjectiveFunc
	Constraints    []Constraint
	Dirs           Directions
}

var _ Problem = &FuncProblem{}

func (p *FuncProblem) Name() string {
	return p.ProblemName
}

func (p *FuncProblem) NumberOfObjectives() int {
	return len(p.ObjectiveFuncs)
}

func (p *FuncProblem) Directions() Directions {
	return p.Dirs
}

func (p *FuncProblem) Evaluate(ctx context.Context, g Genome) (ObjectiveSpacePoint, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if g == nil {
		return nil, 0, fmt.Errorf("%s: nil genome", p.ProblemName)
	}

	violation := 0.0
	for _, c := range p.Constraints {
		violation += c(g)
	}

	res := make(ObjectiveSpacePoint, len(p.ObjectiveFuncs))
	for i, objFunc := range p.ObjectiveFuncs {
		res[i] = objFunc(g)
	}
	return res, violation, nil
}
