package framework

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrAlreadyEvaluated is returned when an objective vector is assigned to a
// solution that has already been evaluated.
var ErrAlreadyEvaluated = errors.New("solution already evaluated")

// ObjectiveSpacePoint represents an N-dimensional point in the objective space.
// As an example, for a problem with 2 objective functions f1 and f2, a point
// in the objective space could be [f1(x'), f2(x')], for the input of x'.
type ObjectiveSpacePoint []float64

// Direction tells whether an objective is minimized or maximized.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

func (d Direction) String() string {
	switch d {
	case Minimize:
		return "minimize"
	case Maximize:
		return "maximize"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Directions holds the optimization direction of every objective.
// A nil or short slice means the missing objectives are minimized.
type Directions []Direction

func (d Directions) at(i int) Direction {
	if i < len(d) {
		return d[i]
	}
	return Minimize
}

// Normalize returns a copy of p in minimization form: maximized objectives
// are negated so that smaller is always better.
func (d Directions) Normalize(p ObjectiveSpacePoint) ObjectiveSpacePoint {
	out := make(ObjectiveSpacePoint, len(p))
	for i, v := range p {
		if d.at(i) == Maximize {
			out[i] = -v
		} else {
			out[i] = v
		}
	}
	return out
}

// Genome is the decision vector of a solution. Its encoding is opaque to the
// engine; only variation operators and problems look inside.
type Genome interface {
	Clone() Genome
}

// Keyer is implemented by genomes that can produce a stable identity key,
// used to memoize evaluations.
type Keyer interface {
	Key() string
}

// Solution couples a decision vector with its evaluation result and the
// ranking metadata assigned by the population that currently owns it.
type Solution struct {
	Genome Genome
	// Value is the objective vector. It is nil until the solution is evaluated.
	Value ObjectiveSpacePoint
	// Violation is the aggregated constraint violation, 0 when feasible.
	Violation float64

	// Rank is the index of the non-dominated front, 0 being the best.
	Rank int
	// Distance is the crowding distance within the front.
	Distance float64
}

func NewSolution(g Genome) *Solution {
	return &Solution{Genome: g}
}

// Evaluated reports whether the objective vector has been set.
func (s *Solution) Evaluated() bool {
	return s.Value != nil
}

// Feasible reports whether the solution violates no constraint.
func (s *Solution) Feasible() bool {
	return s.Violation == 0
}

// SetEvaluation stores the objective vector and constraint violation.
// It can only be called once per solution.
func (s *Solution) SetEvaluation(value ObjectiveSpacePoint, violation float64) error {
	if s.Evaluated() {
		return ErrAlreadyEvaluated
	}
	if err := ValidateEvaluation(value, violation); err != nil {
		return err
	}
	s.Value = append(ObjectiveSpacePoint(nil), value...)
	s.Violation = violation
	return nil
}

// Copy returns an independent copy: the genome is cloned and the objective
// vector duplicated, so mutating one never affects the other.
func (s *Solution) Copy() *Solution {
	c := &Solution{
		Violation: s.Violation,
		Rank:      s.Rank,
		Distance:  s.Distance,
	}
	if s.Genome != nil {
		c.Genome = s.Genome.Clone()
	}
	if s.Value != nil {
		c.Value = append(ObjectiveSpacePoint(nil), s.Value...)
	}
	return c
}

// ValidateEvaluation rejects objective vectors and violations a misbehaving
// evaluator may produce: NaN or infinite values, negative violations.
func ValidateEvaluation(value ObjectiveSpacePoint, violation float64) error {
	if len(value) == 0 {
		return errors.New("empty objective vector")
	}
	for i, v := range value {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("objective %d is not finite: %v", i, v)
		}
	}
	if math.IsNaN(violation) || math.IsInf(violation, 0) || violation < 0 {
		return fmt.Errorf("constraint violation must be finite and >= 0, got %v", violation)
	}
	return nil
}

// Problem describes the contract a specific multi-objective problem needs to implement.
type Problem interface {
	Name() string
	NumberOfObjectives() int
	// Directions may return nil when every objective is minimized.
	Directions() Directions
	// Evaluate computes the objective vector and the aggregated constraint
	// violation of a decision vector. It must be safe for concurrent use.
	Evaluate(ctx context.Context, g Genome) (ObjectiveSpacePoint, float64, error)
}

// Variation produces offspring from a fixed number of parents.
type Variation interface {
	// Arity is the number of parents Evolve expects.
	Arity() int
	// Evolve returns zero or more unevaluated children.
	Evolve(parents []*Solution) []*Solution
}

// Initialization produces the decision vectors of the starting population.
type Initialization interface {
	Initialize(n int) []Genome
}

// InitializationFunc adapts a function to the Initialization interface.
type InitializationFunc func(n int) []Genome

func (f InitializationFunc) Initialize(n int) []Genome {
	return f(n)
}

// Algorithm describes the contract that a MOO algorithm needs to implement.
type Algorithm interface {
	Name() string
	Step(ctx context.Context) error
	Result() []*Solution
}
