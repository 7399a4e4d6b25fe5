package benchmarks

import (
	"context"
	"math"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
)

// SRN is Srinivas' constrained two-objective problem. Both variables lie in
// [-20, 20]; the feasible region is the part of a disc of radius 15 on one
// side of a line.
type SRN struct{}

var _ Benchmark = SRN{}

func NewSRN() SRN {
	return SRN{}
}

func (SRN) Name() string {
	return "SRN"
}

func (SRN) NumberOfObjectives() int {
	return 2
}

func (SRN) Directions() framework.Directions {
	return nil
}

func (SRN) ObjectiveFuncs() []framework.ObjectiveFunc {
	return []framework.ObjectiveFunc{
		func(g framework.Genome) float64 {
			x := g.(*framework.RealGenome).Variables
			return 2 + math.Pow(x[0]-2, 2) + math.Pow(x[1]-1, 2)
		},
		func(g framework.Genome) float64 {
			x := g.(*framework.RealGenome).Variables
			return 9*x[0] - math.Pow(x[1]-1, 2)
		},
	}
}

func (SRN) Constraints() []framework.Constraint {
	return []framework.Constraint{
		func(g framework.Genome) float64 {
			x := g.(*framework.RealGenome).Variables
			return math.Max(0, x[0]*x[0]+x[1]*x[1]-225)
		},
		func(g framework.Genome) float64 {
			x := g.(*framework.RealGenome).Variables
			return math.Max(0, x[0]-3*x[1]+10)
		},
	}
}

func (p SRN) Evaluate(ctx context.Context, g framework.Genome) (framework.ObjectiveSpacePoint, float64, error) {
	return evaluate(ctx, p, g)
}

func (SRN) Bounds() []framework.Bounds {
	return []framework.Bounds{{L: -20, H: 20}, {L: -20, H: 20}}
}

// The front of SRN has no closed form.
func (SRN) TrueParetoFront(int) []framework.ObjectiveSpacePoint {
	return nil
}
