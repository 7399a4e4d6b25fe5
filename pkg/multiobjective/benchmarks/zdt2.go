package benchmarks

import (
	"context"
	"math"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
)

// ZDT2 has a non-convex Pareto front
type ZDT2 struct {
	numVars int
}

var _ Benchmark = &ZDT2{}

func NewZDT2(numVars int) *ZDT2 {
	return &ZDT2{numVars: numVars}
}

func (p *ZDT2) Name() string {
	return "ZDT2"
}

func (p *ZDT2) NumberOfObjectives() int {
	return 2
}

func (p *ZDT2) Directions() framework.Directions {
	return nil
}

func (p *ZDT2) ObjectiveFuncs() []framework.ObjectiveFunc {
	return []framework.ObjectiveFunc{p.f1, p.f2}
}

func (p *ZDT2) f1(x framework.Genome) float64 {
	return x.(*framework.RealGenome).Variables[0]
}

func (p *ZDT2) f2(x framework.Genome) float64 {
	xx := x.(*framework.RealGenome).Variables
	g := zdtG(xx)
	// ZDT2 uses (1 - (x1/g)^2) instead of sqrt
	return g * (1.0 - math.Pow(xx[0]/g, 2))
}

func (p *ZDT2) Constraints() []framework.Constraint {
	return nil
}

func (p *ZDT2) Evaluate(ctx context.Context, g framework.Genome) (framework.ObjectiveSpacePoint, float64, error) {
	return evaluate(ctx, p, g)
}

func (p *ZDT2) Bounds() []framework.Bounds {
	return unitBounds(p.numVars)
}

func (p *ZDT2) TrueParetoFront(numPoints int) []framework.ObjectiveSpacePoint {
	points := make([]framework.ObjectiveSpacePoint, numPoints)
	for i := 0; i < numPoints; i++ {
		x := float64(i) / float64(numPoints-1)
		points[i] = framework.ObjectiveSpacePoint{x, 1.0 - x*x}
	}
	return points
}
