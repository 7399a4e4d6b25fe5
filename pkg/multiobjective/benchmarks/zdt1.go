package benchmarks

import (
	"context"
	"math"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
)

const (
	Name = "ZDT1"
)

// ZDT1 is a benchmark function used to test the correctness
// of multi-objective algorithms. For more details, check the article below:
// https://datacrayon.com/practical-evolutionary-algorithms/synthetic-objective-functions-and-zdt1/
type ZDT1 struct {
	numVars int
}

var _ Benchmark = &ZDT1{}

func NewZDT1(numVars int) *ZDT1 {
	return &ZDT1{
		numVars,
	}
}

func (p *ZDT1) Name() string {
	return Name
}

func (p *ZDT1) NumberOfObjectives() int {
	return 2
}

func (p *ZDT1) Directions() framework.Directions {
	return nil
}

func (p *ZDT1) ObjectiveFuncs() []framework.ObjectiveFunc {
	return []framework.ObjectiveFunc{
		p.f1, p.f2,
	}
}

// f1 is the first ZDT1 benchmark objective
func (p *ZDT1) f1(x framework.Genome) float64 {
	return x.(*framework.RealGenome).Variables[0]
}

// f2 is the second ZDT1 benchmark objective
func (p *ZDT1) f2(x framework.Genome) float64 {
	xx := x.(*framework.RealGenome).Variables
	g := zdtG(xx)
	return g * (1.0 - math.Sqrt(xx[0]/g))
}

// This is an unconstrained problem
func (p *ZDT1) Constraints() []framework.Constraint {
	return nil
}

func (p *ZDT1) Evaluate(ctx context.Context, g framework.Genome) (framework.ObjectiveSpacePoint, float64, error) {
	return evaluate(ctx, p, g)
}

func (p *ZDT1) Bounds() []framework.Bounds {
	return unitBounds(p.numVars)
}

// TrueParetoFront generates numPoints points on the true Pareto front for ZDT1
func (p *ZDT1) TrueParetoFront(numPoints int) []framework.ObjectiveSpacePoint {
	points := make([]framework.ObjectiveSpacePoint, numPoints)
	for i := 0; i < numPoints; i++ {
		x := float64(i) / float64(numPoints-1)
		points[i] = framework.ObjectiveSpacePoint{
			x, 1.0 - math.Sqrt(x),
		}
	}
	return points
}

func zdtG(xx []float64) float64 {
	g := 1.0
	for i := 1; i < len(xx); i++ {
		g += 9.0 * xx[i] / float64(len(xx)-1)
	}
	return g
}
