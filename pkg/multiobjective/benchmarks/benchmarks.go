package benchmarks

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
)

// Benchmark is a synthetic problem with real-valued variables.
type Benchmark interface {
	framework.Problem

	ObjectiveFuncs() []framework.ObjectiveFunc
	Constraints() []framework.Constraint
	Bounds() []framework.Bounds

	// TrueParetoFront is optional due to the difficulty of finding the true front
	// in some types of problems. When there isn't a way to find the true front,
	// just return nil.
	TrueParetoFront(int) []framework.ObjectiveSpacePoint
}

// New returns the benchmark with the given name. numVars is ignored by
// problems with a fixed number of variables.
func New(name string, numVars int) (Benchmark, error) {
	if numVars <= 0 {
		return nil, fmt.Errorf("number of variables must be positive, got %d", numVars)
	}
	switch strings.ToUpper(name) {
	case "ZDT1":
		return NewZDT1(numVars), nil
	case "ZDT2":
		return NewZDT2(numVars), nil
	case "DTLZ2":
		if numVars < 2 {
			return nil, fmt.Errorf("DTLZ2 needs at least 2 variables, got %d", numVars)
		}
		return NewDTLZ2(numVars, 2), nil
	case "DTLZ2_3OBJ":
		if numVars < 3 {
			return nil, fmt.Errorf("DTLZ2 with 3 objectives needs at least 3 variables, got %d", numVars)
		}
		return NewDTLZ2(numVars, 3), nil
	case "SRN":
		return NewSRN(), nil
	default:
		return nil, fmt.Errorf("unknown benchmark %q", name)
	}
}

func evaluate(ctx context.Context, b Benchmark, g framework.Genome) (framework.ObjectiveSpacePoint, float64, error) {
	p := &framework.FuncProblem{
		ProblemName:    b.Name(),
		ObjectiveFuncs: b.ObjectiveFuncs(),
		Constraints:    b.Constraints(),
		Dirs:           b.Directions(),
	}
	return p.Evaluate(ctx, g)
}

func unitBounds(n int) []framework.Bounds {
	b := make([]framework.Bounds, n)
	for i := range n {
		b[i] = framework.Bounds{
			L: 0.0,
			H: 1.0,
		}
	}
	return b
}

// IGD is the inverted generational distance: the mean Euclidean distance from
// every point of the true front to its closest obtained point.
func IGD(obtained, trueFront []framework.ObjectiveSpacePoint) float64 {
	if len(trueFront) == 0 || len(obtained) == 0 {
		return math.Inf(1)
	}
	igd := 0.0
	for _, truePoint := range trueFront {
		minDist := math.Inf(1)
		for _, obtPoint := range obtained {
			minDist = math.Min(minDist, floats.Distance(truePoint, obtPoint, 2))
		}
		igd += minDist
	}
	return igd / float64(len(trueFront))
}

// Points extracts the objective vectors of the given solutions.
func Points(solutions []*framework.Solution) []framework.ObjectiveSpacePoint {
	points := make([]framework.ObjectiveSpacePoint, len(solutions))
	for i, s := range solutions {
		points[i] = s.Value
	}
	return points
}
