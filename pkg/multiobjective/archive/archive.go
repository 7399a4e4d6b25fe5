package archive

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
)

var ErrInvalidEpsilon = errors.New("epsilon must be finite and greater than zero")

// Box identifies an epsilon grid cell: one index per objective.
type Box []int64

// Equal reports whether both boxes are the same grid cell.
func (b Box) Equal(o Box) bool {
	if len(b) != len(o) {
		return false
	}
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

// EpsilonBoxDominanceArchive keeps a bounded set of non-dominated solutions,
// at most one per occupied epsilon box. Solutions are copied on insertion so
// the archive never shares state with the population.
//
// It is not safe for concurrent use.
type EpsilonBoxDominanceArchive struct {
	epsilons   []float64
	directions framework.Directions
	members    []entry

	improvements           int
	dominatingImprovements int
}

type entry struct {
	solution *framework.Solution
	box      Box
	// normalized is the objective vector in minimization form.
	normalized framework.ObjectiveSpacePoint
}

// New creates an empty archive for solutions with numObjectives objectives.
// A single epsilon applies to every objective; otherwise there must be one
// epsilon per objective.
func New(epsilons []float64, numObjectives int, dirs framework.Directions) (*EpsilonBoxDominanceArchive, error) {
	if numObjectives <= 0 {
		return nil, fmt.Errorf("%w: archive needs at least one objective, got %d", ErrInvalidEpsilon, numObjectives)
	}
	if n := len(epsilons); n != 1 && n != numObjectives {
		return nil, fmt.Errorf("%w: got %d epsilons for %d objectives, need 1 or %d", ErrInvalidEpsilon, n, numObjectives, numObjectives)
	}
	for i, e := range epsilons {
		if math.IsNaN(e) || math.IsInf(e, 0) || e <= 0 {
			return nil, fmt.Errorf("%w: epsilon %d is %v", ErrInvalidEpsilon, i, e)
		}
	}
	eps := make([]float64, numObjectives)
	for i := range eps {
		eps[i] = epsilons[min(i, len(epsilons)-1)]
	}
	return &EpsilonBoxDominanceArchive{
		epsilons:   eps,
		directions: dirs,
	}, nil
}

// NumberOfObjectives returns the objective count the archive accepts.
func (a *EpsilonBoxDominanceArchive) NumberOfObjectives() int {
	return len(a.epsilons)
}

// Box returns the grid cell of an evaluated solution with
// NumberOfObjectives objectives.
func (a *EpsilonBoxDominanceArchive) Box(s *framework.Solution) Box {
	return a.box(a.directions.Normalize(s.Value))
}

// Box indices beyond the int64 range saturate, so ordering between boxes is
// preserved for very large objectives or tiny epsilons.
const (
	maxBoxIndex = float64(math.MaxInt64) // 2^63, not representable as int64
	minBoxIndex = float64(math.MinInt64)
)

func (a *EpsilonBoxDominanceArchive) box(normalized framework.ObjectiveSpacePoint) Box {
	b := make(Box, len(normalized))
	for i, v := range normalized {
		q := math.Floor(v / a.epsilons[i])
		switch {
		case math.IsNaN(q) || q >= maxBoxIndex:
			b[i] = math.MaxInt64
		case q <= minBoxIndex:
			b[i] = math.MinInt64
		default:
			b[i] = int64(q)
		}
	}
	return b
}

// cornerDistance is the Euclidean distance between a point and the lower
// corner of its box.
func (a *EpsilonBoxDominanceArchive) cornerDistance(e entry) float64 {
	corner := make([]float64, len(e.box))
	for i, idx := range e.box {
		corner[i] = float64(idx) * a.epsilons[i]
	}
	return floats.Distance(e.normalized, corner, 2)
}

// compareBoxes returns FirstPreferred when box x dominates box y,
// SecondPreferred for the reverse and Indifferent otherwise. same is true
// when both boxes are the same cell.
func compareBoxes(x, y Box) (result int, same bool) {
	xBetter, yBetter := false, false
	for i := range x {
		if x[i] < y[i] {
			xBetter = true
		} else if x[i] > y[i] {
			yBetter = true
		}
		if xBetter && yBetter {
			return framework.Indifferent, false
		}
	}
	switch {
	case xBetter:
		return framework.FirstPreferred, false
	case yBetter:
		return framework.SecondPreferred, false
	default:
		return framework.Indifferent, true
	}
}

// compare applies the constraint check, then epsilon-box dominance, and
// resolves collisions in the same box by Pareto dominance and then by
// distance to the box corner. Exact distance ties favor y, the existing
// member.
func (a *EpsilonBoxDominanceArchive) compare(x, y entry) (result int, sameBox bool) {
	if r := framework.CompareViolation(x.solution, y.solution); r != framework.Indifferent {
		return r, false
	}

	r, same := compareBoxes(x.box, y.box)
	if !same {
		return r, false
	}

	if r := (framework.ParetoDominance{}).Compare(
		&framework.Solution{Value: x.normalized},
		&framework.Solution{Value: y.normalized},
	); r != framework.Indifferent {
		return r, true
	}
	if a.cornerDistance(x) < a.cornerDistance(y) {
		return framework.FirstPreferred, true
	}
	return framework.SecondPreferred, true
}

// Add offers a solution to the archive and reports whether it was accepted.
// Unevaluated solutions and those with the wrong number of objectives are
// never accepted.
// An accepted solution is stored as an independent copy; every member it
// dominates, and the previous occupant of its box, are removed.
func (a *EpsilonBoxDominanceArchive) Add(s *framework.Solution) bool {
	if s == nil || !s.Evaluated() || len(s.Value) != len(a.epsilons) {
		return false
	}
	normalized := a.directions.Normalize(s.Value)
	candidate := entry{
		solution:   s,
		box:        a.box(normalized),
		normalized: normalized,
	}

	for _, m := range a.members {
		if r, _ := a.compare(candidate, m); r == framework.SecondPreferred {
			return false
		}
	}

	sameBox, dominates := false, false
	kept := a.members[:0]
	for _, m := range a.members {
		r, same := a.compare(candidate, m)
		if r == framework.FirstPreferred {
			if same {
				sameBox = true
			} else {
				dominates = true
			}
			continue
		}
		kept = append(kept, m)
	}
	for i := len(kept); i < len(a.members); i++ {
		a.members[i] = entry{}
	}

	candidate.solution = s.Copy()
	a.members = append(kept, candidate)

	if !sameBox {
		a.improvements++
	}
	if dominates {
		a.dominatingImprovements++
	}
	return true
}

// AddAll offers the solutions one at a time, in order, and returns how many
// were accepted.
func (a *EpsilonBoxDominanceArchive) AddAll(solutions []*framework.Solution) int {
	accepted := 0
	for _, s := range solutions {
		if a.Add(s) {
			accepted++
		}
	}
	return accepted
}

func (a *EpsilonBoxDominanceArchive) Size() int {
	return len(a.members)
}

// Solutions returns the archived solutions in insertion order. They are
// owned by the archive and must not be modified.
func (a *EpsilonBoxDominanceArchive) Solutions() []*framework.Solution {
	out := make([]*framework.Solution, len(a.members))
	for i, m := range a.members {
		out[i] = m.solution
	}
	return out
}

// Epsilons returns the per-objective box sizes the archive was built with.
func (a *EpsilonBoxDominanceArchive) Epsilons() []float64 {
	return append([]float64(nil), a.epsilons...)
}

// Improvements counts accepted solutions that did not just replace the
// occupant of their own box.
func (a *EpsilonBoxDominanceArchive) Improvements() int {
	return a.improvements
}

// DominatingImprovements counts accepted solutions that removed at least one
// box-dominated member.
func (a *EpsilonBoxDominanceArchive) DominatingImprovements() int {
	return a.dominatingImprovements
}
