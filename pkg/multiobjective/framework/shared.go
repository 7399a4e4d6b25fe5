package framework

// Results of a Comparator.
const (
	FirstPreferred  = -1
	Indifferent     = 0
	SecondPreferred = 1
)

// Comparator orders two solutions. It returns FirstPreferred, Indifferent or
// SecondPreferred.
type Comparator interface {
	Compare(a, b *Solution) int
}

// ParetoDominance compares solutions by constraint violation first and
// Pareto dominance second.
type ParetoDominance struct {
	Directions Directions
}

var _ Comparator = ParetoDominance{}

func (c ParetoDominance) Compare(a, b *Solution) int {
	if r := CompareViolation(a, b); r != Indifferent {
		return r
	}

	aBetter, bBetter := false, false
	for i := 0; i < len(a.Value) && i < len(b.Value); i++ {
		av, bv := a.Value[i], b.Value[i]
		if c.Directions.at(i) == Maximize {
			av, bv = -av, -bv
		}
		if av < bv {
			aBetter = true
		} else if av > bv {
			bBetter = true
		}
		if aBetter && bBetter {
			return Indifferent
		}
	}

	switch {
	case aBetter:
		return FirstPreferred
	case bBetter:
		return SecondPreferred
	default:
		return Indifferent
	}
}

// CompareViolation prefers feasible solutions, and among infeasible ones the
// smaller violation.
func CompareViolation(a, b *Solution) int {
	switch {
	case a.Violation == b.Violation:
		return Indifferent
	case a.Violation == 0:
		return FirstPreferred
	case b.Violation == 0:
		return SecondPreferred
	case a.Violation < b.Violation:
		return FirstPreferred
	default:
		return SecondPreferred
	}
}

// CrowdingComparator prefers the solution with the larger crowding distance.
type CrowdingComparator struct{}

var _ Comparator = CrowdingComparator{}

func (CrowdingComparator) Compare(a, b *Solution) int {
	switch {
	case a.Distance > b.Distance:
		return FirstPreferred
	case a.Distance < b.Distance:
		return SecondPreferred
	default:
		return Indifferent
	}
}

// ChainedComparator applies comparators in order and returns the first
// non-indifferent result.
type ChainedComparator []Comparator

var _ Comparator = ChainedComparator{}

func (c ChainedComparator) Compare(a, b *Solution) int {
	for _, cmp := range c {
		if r := cmp.Compare(a, b); r != Indifferent {
			return r
		}
	}
	return Indifferent
}

// NewTournamentComparator returns Pareto dominance with a crowding distance
// fallback, the ordering used by NSGA-II binary tournaments.
func NewTournamentComparator(dirs Directions) Comparator {
	return ChainedComparator{ParetoDominance{Directions: dirs}, CrowdingComparator{}}
}

// Dominates checks if solution a is preferred to solution b under c.
func Dominates(c Comparator, a, b *Solution) bool {
	return c.Compare(a, b) == FirstPreferred
}
