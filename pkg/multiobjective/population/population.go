package population

import (
	"math"
	"sort"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
)

// Population is an ordered collection of solutions that ranks itself with
// non-dominated sorting. Sorting is lazy: adding solutions only marks the
// population as modified, and ranks and crowding distances are recomputed
// the next time they are observed.
//
// A Population is not safe for concurrent use.
type Population struct {
	solutions  []*framework.Solution
	dominance  framework.Comparator
	directions framework.Directions
	modified   bool
}

// New returns a population that compares solutions with Pareto dominance
// under the given objective directions.
func New(dirs framework.Directions, solutions ...*framework.Solution) *Population {
	p := &Population{
		dominance:  framework.ParetoDominance{Directions: dirs},
		directions: dirs,
	}
	p.AddAll(solutions)
	return p
}

// Directions returns the objective directions the population ranks with.
func (p *Population) Directions() framework.Directions {
	return p.directions
}

func (p *Population) Size() int {
	return len(p.solutions)
}

func (p *Population) Add(s *framework.Solution) {
	p.solutions = append(p.solutions, s)
	p.modified = true
}

func (p *Population) AddAll(solutions []*framework.Solution) {
	if len(solutions) == 0 {
		return
	}
	p.solutions = append(p.solutions, solutions...)
	p.modified = true
}

// Solutions returns the held solutions with up-to-date ranks and crowding
// distances. The returned slice is a copy; the solutions are not.
func (p *Population) Solutions() []*framework.Solution {
	p.update()
	out := make([]*framework.Solution, len(p.solutions))
	copy(out, p.solutions)
	return out
}

// ParetoFront returns the solutions of rank 0.
func (p *Population) ParetoFront() []*framework.Solution {
	return p.Front(0)
}

// Front returns the solutions with the given rank.
func (p *Population) Front(rank int) []*framework.Solution {
	p.update()
	var front []*framework.Solution
	for _, s := range p.solutions {
		if s.Rank == rank {
			front = append(front, s)
		}
	}
	return front
}

func (p *Population) update() {
	if p.modified {
		p.NonDominatedSort()
	}
}

// NonDominatedSort partitions the population into fronts, assigns every
// solution its rank and computes crowding distances per front.
func (p *Population) NonDominatedSort() [][]*framework.Solution {
	fronts := NonDominatedSort(p.solutions, p.dominance)
	for _, front := range fronts {
		AssignCrowdingDistance(front)
	}
	p.modified = false
	return fronts
}

// Truncate shrinks the population to targetSize by keeping whole fronts in
// rank order and filling the remaining slots from the next front by
// descending crowding distance.
func (p *Population) Truncate(targetSize int) {
	if targetSize < 0 {
		targetSize = 0
	}
	if len(p.solutions) <= targetSize {
		return
	}

	fronts := p.NonDominatedSort()
	kept := make([]*framework.Solution, 0, targetSize)
	for _, front := range fronts {
		remaining := targetSize - len(kept)
		if remaining == 0 {
			break
		}
		if len(front) <= remaining {
			kept = append(kept, front...)
			continue
		}

		last := make([]*framework.Solution, len(front))
		copy(last, front)
		sort.SliceStable(last, func(i, j int) bool {
			return last[i].Distance > last[j].Distance
		})
		kept = append(kept, last[:remaining]...)
	}

	for i := range p.solutions {
		p.solutions[i] = nil
	}
	p.solutions = kept
	// Crowding of the partially kept front was computed over the whole front.
	p.modified = true
}

// NonDominatedSort performs fast non-dominated sorting on the given solutions.
// Rank is assigned to every solution and the fronts are returned in rank
// order; solutions keep their relative input order within a front.
func NonDominatedSort(population []*framework.Solution, c framework.Comparator) [][]*framework.Solution {
	if len(population) == 0 {
		return nil
	}

	dominated := make([][]int, len(population))
	domCount := make([]int, len(population))

	// Calculate domination for each solution
	for i := 0; i < len(population); i++ {
		for j := i + 1; j < len(population); j++ {
			switch c.Compare(population[i], population[j]) {
			case framework.FirstPreferred:
				dominated[i] = append(dominated[i], j)
				domCount[j]++
			case framework.SecondPreferred:
				dominated[j] = append(dominated[j], i)
				domCount[i]++
			}
		}
	}

	// Find first front
	var currentFront []int
	for i := range population {
		if domCount[i] == 0 {
			currentFront = append(currentFront, i)
		}
	}

	var fronts [][]*framework.Solution
	for rank := 0; len(currentFront) > 0; rank++ {
		sort.Ints(currentFront)
		front := make([]*framework.Solution, len(currentFront))
		var nextFront []int
		for k, idx := range currentFront {
			population[idx].Rank = rank
			front[k] = population[idx]
			for _, dominatedIdx := range dominated[idx] {
				domCount[dominatedIdx]--
				if domCount[dominatedIdx] == 0 {
					nextFront = append(nextFront, dominatedIdx)
				}
			}
		}
		fronts = append(fronts, front)
		currentFront = nextFront
	}

	return fronts
}

// AssignCrowdingDistance calculates crowding distance for the solutions of
// a single front. The front slice itself is not reordered.
func AssignCrowdingDistance(front []*framework.Solution) {
	if len(front) <= 2 {
		for i := range front {
			front[i].Distance = math.Inf(1)
		}
		return
	}

	for i := range front {
		front[i].Distance = 0
	}

	sorted := make([]*framework.Solution, len(front))
	copy(sorted, front)
	n := len(sorted)
	numObjectives := len(front[0].Value)

	for m := 0; m < numObjectives; m++ {
		// Sort by each objective
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Value[m] < sorted[j].Value[m]
		})

		// Set boundary points to infinity
		sorted[0].Distance = math.Inf(1)
		sorted[n-1].Distance = math.Inf(1)

		objectiveRange := sorted[n-1].Value[m] - sorted[0].Value[m]
		if objectiveRange == 0 {
			continue
		}

		// Calculate distance for intermediate points
		for i := 1; i < n-1; i++ {
			sorted[i].Distance += (sorted[i+1].Value[m] - sorted[i-1].Value[m]) / objectiveRange
		}
	}
}
