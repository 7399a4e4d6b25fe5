package selection

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/population"
)

var (
	ErrInvalidArity    = errors.New("arity must be greater than zero")
	ErrEmptyPopulation = errors.New("cannot select from an empty population")
)

// Strategy picks the parents handed to a variation operator.
type Strategy interface {
	Select(arity int, pop *population.Population) ([]*framework.Solution, error)
}

// Func adapts an externally supplied selection function to Strategy.
type Func func(arity int, pop *population.Population) ([]*framework.Solution, error)

func (f Func) Select(arity int, pop *population.Population) ([]*framework.Solution, error) {
	if err := validate(arity, pop); err != nil {
		return nil, err
	}
	parents, err := f(arity, pop)
	if err != nil {
		return nil, err
	}
	if len(parents) != arity {
		return nil, fmt.Errorf("selection returned %d parents, want %d", len(parents), arity)
	}
	return parents, nil
}

func validate(arity int, pop *population.Population) error {
	if arity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidArity, arity)
	}
	if pop == nil || pop.Size() == 0 {
		return ErrEmptyPopulation
	}
	return nil
}

// BinaryTournament returns the preferred of two solutions; ties go to a.
func BinaryTournament(a, b *framework.Solution, c framework.Comparator) *framework.Solution {
	if c.Compare(a, b) == framework.SecondPreferred {
		return b
	}
	return a
}

// TournamentPool implements binary tournament selection without replacement.
// Candidates are drawn from a pool that is refilled with a shuffled copy of
// the whole population whenever it runs low, so every member enters the pool
// exactly once per round.
//
// A pool belongs to a single generation: create a new one after the
// population changes. It is not safe for concurrent use.
type TournamentPool struct {
	rng        *rand.Rand
	comparator framework.Comparator
	pool       deque
}

var _ Strategy = &TournamentPool{}

// NewTournamentPool returns a pool that breaks tournaments with Pareto
// dominance and then crowding distance.
func NewTournamentPool(rng *rand.Rand, dirs framework.Directions) *TournamentPool {
	return &TournamentPool{
		rng:        rng,
		comparator: framework.NewTournamentComparator(dirs),
	}
}

// Len is the number of candidates left in the pool.
func (p *TournamentPool) Len() int {
	return p.pool.Len()
}

func (p *TournamentPool) Select(arity int, pop *population.Population) ([]*framework.Solution, error) {
	if err := validate(arity, pop); err != nil {
		return nil, err
	}

	members := pop.Solutions()
	for p.pool.Len() < 2*arity {
		p.rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		for _, s := range members {
			p.pool.PushBack(s)
		}
	}

	parents := make([]*framework.Solution, arity)
	for i := range parents {
		a := p.pool.PopFront()
		b := p.pool.PopFront()
		parents[i] = BinaryTournament(a, b, p.comparator)
	}
	return parents, nil
}

// RandomTournament selects each parent as the best of Size solutions drawn
// with replacement, comparing rank first and crowding distance second.
type RandomTournament struct {
	Size int
	Rand *rand.Rand
}

var _ Strategy = RandomTournament{}

func (t RandomTournament) Select(arity int, pop *population.Population) ([]*framework.Solution, error) {
	if err := validate(arity, pop); err != nil {
		return nil, err
	}
	k := t.Size
	if k < 2 {
		k = 2 // minimum tournament size
	}

	members := pop.Solutions()
	parents := make([]*framework.Solution, arity)
	for p := range parents {
		best := members[t.Rand.IntN(len(members))]
		for i := 1; i < k; i++ {
			contestant := members[t.Rand.IntN(len(members))]
			if contestant.Rank < best.Rank || (contestant.Rank == best.Rank && contestant.Distance > best.Distance) {
				best = contestant
			}
		}
		parents[p] = best
	}
	return parents, nil
}
