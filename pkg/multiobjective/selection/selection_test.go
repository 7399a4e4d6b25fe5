package selection

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/population"
)

type recordingComparator struct {
	drawn []*framework.Solution
	inner framework.Comparator
}

func (r *recordingComparator) Compare(a, b *framework.Solution) int {
	r.drawn = append(r.drawn, a, b)
	return r.inner.Compare(a, b)
}

func newPopulation(t *testing.T, points ...[]float64) *population.Population {
	t.Helper()
	pop := population.New(nil)
	for _, p := range points {
		s := framework.NewSolution(framework.NewRealGenome(p, nil))
		require.NoError(t, s.SetEvaluation(p, 0))
		pop.Add(s)
	}
	return pop
}

func TestTournamentPoolNoReplacementWithinRound(t *testing.T) {
	pop := newPopulation(t, []float64{1, 5}, []float64{2, 4}, []float64{3, 3}, []float64{4, 2}, []float64{5, 1})
	pool := NewTournamentPool(rand.New(rand.NewPCG(42, 42)), nil)
	rec := &recordingComparator{inner: pool.comparator}
	pool.comparator = rec

	for i := 0; i < 3; i++ {
		parents, err := pool.Select(2, pop)
		require.NoError(t, err)
		require.Len(t, parents, 2)
	}
	require.Len(t, rec.drawn, 12)

	// Entries come in rounds of a full shuffled population.
	for start := 0; start < len(rec.drawn); start += pop.Size() {
		end := min(start+pop.Size(), len(rec.drawn))
		seen := map[*framework.Solution]bool{}
		for _, s := range rec.drawn[start:end] {
			assert.False(t, seen[s], "solution drawn twice within a round")
			seen[s] = true
		}
	}
	assert.Equal(t, 3, pool.Len())
}

func TestTournamentPoolPrefersDominating(t *testing.T) {
	pop := newPopulation(t, []float64{0, 0}, []float64{1, 1})
	pool := NewTournamentPool(rand.New(rand.NewPCG(1, 1)), nil)

	for i := 0; i < 10; i++ {
		parents, err := pool.Select(1, pop)
		require.NoError(t, err)
		assert.Equal(t, framework.ObjectiveSpacePoint{0, 0}, parents[0].Value)
	}
}

func TestTournamentPoolIsReproducible(t *testing.T) {
	pop := newPopulation(t, []float64{1, 5}, []float64{2, 4}, []float64{3, 3}, []float64{4, 2}, []float64{5, 1}, []float64{6, 6})

	draw := func() []*framework.Solution {
		pool := NewTournamentPool(rand.New(rand.NewPCG(9, 9)), nil)
		var out []*framework.Solution
		for i := 0; i < 5; i++ {
			parents, err := pool.Select(3, pop)
			require.NoError(t, err)
			out = append(out, parents...)
		}
		return out
	}
	assert.Equal(t, draw(), draw())
}

func TestSelectionFailsFast(t *testing.T) {
	pop := newPopulation(t, []float64{1, 1})
	empty := population.New(nil)
	rng := rand.New(rand.NewPCG(1, 2))

	strategies := map[string]Strategy{
		"pool":       NewTournamentPool(rng, nil),
		"tournament": RandomTournament{Size: 2, Rand: rng},
		"func": Func(func(arity int, pop *population.Population) ([]*framework.Solution, error) {
			return pop.Solutions()[:1], nil
		}),
	}

	for name, s := range strategies {
		t.Run(name, func(t *testing.T) {
			_, err := s.Select(0, pop)
			assert.ErrorIs(t, err, ErrInvalidArity)
			_, err = s.Select(-1, pop)
			assert.ErrorIs(t, err, ErrInvalidArity)
			_, err = s.Select(1, empty)
			assert.ErrorIs(t, err, ErrEmptyPopulation)
			_, err = s.Select(1, nil)
			assert.ErrorIs(t, err, ErrEmptyPopulation)
		})
	}
}

func TestFuncChecksParentCount(t *testing.T) {
	pop := newPopulation(t, []float64{1, 1}, []float64{2, 2})
	f := Func(func(arity int, pop *population.Population) ([]*framework.Solution, error) {
		return pop.Solutions()[:1], nil
	})

	_, err := f.Select(2, pop)
	assert.Error(t, err)

	boom := errors.New("boom")
	failing := Func(func(int, *population.Population) ([]*framework.Solution, error) {
		return nil, boom
	})
	_, err = failing.Select(1, pop)
	assert.ErrorIs(t, err, boom)
}

func TestRandomTournamentPrefersRank(t *testing.T) {
	pop := newPopulation(t, []float64{0, 0}, []float64{1, 1}, []float64{2, 2})
	rt := RandomTournament{Size: 10, Rand: rand.New(rand.NewPCG(5, 5))}

	parents, err := rt.Select(4, pop)
	require.NoError(t, err)
	for _, p := range parents {
		// With 10 draws out of 3 the best is virtually always present.
		assert.LessOrEqual(t, p.Rank, 1)
	}
}

func TestDeque(t *testing.T) {
	var d deque
	for i := 0; i < 10; i++ {
		d.PushBack(&framework.Solution{Rank: i})
	}
	for i := 0; i < 7; i++ {
		assert.Equal(t, i, d.PopFront().Rank)
	}
	d.PushBack(&framework.Solution{Rank: 10})
	assert.Equal(t, 4, d.Len())
	for i := 7; i <= 10; i++ {
		assert.Equal(t, i, d.PopFront().Rank)
	}
	assert.Panics(t, func() { d.PopFront() })
}
