package evaluation

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
)

// fakeProblem returns x and 1-x for a one-variable real genome and lets tests
// inject failures and delays.
type fakeProblem struct {
	delay    time.Duration
	fail     func(x float64) error
	value    func(x float64) framework.ObjectiveSpacePoint
	calls    atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
}

func (p *fakeProblem) Name() string { return "fake" }

func (p *fakeProblem) NumberOfObjectives() int { return 2 }

func (p *fakeProblem) Directions() framework.Directions { return nil }

func (p *fakeProblem) Evaluate(ctx context.Context, g framework.Genome) (framework.ObjectiveSpacePoint, float64, error) {
	p.calls.Add(1)
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		m := p.maxSeen.Load()
		if n <= m || p.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}

	x := g.(*framework.RealGenome).Variables[0]
	if p.fail != nil {
		if err := p.fail(x); err != nil {
			return nil, 0, err
		}
	}
	if p.value != nil {
		return p.value(x), 0, nil
	}
	return framework.ObjectiveSpacePoint{x, 1 - x}, 0, nil
}

func batch(n int) []*framework.Solution {
	out := make([]*framework.Solution, n)
	for i := range out {
		out[i] = framework.NewSolution(framework.NewRealGenome([]float64{float64(i) / float64(n)}, nil))
	}
	return out
}

func requireUnevaluated(t *testing.T, solutions []*framework.Solution) {
	t.Helper()
	for _, s := range solutions {
		require.False(t, s.Evaluated())
	}
}

func testContext(t *testing.T) context.Context {
	return klog.NewContext(context.Background(), testr.New(t))
}

func TestEvaluateAll(t *testing.T) {
	p := &fakeProblem{delay: time.Millisecond}
	e := NewEvaluator(p, 3, 0)
	sols := batch(20)

	n, err := e.EvaluateAll(testContext(t), sols)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	for i, s := range sols {
		x := float64(i) / 20
		assert.Equal(t, framework.ObjectiveSpacePoint{x, 1 - x}, s.Value)
	}
	assert.LessOrEqual(t, p.maxSeen.Load(), int64(3))

	// Evaluated solutions are skipped.
	n, err = e.EvaluateAll(testContext(t), sols)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(20), p.calls.Load())
}

func TestEvaluateAllIsAllOrNothing(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		problem *fakeProblem
		wantErr error
	}{
		{
			name: "evaluator error",
			problem: &fakeProblem{fail: func(x float64) error {
				if x == 0.5 {
					return boom
				}
				return nil
			}},
			wantErr: boom,
		},
		{
			name: "nan objective",
			problem: &fakeProblem{value: func(x float64) framework.ObjectiveSpacePoint {
				if x == 0.25 {
					return framework.ObjectiveSpacePoint{math.NaN(), 0}
				}
				return framework.ObjectiveSpacePoint{x, x}
			}},
			wantErr: ErrInvalidEvaluation,
		},
		{
			name: "wrong number of objectives",
			problem: &fakeProblem{value: func(x float64) framework.ObjectiveSpacePoint {
				return framework.ObjectiveSpacePoint{x}
			}},
			wantErr: ErrInvalidEvaluation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sols := batch(4)
			_, err := NewEvaluator(tt.problem, 2, 0).EvaluateAll(testContext(t), sols)
			require.ErrorIs(t, err, tt.wantErr)
			requireUnevaluated(t, sols)
		})
	}
}

func TestEvaluateAllTimeout(t *testing.T) {
	p := &fakeProblem{delay: time.Second}
	sols := batch(4)

	_, err := NewEvaluator(p, 4, 20*time.Millisecond).EvaluateAll(testContext(t), sols)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	requireUnevaluated(t, sols)
}

func TestEvaluateAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()
	sols := batch(4)

	_, err := NewEvaluator(&fakeProblem{}, 1, 0).EvaluateAll(ctx, sols)
	require.ErrorIs(t, err, context.Canceled)
	requireUnevaluated(t, sols)
}

func TestCache(t *testing.T) {
	p := &fakeProblem{}
	c := NewCache(p, 0)
	assert.Equal(t, "fake", c.Name())
	assert.Equal(t, 2, c.NumberOfObjectives())

	g := framework.NewRealGenome([]float64{0.25}, nil)
	v1, _, err := c.Evaluate(context.Background(), g)
	require.NoError(t, err)
	v2, _, err := c.Evaluate(context.Background(), g.Clone())
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(1), p.calls.Load())
	assert.Equal(t, int64(1), c.Hits())
	assert.Equal(t, int64(1), c.Misses())
	assert.Equal(t, 1, c.Len())

	// Cached vectors are handed out as copies.
	v2[0] = 99
	v3, _, err := c.Evaluate(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, 0.25, v3[0])
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	boom := errors.New("boom")
	p := &fakeProblem{fail: func(float64) error { return boom }}
	c := NewCache(p, time.Minute)

	g := framework.NewRealGenome([]float64{0.5}, nil)
	for i := 0; i < 2; i++ {
		_, _, err := c.Evaluate(context.Background(), g)
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, int64(2), p.calls.Load())
	assert.Zero(t, c.Len())
}
