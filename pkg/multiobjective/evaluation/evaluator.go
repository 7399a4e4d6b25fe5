package evaluation

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
)

// ErrInvalidEvaluation wraps every contract violation of a Problem: wrong
// number of objectives, non-finite values or a negative violation.
var ErrInvalidEvaluation = errors.New("invalid evaluation result")

// Evaluator evaluates batches of solutions with a bounded number of workers.
type Evaluator struct {
	problem     framework.Problem
	parallelism int
	timeout     time.Duration
}

// NewEvaluator returns an evaluator for the problem. parallelism <= 0 uses
// one worker per CPU; timeout <= 0 means no deadline per batch.
func NewEvaluator(problem framework.Problem, parallelism int, timeout time.Duration) *Evaluator {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	return &Evaluator{
		problem:     problem,
		parallelism: parallelism,
		timeout:     timeout,
	}
}

func (e *Evaluator) Problem() framework.Problem {
	return e.problem
}

type result struct {
	value     framework.ObjectiveSpacePoint
	violation float64
}

// EvaluateAll evaluates every solution that has not been evaluated yet and
// blocks until all of them are done. It is all-or-nothing: if any evaluation
// fails, times out or is cancelled, no solution is modified.
// It returns the number of evaluations performed.
func (e *Evaluator) EvaluateAll(ctx context.Context, solutions []*framework.Solution) (int, error) {
	logger := klog.FromContext(ctx)

	pending := make([]int, 0, len(solutions))
	for i, s := range solutions {
		if !s.Evaluated() {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	results := make([]result, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for k, idx := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			value, violation, err := e.problem.Evaluate(gctx, solutions[idx].Genome)
			if err != nil {
				return fmt.Errorf("evaluating solution %d: %w", idx, err)
			}
			if len(value) != e.problem.NumberOfObjectives() {
				return fmt.Errorf("%w: solution %d has %d objectives, want %d",
					ErrInvalidEvaluation, idx, len(value), e.problem.NumberOfObjectives())
			}
			if err := framework.ValidateEvaluation(value, violation); err != nil {
				return fmt.Errorf("%w: solution %d: %v", ErrInvalidEvaluation, idx, err)
			}
			results[k] = result{value: value, violation: violation}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.V(2).Info("Discarding evaluation batch", "problem", e.problem.Name(), "size", len(pending), "err", err)
		return 0, err
	}
	// A cancellation that raced with the last evaluations still voids the batch.
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	for k, idx := range pending {
		if err := solutions[idx].SetEvaluation(results[k].value, results[k].violation); err != nil {
			return 0, fmt.Errorf("%w: solution %d: %v", ErrInvalidEvaluation, idx, err)
		}
	}

	logger.V(4).Info("Evaluated batch", "problem", e.problem.Name(), "size", len(pending), "elapsed", time.Since(start))
	return len(pending), nil
}
