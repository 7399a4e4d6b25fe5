package algorithms

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"k8s.io/klog/v2"

	"sigs.k8s.io/multiobjective/pkg/multiobjective/archive"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/evaluation"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/metrics"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/population"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/selection"
)

const (
	Name = "NSGA-II"

	// DefaultMaxVariationAttempts bounds the number of consecutive variation
	// calls that may return no children before a generation is abandoned.
	DefaultMaxVariationAttempts = 1000
)

var (
	ErrInvalidConfig    = errors.New("invalid NSGA-II configuration")
	ErrNotInitialized   = errors.New("population has not been initialized")
	ErrNoOffspring      = errors.New("variation produced no offspring")
	ErrInvalidOffspring = errors.New("variation returned an invalid child")
	ErrInvalidSelection = errors.New("selection returned the wrong parents")
)

// NSGA2Config holds configuration parameters for NSGA-II
type NSGA2Config struct {
	PopulationSize int
	// MaxVariationAttempts is the number of consecutive empty variation
	// results tolerated while building offspring. Zero means the default.
	MaxVariationAttempts int
	// Parallelism is the number of concurrent evaluations. Zero means one per CPU.
	Parallelism int
	// EvaluationTimeout bounds the evaluation of one batch. Zero means no limit.
	EvaluationTimeout time.Duration
	// Seed initializes the random source when none is injected with WithRand.
	Seed uint64
}

// Option customizes an NSGAII instance.
type Option func(*NSGAII)

// WithSelection replaces the binary tournament without replacement by an
// external selection strategy.
func WithSelection(s selection.Strategy) Option {
	return func(n *NSGAII) {
		n.selection = s
	}
}

// WithArchive attaches an epsilon-box dominance archive that receives every
// evaluated solution.
func WithArchive(a *archive.EpsilonBoxDominanceArchive) Option {
	return func(n *NSGAII) {
		n.archive = a
	}
}

// WithRand injects the random source used for parent selection.
func WithRand(rng *rand.Rand) Option {
	return func(n *NSGAII) {
		n.rng = rng
	}
}

// WithMetrics reports progress to the given collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(n *NSGAII) {
		n.metrics = m
	}
}

// WithEvaluator replaces the evaluator built from the configuration.
func WithEvaluator(e *evaluation.Evaluator) Option {
	return func(n *NSGAII) {
		n.evaluator = e
	}
}

// NSGAII implements NSGA-II with an optional epsilon-box dominance archive.
// Without an external selection strategy it selects parents with binary
// tournaments without replacement, as the original NSGA-II does.
//
// An NSGAII instance is not safe for concurrent use; only the evaluation of
// a batch runs in parallel.
type NSGAII struct {
	cfg            NSGA2Config
	problem        framework.Problem
	variation      framework.Variation
	initialization framework.Initialization

	population *population.Population
	archive    *archive.EpsilonBoxDominanceArchive
	evaluator  *evaluation.Evaluator
	metrics    *metrics.Metrics
	rng        *rand.Rand

	selection    selection.Strategy
	newSelection func() selection.Strategy

	initialized bool
	generation  int
	evaluations int
}

var _ framework.Algorithm = &NSGAII{}

// NewNSGAII creates a new instance of NSGA-II. Configuration errors and
// missing collaborators are reported here rather than on the first step.
func NewNSGAII(cfg NSGA2Config, problem framework.Problem, variation framework.Variation, initialization framework.Initialization, opts ...Option) (*NSGAII, error) {
	// Composite operators such as a GA check their parts before Arity is used.
	if v, ok := variation.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	switch {
	case problem == nil:
		return nil, fmt.Errorf("%w: problem is required", ErrInvalidConfig)
	case variation == nil:
		return nil, fmt.Errorf("%w: variation is required", ErrInvalidConfig)
	case initialization == nil:
		return nil, fmt.Errorf("%w: initialization is required", ErrInvalidConfig)
	case cfg.PopulationSize <= 0:
		return nil, fmt.Errorf("%w: population size must be positive, got %d", ErrInvalidConfig, cfg.PopulationSize)
	case variation.Arity() <= 0:
		return nil, fmt.Errorf("%w: variation arity must be positive, got %d", ErrInvalidConfig, variation.Arity())
	case problem.NumberOfObjectives() <= 0:
		return nil, fmt.Errorf("%w: problem %s has no objectives", ErrInvalidConfig, problem.Name())
	case cfg.MaxVariationAttempts < 0:
		return nil, fmt.Errorf("%w: max variation attempts must not be negative, got %d", ErrInvalidConfig, cfg.MaxVariationAttempts)
	}
	if cfg.MaxVariationAttempts == 0 {
		cfg.MaxVariationAttempts = DefaultMaxVariationAttempts
	}

	n := &NSGAII{
		cfg:            cfg,
		problem:        problem,
		variation:      variation,
		initialization: initialization,
		population:     population.New(problem.Directions()),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.archive != nil && n.archive.NumberOfObjectives() != problem.NumberOfObjectives() {
		return nil, fmt.Errorf("%w: archive has %d objectives, problem %s has %d", ErrInvalidConfig,
			n.archive.NumberOfObjectives(), problem.Name(), problem.NumberOfObjectives())
	}

	if n.rng == nil {
		n.rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	}
	if n.evaluator == nil {
		n.evaluator = evaluation.NewEvaluator(problem, cfg.Parallelism, cfg.EvaluationTimeout)
	}
	if n.metrics == nil {
		n.metrics = metrics.New(nil)
	}

	if n.selection != nil {
		external := n.selection
		n.newSelection = func() selection.Strategy { return external }
	} else {
		// The pool is rebuilt every generation since it holds members of
		// the previous population.
		n.newSelection = func() selection.Strategy {
			return selection.NewTournamentPool(n.rng, problem.Directions())
		}
	}

	return n, nil
}

func (n *NSGAII) Name() string {
	return Name
}

func (n *NSGAII) Problem() framework.Problem {
	return n.problem
}

// Population returns the current population.
func (n *NSGAII) Population() *population.Population {
	return n.population
}

// Archive returns the epsilon-box archive, or nil when none is attached.
func (n *NSGAII) Archive() *archive.EpsilonBoxDominanceArchive {
	return n.archive
}

// Generation is the number of completed generations.
func (n *NSGAII) Generation() int {
	return n.generation
}

// NumberOfEvaluations counts every evaluation, including the initial population.
func (n *NSGAII) NumberOfEvaluations() int {
	return n.evaluations
}

// Result returns the archived solutions when an archive is attached and the
// first non-dominated front of the population otherwise.
func (n *NSGAII) Result() []*framework.Solution {
	if n.archive != nil {
		return n.archive.Solutions()
	}
	return n.population.ParetoFront()
}

// Step initializes the population on the first call and advances one
// generation on every later call.
func (n *NSGAII) Step(ctx context.Context) error {
	if !n.initialized {
		return n.Initialize(ctx)
	}
	return n.Iterate(ctx)
}

// Initialize creates and evaluates the starting population.
func (n *NSGAII) Initialize(ctx context.Context) error {
	logger := klog.FromContext(ctx).WithValues("algorithm", Name, "problem", n.problem.Name())
	if n.initialized {
		return fmt.Errorf("%s: already initialized", Name)
	}

	genomes := n.initialization.Initialize(n.cfg.PopulationSize)
	if len(genomes) != n.cfg.PopulationSize {
		return fmt.Errorf("could not initialize population with PopSize %d: got %d solutions", n.cfg.PopulationSize, len(genomes))
	}
	initial := make([]*framework.Solution, len(genomes))
	for i, g := range genomes {
		if g == nil {
			return fmt.Errorf("initialization returned a nil genome at index %d", i)
		}
		initial[i] = framework.NewSolution(g)
	}

	if err := n.evaluate(ctx, initial); err != nil {
		return fmt.Errorf("evaluating initial population: %w", err)
	}

	n.population.AddAll(initial)
	if n.archive != nil {
		accepted := n.archive.AddAll(initial)
		n.metrics.ObserveArchive(n.problem.Name(), accepted, n.archive.Size())
	}
	n.initialized = true

	logger.V(2).Info("Initialized population",
		"populationSize", n.population.Size(),
		"evaluations", n.evaluations,
		"maxVariationAttempts", n.cfg.MaxVariationAttempts,
		"archive", n.archive != nil)
	return nil
}

// Iterate runs one generation: build offspring up to the population size,
// evaluate them as one batch, merge them into the archive and population,
// and truncate the population back to its size. If evaluation fails the
// offspring are discarded and neither population nor archive change.
func (n *NSGAII) Iterate(ctx context.Context) error {
	if !n.initialized {
		return ErrNotInitialized
	}
	logger := klog.FromContext(ctx).WithValues("algorithm", Name, "problem", n.problem.Name(), "generation", n.generation+1)

	populationSize := n.population.Size()
	offspring, err := n.reproduce(populationSize)
	if err != nil {
		return fmt.Errorf("generation %d: %w", n.generation+1, err)
	}

	if err := n.evaluate(ctx, offspring); err != nil {
		logger.V(2).Info("Discarding offspring", "offspring", len(offspring), "err", err)
		return fmt.Errorf("generation %d: evaluating offspring: %w", n.generation+1, err)
	}

	if n.archive != nil {
		accepted := n.archive.AddAll(offspring)
		n.metrics.ObserveArchive(n.problem.Name(), accepted, n.archive.Size())
	}

	n.population.AddAll(offspring)
	n.population.Truncate(populationSize)
	n.generation++

	fronts := 0
	for _, s := range n.population.Solutions() {
		fronts = max(fronts, s.Rank+1)
	}
	n.metrics.ObserveGeneration(n.problem.Name(), fronts)

	logger.V(4).Info("Completed generation",
		"offspring", len(offspring),
		"fronts", fronts,
		"firstFront", len(n.population.ParetoFront()),
		"evaluations", n.evaluations)
	return nil
}

// reproduce builds at least size offspring. Children beyond size are kept,
// the subsequent truncation takes care of them.
func (n *NSGAII) reproduce(size int) ([]*framework.Solution, error) {
	strategy := n.newSelection()
	arity := n.variation.Arity()
	offspring := make([]*framework.Solution, 0, size)

	empty := 0
	for len(offspring) < size {
		parents, err := strategy.Select(arity, n.population)
		if err != nil {
			return nil, fmt.Errorf("selecting parents: %w", err)
		}
		if len(parents) != arity {
			return nil, fmt.Errorf("%w: got %d parents, want %d", ErrInvalidSelection, len(parents), arity)
		}
		for _, p := range parents {
			if p == nil || !p.Evaluated() {
				return nil, fmt.Errorf("%w: parent is not an evaluated solution", ErrInvalidSelection)
			}
		}

		children := n.variation.Evolve(parents)
		if len(children) == 0 {
			empty++
			if empty >= n.cfg.MaxVariationAttempts {
				return nil, fmt.Errorf("%w after %d consecutive attempts", ErrNoOffspring, empty)
			}
			continue
		}
		empty = 0

		for _, c := range children {
			if c == nil || c.Genome == nil {
				return nil, fmt.Errorf("%w: missing decision vector", ErrInvalidOffspring)
			}
			if c.Evaluated() {
				return nil, fmt.Errorf("%w: child is already evaluated", ErrInvalidOffspring)
			}
		}
		offspring = append(offspring, children...)
	}
	return offspring, nil
}

func (n *NSGAII) evaluate(ctx context.Context, solutions []*framework.Solution) error {
	start := time.Now()
	evaluated, err := n.evaluator.EvaluateAll(ctx, solutions)
	n.metrics.ObserveEvaluation(n.problem.Name(), evaluated, time.Since(start), err)
	if err != nil {
		return err
	}
	n.evaluations += evaluated
	return nil
}

// Run steps the algorithm until the stopping rule is met, the context is
// done or a step fails.
func (n *NSGAII) Run(ctx context.Context, stop StoppingRule) error {
	logger := klog.FromContext(ctx).WithValues("algorithm", Name, "problem", n.problem.Name())
	startTime := time.Now()

	for !n.initialized || !stop(n) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.Step(ctx); err != nil {
			return err
		}
	}

	logger.V(2).Info("Evolution complete",
		"generations", n.generation,
		"evaluations", n.evaluations,
		"result", len(n.Result()),
		"elapsed", time.Since(startTime))
	return nil
}
