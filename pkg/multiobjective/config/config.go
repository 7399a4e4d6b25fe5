package config

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/yaml"

	"sigs.k8s.io/multiobjective/apis/config/v1alpha1"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/algorithms"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/archive"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/benchmarks"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/evaluation"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/framework"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/metrics"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/operators"
)

// Override changes defaulted args before they are validated.
type Override func(*v1alpha1.NSGAIIArgs)

// Load reads NSGAIIArgs from a YAML or JSON file. An empty path starts from the defaults.
func Load(path string, overrides ...Override) (*v1alpha1.NSGAIIArgs, error) {
	if path == "" {
		return Parse(nil, overrides...)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	args, err := Parse(data, overrides...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return args, nil
}

// Parse decodes, defaults and validates NSGAIIArgs. Unknown fields are rejected.
func Parse(data []byte, overrides ...Override) (*v1alpha1.NSGAIIArgs, error) {
	args := &v1alpha1.NSGAIIArgs{}
	if len(data) > 0 {
		if err := yaml.UnmarshalStrict(data, args); err != nil {
			return nil, fmt.Errorf("decoding config: %w", err)
		}
	}
	v1alpha1.SetDefaults_NSGAIIArgs(args)
	for _, override := range overrides {
		override(args)
	}
	if err := v1alpha1.ValidateNSGAIIArgs(nil, args); err != nil {
		return nil, err
	}
	return args, nil
}

// Run is an algorithm built from NSGAIIArgs together with what it needs to be
// driven and reported on.
type Run struct {
	Algorithm *algorithms.NSGAII
	Benchmark benchmarks.Benchmark
	Stop      algorithms.StoppingRule
	// Cache is nil unless cacheEvaluations is set.
	Cache   *evaluation.Cache
	Metrics *metrics.Metrics
}

// NewRun builds the benchmark, its operators and the optional archive and
// evaluation cache described by args. Metrics are registered with reg when
// it is not nil.
func NewRun(args *v1alpha1.NSGAIIArgs, reg prometheus.Registerer) (*Run, error) {
	b, err := benchmarks.New(*args.Problem, int(*args.NumVariables))
	if err != nil {
		return nil, field.Invalid(field.NewPath("problem"), *args.Problem, err.Error())
	}

	run := &Run{
		Benchmark: b,
		Stop:      stoppingRule(args),
		Metrics:   metrics.New(reg),
	}

	var problem framework.Problem = b
	if *args.CacheEvaluations {
		run.Cache = evaluation.NewCache(b, 0)
		problem = run.Cache
	}

	seed := *args.Seed
	rng := rand.New(rand.NewPCG(seed, seed))
	numVars := len(b.Bounds())

	opts := []algorithms.Option{
		algorithms.WithRand(rng),
		algorithms.WithMetrics(run.Metrics),
	}
	if len(args.Epsilons) > 0 {
		a, err := archive.New(args.Epsilons, b.NumberOfObjectives(), b.Directions())
		if err != nil {
			return nil, field.Invalid(field.NewPath("epsilons"), args.Epsilons, fmt.Sprintf("%s: %v", b.Name(), err))
		}
		opts = append(opts, algorithms.WithArchive(a))
	}

	cfg := algorithms.NSGA2Config{
		PopulationSize:       int(*args.PopulationSize),
		MaxVariationAttempts: int(*args.MaxVariationAttempts),
		Parallelism:          int(*args.Parallelism),
		EvaluationTimeout:    args.EvaluationTimeout.Duration,
		Seed:                 seed,
	}
	run.Algorithm, err = algorithms.NewNSGAII(cfg, problem,
		operators.NewRealGA(rng, numVars), operators.RandomRealInitialization(rng, b.Bounds()), opts...)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func stoppingRule(args *v1alpha1.NSGAIIArgs) algorithms.StoppingRule {
	var rules []algorithms.StoppingRule
	if g := *args.MaxGenerations; g > 0 {
		rules = append(rules, algorithms.MaxGenerations(int(g)))
	}
	if e := *args.MaxEvaluations; e > 0 {
		rules = append(rules, algorithms.MaxEvaluations(int(e)))
	}
	return algorithms.AnyOf(rules...)
}
