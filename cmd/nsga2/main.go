package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"sigs.k8s.io/multiobjective/apis/config/v1alpha1"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/benchmarks"
	"sigs.k8s.io/multiobjective/pkg/multiobjective/config"
)

type options struct {
	configFile     string
	metricsAddress string
	printFront     bool

	problem        string
	numVariables   int32
	populationSize int32
	maxGenerations int32
	maxEvaluations int64
	epsilons       []float64
	seed           uint64
	parallelism    int32
	timeout        time.Duration
	cache          bool
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.configFile, "config", "", "Path to an NSGAIIArgs YAML file. Flags override its values.")
	fs.StringVar(&o.metricsAddress, "metrics-bind-address", "", "Address serving Prometheus metrics while the run lasts, e.g. :8080. Empty disables it.")
	fs.BoolVar(&o.printFront, "print-front", false, "Print the objective vectors of the result to stdout.")

	fs.StringVar(&o.problem, "problem", v1alpha1.DefaultProblem, "Benchmark problem: zdt1, zdt2, dtlz2, dtlz2_3obj or srn.")
	fs.Int32Var(&o.numVariables, "num-variables", v1alpha1.DefaultNumVariables, "Number of decision variables.")
	fs.Int32Var(&o.populationSize, "population-size", v1alpha1.DefaultPopulationSize, "Population size.")
	fs.Int32Var(&o.maxGenerations, "max-generations", v1alpha1.DefaultMaxGenerations, "Stop after this many generations. 0 disables the limit.")
	fs.Int64Var(&o.maxEvaluations, "max-evaluations", v1alpha1.DefaultMaxEvaluations, "Stop after this many evaluations. 0 disables the limit.")
	fs.Float64SliceVar(&o.epsilons, "epsilons", nil, "Epsilon-box archive resolution, one value or one per objective. Empty disables the archive.")
	fs.Uint64Var(&o.seed, "seed", v1alpha1.DefaultSeed, "Random seed.")
	fs.Int32Var(&o.parallelism, "parallelism", 0, "Concurrent evaluations. 0 uses one per CPU.")
	fs.DurationVar(&o.timeout, "evaluation-timeout", 0, "Timeout for evaluating one generation. 0 disables it.")
	fs.BoolVar(&o.cache, "cache-evaluations", false, "Memoize objective vectors by decision vector.")
}

// apply copies the flags set on the command line onto args.
func (o *options) apply(fs *pflag.FlagSet, args *v1alpha1.NSGAIIArgs) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "problem":
			args.Problem = &o.problem
		case "num-variables":
			args.NumVariables = &o.numVariables
		case "population-size":
			args.PopulationSize = &o.populationSize
		case "max-generations":
			args.MaxGenerations = &o.maxGenerations
		case "max-evaluations":
			args.MaxEvaluations = &o.maxEvaluations
		case "epsilons":
			args.Epsilons = o.epsilons
		case "seed":
			args.Seed = &o.seed
		case "parallelism":
			args.Parallelism = &o.parallelism
		case "evaluation-timeout":
			args.EvaluationTimeout.Duration = o.timeout
		case "cache-evaluations":
			args.CacheEvaluations = &o.cache
		}
	})
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		klog.ErrorS(err, "Run failed")
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func run(ctx context.Context, argv []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("nsga2", pflag.ContinueOnError)
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	fs.AddGoFlagSet(klogFlags)

	o := &options{}
	o.addFlags(fs)
	if err := fs.Parse(argv); err != nil {
		return err
	}

	args, err := config.Load(o.configFile, func(args *v1alpha1.NSGAIIArgs) {
		o.apply(fs, args)
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	r, err := config.NewRun(args, reg)
	if err != nil {
		return err
	}

	logger := klog.FromContext(ctx).WithValues("problem", r.Benchmark.Name())
	ctx = klog.NewContext(ctx, logger)

	if o.metricsAddress != "" {
		srv := &http.Server{
			Addr:              o.metricsAddress,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(err, "Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("Starting NSGA-II",
		"populationSize", *args.PopulationSize,
		"maxGenerations", *args.MaxGenerations,
		"maxEvaluations", *args.MaxEvaluations,
		"epsilons", args.Epsilons,
		"seed", *args.Seed)

	start := time.Now()
	if err := r.Algorithm.Run(ctx, r.Stop); err != nil {
		return fmt.Errorf("running %s on %s: %w", r.Algorithm.Name(), r.Benchmark.Name(), err)
	}
	elapsed := time.Since(start)

	result := r.Algorithm.Result()
	evaluations := r.Algorithm.NumberOfEvaluations()
	summary := []any{
		"generations", humanize.Comma(int64(r.Algorithm.Generation())),
		"evaluations", humanize.Comma(int64(evaluations)),
		"evaluationsPerSecond", humanize.CommafWithDigits(float64(evaluations)/elapsed.Seconds(), 1),
		"result", len(result),
		"elapsed", elapsed.Round(time.Millisecond),
	}
	if a := r.Algorithm.Archive(); a != nil {
		summary = append(summary, "archiveImprovements", a.Improvements(), "dominatingImprovements", a.DominatingImprovements())
	}
	if r.Cache != nil {
		summary = append(summary, "cacheHits", humanize.Comma(r.Cache.Hits()))
	}
	if front := r.Benchmark.TrueParetoFront(1000); front != nil {
		summary = append(summary, "igd", humanize.FtoaWithDigits(benchmarks.IGD(benchmarks.Points(result), front), 6))
	}
	logger.Info("Finished NSGA-II", summary...)

	if o.printFront {
		for _, s := range result {
			for i, v := range s.Value {
				if i > 0 {
					fmt.Fprint(stdout, " ")
				}
				fmt.Fprintf(stdout, "%g", v)
			}
			fmt.Fprintln(stdout)
		}
	}
	return nil
}
