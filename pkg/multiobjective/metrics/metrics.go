package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "multiobjective"
	subsystem = "nsga2"
)

// Metrics holds the collectors updated by the generational loop. All series
// carry the problem name as a label.
type Metrics struct {
	Generations        *prometheus.CounterVec
	Evaluations        *prometheus.CounterVec
	EvaluationFailures *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec
	ArchiveSize        *prometheus.GaugeVec
	ArchiveAccepted    *prometheus.CounterVec
	Fronts             *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is convenient in tests and for one-off runs.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "generations_total",
			Help:      "Number of completed generations.",
		}, []string{"problem"}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "evaluations_total",
			Help:      "Number of solutions evaluated.",
		}, []string{"problem"}),
		EvaluationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "evaluation_failures_total",
			Help:      "Number of evaluation batches discarded because of an error, timeout or cancellation.",
		}, []string{"problem"}),
		EvaluationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "evaluation_batch_duration_seconds",
			Help:      "Wall time spent evaluating one batch of solutions.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"problem"}),
		ArchiveSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "archive_size",
			Help:      "Number of solutions in the epsilon-box archive.",
		}, []string{"problem"}),
		ArchiveAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "archive_accepted_total",
			Help:      "Number of offspring accepted by the epsilon-box archive.",
		}, []string{"problem"}),
		Fronts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "population_fronts",
			Help:      "Number of non-dominated fronts in the population after truncation.",
		}, []string{"problem"}),
	}
	if reg != nil {
		reg.MustRegister(m.collectors()...)
	}
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Generations,
		m.Evaluations,
		m.EvaluationFailures,
		m.EvaluationDuration,
		m.ArchiveSize,
		m.ArchiveAccepted,
		m.Fronts,
	}
}

// ObserveEvaluation records a finished batch.
func (m *Metrics) ObserveEvaluation(problem string, evaluated int, elapsed time.Duration, err error) {
	m.EvaluationDuration.WithLabelValues(problem).Observe(elapsed.Seconds())
	if err != nil {
		m.EvaluationFailures.WithLabelValues(problem).Inc()
		return
	}
	m.Evaluations.WithLabelValues(problem).Add(float64(evaluated))
}

// ObserveArchive records the outcome of merging a batch into the archive.
func (m *Metrics) ObserveArchive(problem string, accepted, size int) {
	m.ArchiveAccepted.WithLabelValues(problem).Add(float64(accepted))
	m.ArchiveSize.WithLabelValues(problem).Set(float64(size))
}

// ObserveGeneration records a completed generation.
func (m *Metrics) ObserveGeneration(problem string, fronts int) {
	m.Generations.WithLabelValues(problem).Inc()
	m.Fronts.WithLabelValues(problem).Set(float64(fronts))
}
