package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gradestats"

// Metrics holds the collectors for analysis runs
type Metrics struct {
	Registry      *prometheus.Registry
	Runs          *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	RecordsPerRun prometheus.Histogram
	ArtifactBytes *prometheus.CounterVec
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_runs_total",
			Help:      "Analysis runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time from upload to finished artifacts.",
			Buckets:   prometheus.DefBuckets,
		}),
		RecordsPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_records",
			Help:      "Student records per successful run.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 10),
		}),
		ArtifactBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_bytes_total",
			Help:      "Bytes of generated reports by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		m.Runs, m.RunDuration, m.RecordsPerRun, m.ArtifactBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records the outcome of one run. records is ignored for failed runs.
func (m *Metrics) ObserveRun(outcome string, elapsed time.Duration, records int) {
	m.Runs.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeOK {
		m.RecordsPerRun.Observe(float64(records))
	}
}

// ObserveArtifact counts the size of a generated report
func (m *Metrics) ObserveArtifact(kind string, size int) {
	m.ArtifactBytes.WithLabelValues(kind).Add(float64(size))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Run outcomes
const (
	OutcomeOK            = "ok"
	OutcomeMissingColumn = "missing_column"
	OutcomeEmpty         = "empty"
	OutcomeUnreadable    = "unreadable"
	OutcomeInvalidGrade  = "invalid_grade"
	OutcomeError         = "error"
)
