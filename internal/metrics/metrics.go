// Package metrics defines the Prometheus collectors for ingestion runs and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"licitaflow/internal/controller"
	"licitaflow/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one process. It implements
// controller.Observer.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal         *prometheus.CounterVec
	RunDuration       *prometheus.HistogramVec
	RunsInFlight      prometheus.Gauge
	RemoteCallsTotal  *prometheus.CounterVec
	RemoteCallLatency *prometheus.HistogramVec
	StaleResultsTotal prometheus.Counter
}

// New creates the collectors on a private registry, so tests and multiple
// servers in one process do not collide on the global one.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "licitaflow_runs_total",
				Help: "Ingestion runs by outcome (succeeded, failed).",
			},
			[]string{"outcome"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "licitaflow_run_duration_seconds",
				Help:    "Wall time of an ingestion run from submit to terminal state.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"outcome"},
		),
		RunsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "licitaflow_runs_in_flight",
				Help: "Ingestion runs currently submitting.",
			},
		),
		RemoteCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "licitaflow_remote_calls_total",
				Help: "Calls to the ingestion service by operation and result.",
			},
			[]string{"operation", "result"},
		),
		RemoteCallLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "licitaflow_remote_call_duration_seconds",
				Help:    "Latency of calls to the ingestion service in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"operation"},
		),
		StaleResultsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "licitaflow_stale_results_total",
				Help: "Results of superseded runs that were dropped.",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RunsTotal,
		m.RunDuration,
		m.RunsInFlight,
		m.RemoteCallsTotal,
		m.RemoteCallLatency,
		m.StaleResultsTotal,
	)

	return m
}

func (m *Metrics) RunStarted() {
	m.RunsInFlight.Inc()
}

func (m *Metrics) CallFinished(op string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = string(service.ClassifyError(err))
	}
	m.RemoteCallsTotal.WithLabelValues(op, result).Inc()
	m.RemoteCallLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) RunFinished(phase controller.Phase, elapsed time.Duration) {
	m.RunsInFlight.Dec()
	m.RunsTotal.WithLabelValues(string(phase)).Inc()
	m.RunDuration.WithLabelValues(string(phase)).Observe(elapsed.Seconds())
}

// StaleDropped also ends the in-flight run: a superseded run never reaches
// RunFinished.
func (m *Metrics) StaleDropped() {
	m.RunsInFlight.Dec()
	m.StaleResultsTotal.Inc()
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

var _ controller.Observer = (*Metrics)(nil)
