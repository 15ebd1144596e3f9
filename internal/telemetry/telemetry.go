// Package telemetry exports Prometheus metrics for footprint.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "footprint"

// Metrics holds the footprint collectors. Each instance owns its registry so
// several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	ViewsBuilt          *prometheus.CounterVec
	RecordsSkipped      prometheus.Counter
	FetchFailures       *prometheus.CounterVec
	ClassifyCalls       *prometheus.CounterVec
	AggregationDuration prometheus.Histogram
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ViewsBuilt: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_built_total",
			Help:      "Views built, by kind (dashboard, insights, settings)",
		}, []string{"kind"}),
		RecordsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Visit records dropped for unparsable timestamps",
		}),
		FetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed persistence reads, by query",
		}, []string{"query"}),
		ClassifyCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classify_calls_total",
			Help:      "Content analysis requests, by outcome",
		}, []string{"outcome"}),
		AggregationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Time spent aggregating one period",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The Record helpers accept a nil receiver so callers can run without metrics.

func (m *Metrics) RecordView(kind string) {
	if m == nil {
		return
	}
	m.ViewsBuilt.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsSkipped.Add(float64(n))
}

func (m *Metrics) RecordFetchFailure(query string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(query).Inc()
}

func (m *Metrics) RecordClassify(outcome string) {
	if m == nil {
		return
	}
	m.ClassifyCalls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAggregation(d time.Duration) {
	if m == nil {
		return
	}
	m.AggregationDuration.Observe(d.Seconds())
}
