// Package metrics exports Prometheus metrics for the refresh loop.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "situation_map"

// Refresh outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeStale     = "stale"
)

// Metrics holds the refresh and compose collectors.
type Metrics struct {
	registry *prometheus.Registry

	Refreshes       *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	FetchErrors     *prometheus.CounterVec
	FetchDuration   *prometheus.HistogramVec
	ComposeDuration *prometheus.HistogramVec
	Descriptors     *prometheus.GaugeVec
	CorpusItems     prometheus.Gauge
	StreamClients   prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh cycles by outcome (committed, stale)",
		}, []string{"outcome"}),
		RefreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of one refresh cycle, fetch included",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed upstream fetches by source",
		}, []string{"source"}),
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch time by source",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		ComposeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compose_duration_seconds",
			Help:      "Time to compose an overlay set by view",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"view"}),
		Descriptors: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "descriptors",
			Help:      "Descriptors in the last committed set by kind",
		}, []string{"kind"}),
		CorpusItems: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_items",
			Help:      "News items scored in the last refresh",
		}),
		StreamClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected websocket clients",
		}),
	}
}

// Registry exposes the registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one upstream fetch.
func (m *Metrics) ObserveFetch(source string, start time.Time, err error) {
	m.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(source).Inc()
	}
}

// ObserveDescriptors replaces the per-kind descriptor gauge.
func (m *Metrics) ObserveDescriptors(counts map[string]int) {
	m.Descriptors.Reset()
	for kind, n := range counts {
		m.Descriptors.WithLabelValues(kind).Set(float64(n))
	}
}
