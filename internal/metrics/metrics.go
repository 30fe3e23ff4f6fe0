// Package metrics exposes Prometheus collectors for loads and view recomputation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freight-scorecard/backend/internal/models"
)

const namespace = "scorecard"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	loads       *prometheus.CounterVec
	loadSeconds prometheus.Histogram
	rows        *prometheus.GaugeVec
	recomputes  *prometheus.CounterVec
}

// New registers all collectors plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Dataset loads by result.",
		}, []string{"result"}),
		loadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Wall time of dataset loads.",
			Buckets:   prometheus.DefBuckets,
		}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the current dataset by kind.",
		}, []string{"kind"}),
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_recomputes_total",
			Help:      "Recomputations of derived values by name.",
		}, []string{"value"}),
	}
	m.registry.MustRegister(
		m.loads, m.loadSeconds, m.rows, m.recomputes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// LoadFinished records one load. result is "ok", "error" or "stale".
func (m *Metrics) LoadFinished(result string, elapsed time.Duration, rows map[models.DatasetKind]int) {
	m.loads.WithLabelValues(result).Inc()
	m.loadSeconds.Observe(elapsed.Seconds())
	for kind, n := range rows {
		m.rows.WithLabelValues(string(kind)).Set(float64(n))
	}
}

// ViewRecomputed counts one recomputation of a derived value.
func (m *Metrics) ViewRecomputed(name string) {
	m.recomputes.WithLabelValues(name).Inc()
}

// Registry exposes the registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
