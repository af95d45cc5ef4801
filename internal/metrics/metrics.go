package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the sitetree Prometheus collectors on an isolated registry,
// so tests and multiple servers in one process never collide.
type Metrics struct {
	Registry *prometheus.Registry

	BuildsTotal          *prometheus.CounterVec
	BuildDurationSeconds prometheus.Histogram
	CategoryRecords      *prometheus.GaugeVec
	CategoryErrorsTotal  *prometheus.CounterVec
	QueueDepth           prometheus.Gauge

	HTTPRequestsTotal *prometheus.CounterVec
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitetree_builds_total",
				Help: "Total number of finished builds by final status.",
			},
			[]string{"status"},
		),
		BuildDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sitetree_build_duration_seconds",
				Help:    "Wall time of a full site build.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		CategoryRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sitetree_category_records",
				Help: "Records in each category as of the latest build.",
			},
			[]string{"category"},
		),
		CategoryErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitetree_category_errors_total",
				Help: "Categories that failed to load or build.",
			},
			[]string{"category"},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sitetree_build_queue_depth",
				Help: "Builds waiting for a worker.",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitetree_http_requests_total",
				Help: "HTTP requests by method and status code.",
			},
			[]string{"method", "status"},
		),
	}

	reg.MustRegister(
		m.BuildsTotal,
		m.BuildDurationSeconds,
		m.CategoryRecords,
		m.CategoryErrorsTotal,
		m.QueueDepth,
		m.HTTPRequestsTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
