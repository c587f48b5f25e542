// Package metrics exposes Prometheus counters for the tracker, the remote
// mirror and the HTTP API. A no-op provider is used when metrics are
// disabled.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Provider interface {
	ObserveOperation(op string, err error)
	ObserveSave(duration time.Duration, err error)
	SetPointCounts(active, resolved int)
	RemoteOp(kind string, outcome string)
	ObserveRequest(route string, status int, duration time.Duration)
	Handler() http.Handler
}

type PrometheusProvider struct {
	registry        *prometheus.Registry
	operations      *prometheus.CounterVec
	saveDuration    prometheus.Histogram
	saveFailures    prometheus.Counter
	points          *prometheus.GaugeVec
	remoteOps       *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New returns a Prometheus provider with its own registry, or a no-op one
// when enabled is false.
func New(enabled bool) Provider {
	if !enabled {
		return Noop{}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &PrometheusProvider{
		registry: reg,

		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sitepins_operations_total",
			Help: "Lifecycle operations by name and result",
		}, []string{"op", "result"}),

		saveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitepins_local_save_duration_seconds",
			Help:    "Duration of local state saves in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		saveFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "sitepins_local_save_failures_total",
			Help: "Local state saves that failed",
		}),

		points: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sitepins_points",
			Help: "Number of points per collection",
		}, []string{"collection"}),

		remoteOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sitepins_remote_ops_total",
			Help: "Remote mirror writes by kind and outcome",
		}, []string{"kind", "outcome"}),

		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sitepins_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "status"}),

		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sitepins_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *PrometheusProvider) ObserveOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *PrometheusProvider) ObserveSave(duration time.Duration, err error) {
	m.saveDuration.Observe(duration.Seconds())
	if err != nil {
		m.saveFailures.Inc()
	}
}

func (m *PrometheusProvider) SetPointCounts(active, resolved int) {
	m.points.WithLabelValues("active").Set(float64(active))
	m.points.WithLabelValues("resolved").Set(float64(resolved))
}

func (m *PrometheusProvider) RemoteOp(kind string, outcome string) {
	m.remoteOps.WithLabelValues(kind, outcome).Inc()
}

func (m *PrometheusProvider) ObserveRequest(route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, httpStatusBucket(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *PrometheusProvider) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Noop is the provider used when metrics are disabled.
type Noop struct{}

func (Noop) ObserveOperation(string, error)            {}
func (Noop) ObserveSave(time.Duration, error)          {}
func (Noop) SetPointCounts(int, int)                   {}
func (Noop) RemoteOp(string, string)                   {}
func (Noop) ObserveRequest(string, int, time.Duration) {}
func (Noop) Handler() http.Handler                     { return http.NotFoundHandler() }
