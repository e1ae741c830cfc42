// Package metrics exposes Prometheus instrumentation for the blob service:
// request counters and latency histograms per operation, store gauges and
// garbage collector counters. All methods are nil-safe so instrumented code
// never needs to check whether metrics are enabled.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registry and the instrument vectors.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestBytes    *prometheus.CounterVec
	responseBytes   *prometheus.CounterVec

	extentBytes    prometheus.Gauge
	containerCount prometheus.Gauge
	blobCount      prometheus.Gauge

	gcSweeps     prometheus.Counter
	gcSweptBytes prometheus.Counter
}

// New creates a Metrics instance with its own registry, including the
// standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloblite",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests processed, by operation and status code.",
		}, []string{"operation", "code"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bloblite",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		requestBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloblite",
			Subsystem: "http",
			Name:      "request_bytes_total",
			Help:      "Bytes received in request bodies, by operation.",
		}, []string{"operation"}),

		responseBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloblite",
			Subsystem: "http",
			Name:      "response_bytes_total",
			Help:      "Bytes sent in response bodies, by operation.",
		}, []string{"operation"}),

		extentBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "bloblite",
			Subsystem: "store",
			Name:      "extent_bytes",
			Help:      "Total bytes held by the extent store.",
		}),

		containerCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "bloblite",
			Subsystem: "store",
			Name:      "containers",
			Help:      "Number of containers.",
		}),

		blobCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "bloblite",
			Subsystem: "store",
			Name:      "blobs",
			Help:      "Number of blob records including snapshots.",
		}),

		gcSweeps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bloblite",
			Subsystem: "gc",
			Name:      "sweeps_total",
			Help:      "Garbage collection sweeps completed.",
		}),

		gcSweptBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bloblite",
			Subsystem: "gc",
			Name:      "swept_bytes_total",
			Help:      "Bytes reclaimed by the garbage collector.",
		}),
	}
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one completed request.
func (m *Metrics) ObserveRequest(operation string, code int, duration time.Duration, requestBytes, responseBytes int64) {
	if m == nil {
		return
	}
	codeStr := statusClass(code)
	m.requestsTotal.WithLabelValues(operation, codeStr).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if requestBytes > 0 {
		m.requestBytes.WithLabelValues(operation).Add(float64(requestBytes))
	}
	if responseBytes > 0 {
		m.responseBytes.WithLabelValues(operation).Add(float64(responseBytes))
	}
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// SetStoreStats updates the store gauges.
func (m *Metrics) SetStoreStats(extentBytes uint64, containers, blobs int) {
	if m == nil {
		return
	}
	m.extentBytes.Set(float64(extentBytes))
	m.containerCount.Set(float64(containers))
	m.blobCount.Set(float64(blobs))
}

// ObserveSweep records one garbage collection sweep.
func (m *Metrics) ObserveSweep(sweptBytes uint64) {
	if m == nil {
		return
	}
	m.gcSweeps.Inc()
	m.gcSweptBytes.Add(float64(sweptBytes))
}
