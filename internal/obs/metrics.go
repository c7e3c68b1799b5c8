// Package obs wires Prometheus metrics and Jaeger tracing, the ambient
// observability stack grounded on the teacher's utils/metrics/prometheus.go
// and utils/tracing/jaeger.go, trimmed to the concerns this module actually
// has (HTTP, cache, store, queue, allocator) in place of the teacher's
// go-micro/gRPC-specific instrumentation.
package obs

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	LinksCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "links_created_total",
			Help: "Total number of links created",
		},
		[]string{"via_custom_alias"},
	)

	RedirectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirections_total",
			Help: "Total number of redirects served",
		},
		[]string{"cache_hit"},
	)

	ShortCodeCollisionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "short_code_collisions_total",
			Help: "Total number of short-code allocation collisions observed",
		},
	)

	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total cache operations",
		},
		[]string{"operation", "result"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_operation_duration_seconds",
			Help:    "Duration of store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	QueueMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_messages_published_total",
			Help: "Total messages published to the broker",
		},
		[]string{"queue"},
	)
)

// Metrics holds the process-wide Prometheus registry.
type Metrics struct {
	Registry *prometheus.Registry
}

// NewMetrics builds a registry with Go runtime collectors plus the metrics
// above registered, the way the teacher's NewMetrics does.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		LinksCreatedTotal,
		RedirectionsTotal,
		ShortCodeCollisionsTotal,
		CacheOperationsTotal,
		DatabaseOperationDuration,
		QueueMessagesPublished,
	)
	return &Metrics{Registry: registry}
}

// Handler returns the Gin handler serving this registry's metrics.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

// GinMiddleware records request count and latency per route.
func GinMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())

		HTTPRequestsTotal.WithLabelValues(serviceName, c.Request.Method, c.FullPath(), status).Inc()
		HTTPRequestDuration.WithLabelValues(serviceName, c.Request.Method, c.FullPath(), status).Observe(duration.Seconds())
	}
}

// RecordCacheOperation records a single cache get/set/delete attempt.
func RecordCacheOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}
