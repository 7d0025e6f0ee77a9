package utils

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tracks performance metrics across the system
type MetricsCollector struct {
	registry *prometheus.Registry

	requestCount   *prometheus.CounterVec
	errorCount     *prometheus.CounterVec
	operationTimes *prometheus.HistogramVec
	postEvents     *prometheus.CounterVec

	systemStartTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devconnector",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method and status code.",
		}, []string{"method", "code"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devconnector",
			Name:      "operation_errors_total",
			Help:      "Failed engine operations, by operation and error code.",
		}, []string{"operation", "code"}),
		operationTimes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "devconnector",
			Name:      "operation_duration_seconds",
			Help:      "Latency of engine operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		postEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devconnector",
			Name:      "post_events_total",
			Help:      "Post events published to the live feed.",
		}, []string{"type"}),
		systemStartTime: time.Now(),
	}

	mc.registry.MustRegister(
		mc.requestCount,
		mc.errorCount,
		mc.operationTimes,
		mc.postEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return mc
}

func (mc *MetricsCollector) IncrementRequests(method string, code int) {
	mc.requestCount.WithLabelValues(method, http.StatusText(code)).Inc()
}

func (mc *MetricsCollector) IncrementErrors(operation, code string) {
	mc.errorCount.WithLabelValues(operation, code).Inc()
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.operationTimes.WithLabelValues(operationName).Observe(duration.Seconds())
}

func (mc *MetricsCollector) IncrementPostEvents(eventType string) {
	mc.postEvents.WithLabelValues(eventType).Inc()
}

func (mc *MetricsCollector) Uptime() time.Duration {
	return time.Since(mc.systemStartTime)
}

// Registry exposes the underlying registry, mainly for tests.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Handler serves the collected metrics in the Prometheus text format.
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}
