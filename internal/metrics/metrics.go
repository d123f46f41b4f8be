// Package metrics exposes Prometheus counters for the checking engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handlescope_probes_total",
		Help: "Network probes dispatched, by platform and verdict.",
	}, []string{"platform", "status"})

	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handlescope_probe_cache_hits_total",
		Help: "Probe results served from the in-process cache.",
	}, []string{"platform"})

	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handlescope_checks_total",
		Help: "Per-platform check results returned to callers, by verdict.",
	}, []string{"status"})

	persistErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "handlescope_persist_errors_total",
		Help: "Fire-and-forget persistence attempts that failed.",
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handlescope_http_errors_total",
		Help: "HTTP error responses, by error code and status.",
	}, []string{"code", "status"})

	errorsByEndpoint = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handlescope_http_errors_by_endpoint_total",
		Help: "HTTP error responses, by endpoint and error code.",
	}, []string{"endpoint", "code"})

	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "handlescope_http_panics_total",
		Help: "Panics recovered in HTTP handlers.",
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "handlescope_http_requests_total",
		Help: "HTTP requests served, by method, endpoint pattern, and status.",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "handlescope_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and endpoint pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})
)

// RecordProbe counts one dispatched network probe.
func RecordProbe(platform, status string) {
	probesTotal.WithLabelValues(platform, status).Inc()
}

// RecordCacheHit counts one probe answered from cache.
func RecordCacheHit(platform string) {
	cacheHitsTotal.WithLabelValues(platform).Inc()
}

// RecordCheck counts one result handed back to a caller.
func RecordCheck(status string) {
	checksTotal.WithLabelValues(status).Inc()
}

// RecordPersistError counts one swallowed persistence failure.
func RecordPersistError() {
	persistErrorsTotal.Inc()
}

// RecordHTTPRequest counts one served HTTP request and observes its latency.
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordPanic counts one recovered handler panic.
func RecordPanic() {
	panicsTotal.Inc()
}

// RecordError counts one HTTP error response.
func RecordError(code string, statusCode int) {
	errorsTotal.WithLabelValues(code, strconv.Itoa(statusCode)).Inc()
}

// RecordErrorByEndpoint counts one HTTP error response for an endpoint.
func RecordErrorByEndpoint(endpoint, code string) {
	errorsByEndpoint.WithLabelValues(endpoint, code).Inc()
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
