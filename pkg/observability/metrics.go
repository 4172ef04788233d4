package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	AuthzDecisionsTotal *prometheus.CounterVec

	// Store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	// List cache metrics
	ListCacheHitsTotal   *prometheus.CounterVec
	ListCacheMissesTotal prometheus.Counter

	// Session metrics
	SessionsCleanedTotal prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskboard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_authz_decisions_total",
				Help: "Total number of authorization decisions",
			},
			[]string{"action", "role", "result"},
		),

		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_store_operations_total",
				Help: "Total number of todo store operations",
			},
			[]string{"operation", "status"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskboard_store_operation_duration_seconds",
				Help:    "Todo store operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),

		ListCacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_list_cache_hits_total",
				Help: "Total number of list cache hits",
			},
			[]string{"tier"},
		),
		ListCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskboard_list_cache_misses_total",
				Help: "Total number of list cache misses",
			},
		),

		SessionsCleanedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskboard_sessions_cleaned_total",
				Help: "Total number of expired sessions removed",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthzDecisionsTotal,
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
		m.ListCacheHitsTotal,
		m.ListCacheMissesTotal,
		m.SessionsCleanedTotal,
	)

	return m
}

// RecordDecision counts one authorization decision
func (m *Metrics) RecordDecision(action, role string, allowed bool) {
	if m == nil {
		return
	}
	result := "deny"
	if allowed {
		result = "allow"
	}
	if role == "" {
		role = "none"
	}
	m.AuthzDecisionsTotal.WithLabelValues(action, role, result).Inc()
}

// RecordStoreOperation counts one store operation and observes its duration
func (m *Metrics) RecordStoreOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	m.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheHit counts a list cache hit in tier ("l1" or "l2")
func (m *Metrics) RecordCacheHit(tier string) {
	if m == nil {
		return
	}
	m.ListCacheHitsTotal.WithLabelValues(tier).Inc()
}

// RecordCacheMiss counts a list cache miss
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.ListCacheMissesTotal.Inc()
}

// RecordSessionsCleaned adds n removed sessions
func (m *Metrics) RecordSessionsCleaned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsCleanedTotal.Add(float64(n))
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// Paths are labelled with the matched route template to bound cardinality.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			path := routeTemplate(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
