package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	if metrics.HTTPRequestsTotal == nil || metrics.AuthzDecisionsTotal == nil || metrics.StoreOperationsTotal == nil {
		t.Fatal("Expected metrics to be initialized")
	}

	// Registering twice on the same registry must panic
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected duplicate registration to panic")
		}
	}()
	NewMetrics(registry)
}

func TestMetrics_RecordDecision(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.RecordDecision("delete", "user", false)
	metrics.RecordDecision("delete", "user", false)
	metrics.RecordDecision("view", "manager", true)
	metrics.RecordDecision("view", "", false)

	expected := `
# HELP taskboard_authz_decisions_total Total number of authorization decisions
# TYPE taskboard_authz_decisions_total counter
taskboard_authz_decisions_total{action="delete",result="deny",role="user"} 2
taskboard_authz_decisions_total{action="view",result="allow",role="manager"} 1
taskboard_authz_decisions_total{action="view",result="deny",role="none"} 1
`
	if err := testutil.CollectAndCompare(metrics.AuthzDecisionsTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected counter value: %v", err)
	}
}

func TestMetrics_RecordStoreOperation(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.RecordStoreOperation("query", 5*time.Millisecond, nil)
	metrics.RecordStoreOperation("update", time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(metrics.StoreOperationsTotal.WithLabelValues("query", "success")); got != 1 {
		t.Errorf("query success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.StoreOperationsTotal.WithLabelValues("update", "error")); got != 1 {
		t.Errorf("update error = %v, want 1", got)
	}
	if count := testutil.CollectAndCount(metrics.StoreOperationDuration); count != 2 {
		t.Errorf("Expected 2 duration series, got %d", count)
	}
}

func TestMetrics_CacheAndSessions(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.RecordCacheHit("l1")
	metrics.RecordCacheHit("l2")
	metrics.RecordCacheHit("l1")
	metrics.RecordCacheMiss()
	metrics.RecordSessionsCleaned(3)
	metrics.RecordSessionsCleaned(0)

	if got := testutil.ToFloat64(metrics.ListCacheHitsTotal.WithLabelValues("l1")); got != 2 {
		t.Errorf("l1 hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.ListCacheMissesTotal); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.SessionsCleanedTotal); got != 3 {
		t.Errorf("sessions cleaned = %v, want 3", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var metrics *Metrics
	metrics.RecordDecision("view", "user", true)
	metrics.RecordStoreOperation("query", time.Second, nil)
	metrics.RecordCacheHit("l1")
	metrics.RecordCacheMiss()
	metrics.RecordSessionsCleaned(1)
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	t.Run("labels requests with the route template", func(t *testing.T) {
		metrics := NewMetrics(prometheus.NewRegistry())

		router := mux.NewRouter()
		router.Use(HTTPMetricsMiddleware(metrics))
		router.HandleFunc("/api/v1/todos/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}).Methods("DELETE")

		for _, id := range []string{"a", "b"} {
			req := httptest.NewRequest("DELETE", "/api/v1/todos/"+id, nil)
			router.ServeHTTP(httptest.NewRecorder(), req)
		}

		expected := `
# HELP taskboard_http_requests_total Total number of HTTP requests
# TYPE taskboard_http_requests_total counter
taskboard_http_requests_total{method="DELETE",path="/api/v1/todos/{id}",status="403"} 2
`
		if err := testutil.CollectAndCompare(metrics.HTTPRequestsTotal, strings.NewReader(expected)); err != nil {
			t.Errorf("Unexpected counter value: %v", err)
		}
		if count := testutil.CollectAndCount(metrics.HTTPRequestDuration); count != 1 {
			t.Errorf("Expected 1 duration metric, got %d", count)
		}
	})

	t.Run("unrouted handlers", func(t *testing.T) {
		metrics := NewMetrics(prometheus.NewRegistry())
		handler := HTTPMetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/anything", nil))

		if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "200")); got != 1 {
			t.Errorf("unmatched requests = %v, want 1", got)
		}
	})

	t.Run("nil metrics passes through", func(t *testing.T) {
		called := false
		handler := HTTPMetricsMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
		if !called {
			t.Error("Expected wrapped handler to be called")
		}
	})
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.RecordCacheMiss()

	serveMux := http.NewServeMux()
	RegisterMetricsEndpoint(serveMux, registry)

	rec := httptest.NewRecorder()
	serveMux.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "taskboard_list_cache_misses_total 1") {
		t.Errorf("Expected cache miss metric in output")
	}
}
