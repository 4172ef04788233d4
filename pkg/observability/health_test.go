package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyDB(t *testing.T) (*HealthChecker, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHealthChecker(db, nil, "test"), mock
}

func expectHealthyDB(mock sqlmock.Sqlmock) {
	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
}

func TestHealthChecker_Liveness(t *testing.T) {
	checker := NewHealthChecker(nil, nil, "test")

	rr := httptest.NewRecorder()
	checker.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, StatusHealthy, body["status"])
}

func TestHealthChecker_Check(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		checker, mock := healthyDB(t)
		expectHealthyDB(mock)

		status := checker.Check(context.Background())

		assert.Equal(t, StatusHealthy, status.Status)
		assert.Equal(t, "test", status.Version)
		assert.Equal(t, StatusHealthy, status.Dependencies["database"].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database ping fails", func(t *testing.T) {
		checker, mock := healthyDB(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		status := checker.Check(context.Background())

		assert.Equal(t, StatusUnhealthy, status.Status)
		assert.Contains(t, status.Dependencies["database"].Message, "connection refused")
	})

	t.Run("database query fails", func(t *testing.T) {
		checker, mock := healthyDB(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("boom"))

		status := checker.Check(context.Background())

		assert.Equal(t, StatusUnhealthy, status.Status)
		assert.Contains(t, status.Dependencies["database"].Message, "query failed")
	})

	t.Run("no database configured", func(t *testing.T) {
		status := NewHealthChecker(nil, nil, "").Check(context.Background())
		assert.Equal(t, StatusUnhealthy, status.Status)
	})

	t.Run("redis healthy", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		checker, mock := healthyDB(t)
		checker.redis = client
		expectHealthyDB(mock)

		status := checker.Check(context.Background())

		assert.Equal(t, StatusHealthy, status.Status)
		assert.Equal(t, StatusHealthy, status.Dependencies["redis"].Status)
	})

	t.Run("redis down only degrades", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		defer client.Close()
		mr.Close()

		checker, mock := healthyDB(t)
		checker.redis = client
		expectHealthyDB(mock)

		status := checker.Check(context.Background())

		assert.Equal(t, StatusDegraded, status.Status)
		assert.Equal(t, StatusUnhealthy, status.Dependencies["redis"].Status)
	})
}

func TestHealthChecker_Readiness(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		checker, mock := healthyDB(t)
		expectHealthyDB(mock)

		rr := httptest.NewRecorder()
		checker.Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		var status HealthStatus
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
		assert.Equal(t, StatusHealthy, status.Status)
	})

	t.Run("not ready", func(t *testing.T) {
		checker, mock := healthyDB(t)
		mock.ExpectPing().WillReturnError(errors.New("down"))

		rr := httptest.NewRecorder()
		checker.Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestRegisterHealthRoutes(t *testing.T) {
	checker, mock := healthyDB(t)
	serveMux := http.NewServeMux()
	RegisterHealthRoutes(serveMux, checker)

	rr := httptest.NewRecorder()
	serveMux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	expectHealthyDB(mock)
	rr = httptest.NewRecorder()
	serveMux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestWorse(t *testing.T) {
	assert.Equal(t, StatusDegraded, worse(StatusHealthy, StatusDegraded))
	assert.Equal(t, StatusUnhealthy, worse(StatusUnhealthy, StatusDegraded))
	assert.Equal(t, StatusHealthy, worse(StatusHealthy, StatusHealthy))
}
