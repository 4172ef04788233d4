package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	limiter := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 3})
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, "ip:10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Second, retryAfter)

	// other clients have their own bucket
	allowed, _, _ = limiter.Allow(ctx, "ip:10.0.0.2")
	assert.True(t, allowed)

	now = start.Add(time.Second)
	allowed, _, _ = limiter.Allow(ctx, "ip:10.0.0.1")
	assert.True(t, allowed)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(DefaultRateLimitConfig())
	limiter.now = func() time.Time { return now }

	_, _, _ = limiter.Allow(context.Background(), "a")
	now = now.Add(time.Minute)
	_, _, _ = limiter.Allow(context.Background(), "b")

	limiter.Cleanup(30 * time.Second)
	assert.Equal(t, 1, limiter.Len())
}

func TestRateLimitConfig_Window(t *testing.T) {
	assert.Equal(t, 10*time.Second, DefaultRateLimitConfig().Window())
	assert.Equal(t, time.Second, RateLimitConfig{Burst: 5}.Window())
}

func TestDistributedRateLimiter_Allow(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	a := NewDistributedRateLimiter(client, RateLimitConfig{RequestsPerSecond: 1, Burst: 2}, "")
	b := NewDistributedRateLimiter(client, RateLimitConfig{RequestsPerSecond: 1, Burst: 2}, "")
	ctx := context.Background()

	allowed, _, err := a.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	// the count is shared between instances
	allowed, _, err = b.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, retryAfter, err := a.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))

	mr.FastForward(3 * time.Second)
	allowed, _, err = a.Allow(ctx, "ip:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, a.Reset(ctx, "ip:10.0.0.1"))
	assert.False(t, mr.Exists("taskboard:ratelimit:ip:10.0.0.1"))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return true, 0, errors.New("redis error: connection refused")
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(remoteAddr string, forwardedFor string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = remoteAddr
		if forwardedFor != "" {
			req.Header.Set("X-Forwarded-For", forwardedFor)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNoContent, send("192.0.2.1:1234", "").Code)

	// a new port or a forged header does not buy a new bucket
	w := send("192.0.2.1:5678", "198.51.100.7")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, send("192.0.2.2:1234", "").Code)

	t.Run("fails open", func(t *testing.T) {
		h := RateLimit(failingLimiter{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
