package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/contextkeys"
)

type fakeResolver struct {
	users map[string]*auth.User
	err   error
	calls int
}

func (f *fakeResolver) ResolveToken(_ context.Context, token string) (*auth.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[token]
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	return user, nil
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{users: map[string]*auth.User{
		"good-token": {ID: "u1", Email: "alice@example.com", Role: auth.RoleUser},
	}}
}

// echoUser writes the authenticated user ID or "anonymous"
func echoUser(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		assert.NotEmpty(t, contextkeys.GetSessionToken(r.Context()))
		_, _ = w.Write([]byte(user.ID))
	})
}

func TestAuthMiddleware_Required(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no credential",
			setup:      func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"authentication required"}`,
		},
		{
			name:       "bearer token",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer good-token") },
			wantStatus: http.StatusOK,
			wantBody:   "u1",
		},
		{
			name:       "lowercase scheme",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "bearer good-token") },
			wantStatus: http.StatusOK,
			wantBody:   "u1",
		},
		{
			name: "session cookie",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "taskboard_session", Value: "good-token"})
			},
			wantStatus: http.StatusOK,
			wantBody:   "u1",
		},
		{
			name:       "malformed header",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"invalid authorization header format"}`,
		},
		{
			name:       "unknown token",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer stale") },
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"invalid or expired session"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAuthMiddleware(newFakeResolver(), "taskboard_session", false)
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()

			m.Handler(echoUser(t)).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, jsonOrString(tt.wantBody), jsonOrString(w.Body.String()))
		})
	}
}

// jsonOrString lets plain bodies be compared with JSONEq
func jsonOrString(s string) string {
	if len(s) > 0 && s[0] == '{' {
		return s
	}
	return `"` + s + `"`
}

func TestAuthMiddleware_Optional(t *testing.T) {
	resolver := newFakeResolver()
	m := NewAuthMiddleware(resolver, "taskboard_session", true)

	t.Run("no credential continues anonymously", func(t *testing.T) {
		w := httptest.NewRecorder()
		m.Handler(echoUser(t)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("stale cookie continues anonymously", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "taskboard_session", Value: "expired"})
		w := httptest.NewRecorder()
		m.Handler(echoUser(t)).ServeHTTP(w, req)
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("valid token authenticates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		w := httptest.NewRecorder()
		m.Handler(echoUser(t)).ServeHTTP(w, req)
		assert.Equal(t, "u1", w.Body.String())
	})
}

func TestAuthMiddleware_ResolverFailure(t *testing.T) {
	resolver := newFakeResolver()
	resolver.err = errors.New("database is down")
	m := NewAuthMiddleware(resolver, "taskboard_session", true)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "database")
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	token, err := TokenFromRequest(req, "taskboard_session")
	require.NoError(t, err)
	assert.Empty(t, token)

	// the header wins over the cookie
	req.AddCookie(&http.Cookie{Name: "taskboard_session", Value: "from-cookie"})
	req.Header.Set("Authorization", "Bearer from-header")
	token, err = TokenFromRequest(req, "taskboard_session")
	require.NoError(t, err)
	assert.Equal(t, "from-header", token)

	req.Header.Set("Authorization", "Bearer ")
	_, err = TokenFromRequest(req, "taskboard_session")
	assert.ErrorIs(t, err, ErrMalformedAuthorization)
}
