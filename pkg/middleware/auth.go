package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/contextkeys"
	"github.com/platinummonkey/taskboard/pkg/httputil"
	"github.com/platinummonkey/taskboard/pkg/observability"
)

// ErrMalformedAuthorization is returned for an Authorization header that is
// not a bearer credential
var ErrMalformedAuthorization = errors.New("invalid authorization header format")

// TokenResolver maps a session token to its user
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*auth.User, error)
}

// AuthMiddleware authenticates requests by session token
type AuthMiddleware struct {
	resolver   TokenResolver
	cookieName string
	optional   bool // If true, requests without a valid session continue anonymously
}

// NewAuthMiddleware creates an authentication middleware. The token is read
// from a bearer Authorization header, then from the cookieName cookie.
func NewAuthMiddleware(resolver TokenResolver, cookieName string, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		resolver:   resolver,
		cookieName: cookieName,
		optional:   optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := TokenFromRequest(r, m.cookieName)
		if err != nil {
			httputil.WriteUnauthorized(w, err.Error())
			return
		}
		if token == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}

		user, err := m.resolver.ResolveToken(r.Context(), token)
		switch {
		case errors.Is(err, auth.ErrUnauthenticated):
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "invalid or expired session")
			return
		case err != nil:
			observability.FromContext(r.Context()).WithError(err).Error("failed to resolve session")
			httputil.WriteInternalError(w)
			return
		}

		ctx := auth.WithUser(r.Context(), user)
		ctx = contextkeys.WithSessionToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenFromRequest extracts the session token. An empty token with a nil
// error means the request carries no credential.
func TokenFromRequest(r *http.Request, cookieName string) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return "", ErrMalformedAuthorization
		}
		return token, nil
	}

	if cookieName == "" {
		return "", nil
	}
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", nil
	}
	return cookie.Value, nil
}
