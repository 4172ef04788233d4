package ui

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"github.com/platinummonkey/taskboard/pkg/observability"
)

const (
	csrfCookieName = "taskboard_csrf"
	csrfFieldName  = "csrf_token"
	csrfTokenBytes = 32
)

// csrfEntropy is replaced in tests
var csrfEntropy io.Reader = rand.Reader

type csrfContextKey struct{}

// EnsureCSRFToken issues the double-submit cookie on the first visit and
// makes its value available to the forms of the page
func (h *Handler) EnsureCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := readCSRFCookie(r)
		if token == "" {
			var err error
			if token, err = newCSRFToken(); err != nil {
				observability.FromContext(r.Context()).WithError(err).Error("csrf token unavailable")
				renderHTML(w, http.StatusInternalServerError, errorPage("Something went wrong", "internal server error"))
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/ui",
				HttpOnly: true,
				Secure:   h.Production,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), csrfContextKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCSRF refuses a form post whose csrf_token field does not match the
// cookie. It runs before any handler so no todo operation sees the request.
func (h *Handler) RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		reason := ""
		cookieToken := readCSRFCookie(r)
		switch {
		case cookieToken == "":
			reason = "missing_cookie"
		case r.ParseForm() != nil:
			reason = "unreadable_form"
		case subtle.ConstantTimeCompare([]byte(cookieToken), []byte(strings.TrimSpace(r.Form.Get(csrfFieldName)))) != 1:
			reason = "token_mismatch"
		}
		if reason != "" {
			observability.FromContext(r.Context()).WithFields(map[string]interface{}{
				"path":   r.URL.Path,
				"reason": reason,
			}).Warn("csrf check failed")
			renderHTML(w, http.StatusForbidden, errorPage("CSRF check failed", "The form expired. Reload the page and try again."))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// csrfField is the hidden input every form on a page carries
func csrfField(r *http.Request) gomponents.Node {
	token, _ := r.Context().Value(csrfContextKey{}).(string)
	if token == "" {
		token = readCSRFCookie(r)
	}
	return html.Input(html.Type("hidden"), html.Name(csrfFieldName), html.Value(token))
}

func readCSRFCookie(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func newCSRFToken() (string, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := io.ReadFull(csrfEntropy, b); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
