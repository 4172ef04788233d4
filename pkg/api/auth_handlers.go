package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/contextkeys"
	"github.com/platinummonkey/taskboard/pkg/httputil"
	"github.com/platinummonkey/taskboard/pkg/middleware"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/rbac"
)

const (
	oidcStateCookie = "taskboard_oidc_state"
	oidcStateTTL    = 10 * time.Minute

	// oidcLandingPath is where a completed external login lands
	oidcLandingPath = "/ui/todos"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	service      *auth.Service
	oidc         *auth.OIDCProvider
	required     *middleware.AuthMiddleware
	limiter      middleware.Limiter
	cookieName   string
	cookieSecure bool
}

// NewAuthHandlers creates a new auth handlers instance. oidc and limiter may be nil.
func NewAuthHandlers(service *auth.Service, oidc *auth.OIDCProvider, required *middleware.AuthMiddleware, limiter middleware.Limiter, cookieName string, cookieSecure bool) *AuthHandlers {
	return &AuthHandlers{
		service:      service,
		oidc:         oidc,
		required:     required,
		limiter:      limiter,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
	}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.Handle("/auth/register", h.limited(h.register)).Methods(http.MethodPost)
	router.Handle("/auth/login", h.limited(h.login)).Methods(http.MethodPost)
	router.Handle("/auth/logout", h.required.Handler(http.HandlerFunc(h.logout))).Methods(http.MethodPost)
	router.Handle("/auth/me", h.required.Handler(http.HandlerFunc(h.me))).Methods(http.MethodGet)

	if h.oidc != nil {
		router.HandleFunc("/auth/oidc/login", h.oidcLogin).Methods(http.MethodGet)
		router.HandleFunc("/auth/oidc/callback", h.oidcCallback).Methods(http.MethodGet)
	}
}

func (h *AuthHandlers) limited(fn http.HandlerFunc) http.Handler {
	if h.limiter == nil {
		return fn
	}
	return middleware.RateLimit(h.limiter)(fn)
}

// register handles POST /auth/register. New accounts always get the user role.
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Name, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		httputil.WriteBadRequest(w, err.Error())
		return
	case errors.Is(err, auth.ErrEmailTaken):
		httputil.WriteConflict(w, err.Error())
		return
	case err != nil:
		observability.FromContext(r.Context()).WithError(err).Error("registration failed")
		httputil.WriteInternalError(w)
		return
	}

	observability.FromContext(r.Context()).WithField("user_id", user.ID).Info("user registered")
	httputil.WriteCreated(w, user)
}

// login handles POST /auth/login. The token is returned in the body and set
// as the session cookie.
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	session, token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		observability.FromContext(r.Context()).Warn("login rejected")
		httputil.WriteUnauthorized(w, err.Error())
		return
	}
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("login failed")
		httputil.WriteInternalError(w)
		return
	}

	httputil.SetSessionCookie(w, h.cookieName, token, session.ExpiresAt, h.cookieSecure)
	httputil.WriteSuccess(w, loginResponse{Token: token, ExpiresAt: session.ExpiresAt, User: user})
}

// logout handles POST /auth/logout
func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	token := contextkeys.GetSessionToken(r.Context())
	if err := h.service.Logout(r.Context(), token); err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("logout failed")
		httputil.WriteInternalError(w)
		return
	}
	httputil.ClearCookie(w, h.cookieName, h.cookieSecure)
	httputil.WriteNoContent(w)
}

// me handles GET /auth/me
func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	httputil.WriteSuccess(w, meResponse{User: user, CanCreate: rbac.CanCreate(user)})
}

// oidcLogin handles GET /auth/oidc/login
func (h *AuthHandlers) oidcLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oidcStateCookie,
		Value:    state,
		Path:     "/auth/oidc",
		Expires:  time.Now().Add(oidcStateTTL),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oidc.AuthCodeURL(state), http.StatusFound)
}

// oidcCallback handles GET /auth/oidc/callback
func (h *AuthHandlers) oidcCallback(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())

	cookie, err := r.Cookie(oidcStateCookie)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		logger.Warn("oidc callback state mismatch")
		httputil.WriteUnauthorized(w, "invalid login state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oidcStateCookie, Value: "", Path: "/auth/oidc", MaxAge: -1})

	session, token, user, err := h.oidc.Exchange(r.Context(), r.URL.Query().Get("code"))
	switch {
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidInput):
		logger.WithError(err).Warn("oidc login rejected")
		httputil.WriteUnauthorized(w, "external login failed")
		return
	case err != nil:
		logger.WithError(err).Error("oidc login failed")
		httputil.WriteInternalError(w)
		return
	}

	logger.WithField("user_id", user.ID).Info("oidc login completed")
	httputil.SetSessionCookie(w, h.cookieName, token, session.ExpiresAt, h.cookieSecure)
	http.Redirect(w, r, oidcLandingPath, http.StatusSeeOther)
}
