package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/contextkeys"
	"github.com/platinummonkey/taskboard/pkg/httputil"
	"github.com/platinummonkey/taskboard/pkg/observability"
)

// LoginPage handles GET /ui/login
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, todosPath, http.StatusSeeOther)
		return
	}
	renderHTML(w, http.StatusOK, loginPage(csrfField(r), "", h.OIDCEnabled))
}

// LoginSubmit handles POST /ui/login
func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderHTML(w, http.StatusBadRequest, loginPage(csrfField(r), "invalid form", h.OIDCEnabled))
		return
	}
	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")

	session, token, _, err := h.Auth.Login(r.Context(), email, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		renderHTML(w, http.StatusUnauthorized, loginPage(csrfField(r), "invalid email or password", h.OIDCEnabled))
		return
	}
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("ui login failed")
		renderHTML(w, http.StatusInternalServerError, errorPage("Something went wrong", "internal server error"))
		return
	}

	httputil.SetSessionCookie(w, h.CookieName, token, session.ExpiresAt, h.Production)
	http.Redirect(w, r, todosPath, http.StatusSeeOther)
}

// Logout handles POST /ui/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := contextkeys.GetSessionToken(r.Context()); token != "" {
		if err := h.Auth.Logout(r.Context(), token); err != nil {
			observability.FromContext(r.Context()).WithError(err).Warn("ui logout failed")
		}
	}
	httputil.ClearCookie(w, h.CookieName, h.Production)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}
