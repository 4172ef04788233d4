package ui

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	gomponents "maragu.dev/gomponents"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/middleware"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/todos"
)

const (
	loginPath = "/ui/login"
	todosPath = "/ui/todos"
)

// Handler serves the HTML pages. Controls are shown according to the
// capabilities of the viewer; every submitted form still goes through the
// todo service, which decides again.
type Handler struct {
	Auth        *auth.Service
	Todos       *todos.Service
	CookieName  string
	Production  bool
	OIDCEnabled bool

	authn   *middleware.AuthMiddleware
	limiter middleware.Limiter
}

// NewHandler creates the UI handler. limiter throttles the login form and may be nil.
func NewHandler(authService *auth.Service, todoService *todos.Service, limiter middleware.Limiter, cookieName string, production, oidcEnabled bool) *Handler {
	return &Handler{
		Auth:        authService,
		Todos:       todoService,
		CookieName:  cookieName,
		Production:  production,
		OIDCEnabled: oidcEnabled,
		authn:       middleware.NewAuthMiddleware(authService, cookieName, true),
		limiter:     limiter,
	}
}

// RegisterRoutes mounts the pages under /ui
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.Handle("/ui", http.RedirectHandler(todosPath, http.StatusSeeOther)).Methods(http.MethodGet)

	ui := router.PathPrefix("/ui").Subrouter()
	ui.Use(h.authn.Handler, h.EnsureCSRFToken, h.RequireCSRF)

	ui.HandleFunc("/login", h.LoginPage).Methods(http.MethodGet)
	ui.Handle("/login", h.limited(h.LoginSubmit)).Methods(http.MethodPost)
	ui.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)

	ui.HandleFunc("/todos", h.TodosList).Methods(http.MethodGet)
	ui.HandleFunc("/todos", h.TodoCreate).Methods(http.MethodPost)
	ui.HandleFunc("/todos/{id}/status", h.TodoStatus).Methods(http.MethodPost)
	ui.HandleFunc("/todos/{id}/delete", h.TodoDelete).Methods(http.MethodPost)
}

func (h *Handler) limited(fn http.HandlerFunc) http.Handler {
	if h.limiter == nil {
		return fn
	}
	return middleware.RateLimit(h.limiter)(fn)
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

// renderTodoError turns a todo service error into a page. Denied and
// missing todos render the same page.
func (h *Handler) renderTodoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, todos.ErrUnauthenticated):
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
	case errors.Is(err, todos.ErrForbidden), errors.Is(err, todos.ErrNotFound):
		renderHTML(w, http.StatusForbidden, errorPage("Not permitted", todos.ErrForbidden.Error()))
	case errors.Is(err, todos.ErrInvalidInput):
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid input", err.Error()))
	case errors.Is(err, todos.ErrConflict):
		renderHTML(w, http.StatusConflict, errorPage("Changed elsewhere", "The todo changed while you were editing it. Reload and try again."))
	default:
		observability.FromContext(r.Context()).WithError(err).Error("ui request failed")
		renderHTML(w, http.StatusInternalServerError, errorPage("Something went wrong", "internal server error"))
	}
}
