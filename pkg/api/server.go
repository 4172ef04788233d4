package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/httputil"
	"github.com/platinummonkey/taskboard/pkg/middleware"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/todos"
)

// maxRequestBytes bounds every request body
const maxRequestBytes = 1 << 20

// Options wires the API server
type Options struct {
	Auth  *auth.Service
	Todos *todos.Service

	// OIDC is nil when external login is disabled
	OIDC *auth.OIDCProvider
	// Limiter throttles the login and registration routes. Nil disables it.
	Limiter middleware.Limiter

	Metrics *observability.Metrics
	Logger  *observability.Logger

	CookieName   string
	CookieSecure bool
}

// Server represents our API server
type Server struct {
	router       *mux.Router
	logger       *observability.Logger
	authHandlers *AuthHandlers
	todoHandlers *TodoHandlers
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	optional := middleware.NewAuthMiddleware(opts.Auth, opts.CookieName, true)
	required := middleware.NewAuthMiddleware(opts.Auth, opts.CookieName, false)

	s := &Server{
		router:       mux.NewRouter(),
		logger:       opts.Logger,
		authHandlers: NewAuthHandlers(opts.Auth, opts.OIDC, required, opts.Limiter, opts.CookieName, opts.CookieSecure),
		todoHandlers: NewTodoHandlers(opts.Todos, optional),
	}

	s.router.Use(observability.HTTPMetricsMiddleware(opts.Metrics))
	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.authHandlers.RegisterRoutes(s.router)
	s.todoHandlers.RegisterRoutes(s.router)
}

// ServeHTTP implements http.Handler without the outer middleware chain
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the router wrapped in tracing, request IDs, access
// logging, panic recovery and the body size limit
func (s *Server) Handler() http.Handler {
	chain := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware,
		httputil.MaxBytesMiddleware(maxRequestBytes),
	)
	return otelhttp.NewHandler(chain(s.router), "taskboard.api")
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router)
}
