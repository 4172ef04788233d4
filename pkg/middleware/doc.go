// Package middleware provides HTTP middleware for session authentication and
// rate limiting.
//
// AuthMiddleware reads a session token from a bearer Authorization header or
// the session cookie and places the resolved user in the request context:
//
//	required := middleware.NewAuthMiddleware(authService, cfg.Auth.CookieName, false)
//	router.Handle("/auth/me", required.Handler(meHandler))
//
// In optional mode a missing or stale credential lets the request continue
// anonymously, and the todo service reports it as unauthenticated.
//
// RateLimit throttles each client IP with a Limiter. RateLimiter keeps token
// buckets in memory; DistributedRateLimiter counts fixed windows in Redis so
// that every instance enforces the same limit:
//
//	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
//	router.Handle("/auth/login", middleware.RateLimit(limiter)(loginHandler))
package middleware
