// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/taskboard/pkg/contextkeys"
//	ctx = contextkeys.WithUser(ctx, user)
//	user, ok := contextkeys.User(ctx).(*auth.User)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// UserKey contains *auth.User
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Required by: auth.ContextResolver, every todo operation
	// Type: *auth.User
	UserKey Key = "auth_user"

	// SessionTokenKey contains the raw session token string of the request
	// Set by: middleware.AuthMiddleware
	// Used by: logout handlers
	// Type: string
	SessionTokenKey Key = "session_token"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, error responses
	// Type: string
	RequestIDKey Key = "request_id"

	// UserIDKey contains user ID string
	// Set by: Auth middleware after user authentication
	// Used by: Logger
	// Type: string
	UserIDKey Key = "user_id"

	// LoggerKey contains *observability.Logger
	// Set by: httputil.LoggingMiddleware
	// Used by: Handlers and services that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"
)

// WithUser adds the authenticated user to the context
func WithUser(ctx context.Context, user interface{}) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// User returns the raw value stored under UserKey
func User(ctx context.Context) interface{} {
	return ctx.Value(UserKey)
}

// WithSessionToken adds the session token to the context
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, SessionTokenKey, token)
}

// GetSessionToken retrieves the session token from context
func GetSessionToken(ctx context.Context) string {
	if token, ok := ctx.Value(SessionTokenKey).(string); ok {
		return token
	}
	return ""
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithUserID adds user ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetUserID retrieves user ID from context
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}
