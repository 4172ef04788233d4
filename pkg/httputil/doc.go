// Package httputil provides HTTP utilities for JSON request and response
// handling and the request-scoped middleware chain.
//
// Responses:
//
//	httputil.WriteSuccess(w, todo)
//	httputil.WriteForbidden(w, "operation not permitted")
//
// Errors use the envelope {"error": "..."}. WriteInternalError never exposes
// the underlying cause.
//
// Requests:
//
//	var req createTodoRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//	id, ok := httputil.ParsePathStringOrError(w, r, "id")
//
// Middleware:
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		httputil.MaxBytesMiddleware(1<<20),
//	)
package httputil
