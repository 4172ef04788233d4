// Package api provides the JSON HTTP API.
//
// # Routes
//
//	POST   /auth/register       create an account (role user)
//	POST   /auth/login          open a session; returns the token and sets the cookie
//	POST   /auth/logout         end the current session
//	GET    /auth/me             current user and whether it may create todos
//	GET    /auth/oidc/login     start an external login (when configured)
//	GET    /auth/oidc/callback  finish an external login
//
//	GET    /todos               todos visible to the caller
//	POST   /todos               create a draft todo (optional Idempotency-Key header)
//	GET    /todos/{id}          one todo
//	PATCH  /todos/{id}          partial update of title, description or status
//	DELETE /todos/{id}          delete a todo
//
// Todo responses carry a capabilities object telling clients which controls
// to offer. It is advisory; the todo service decides every request again.
//
// # Errors
//
// Errors use the envelope {"error": "..."}. An unauthenticated caller gets
// 401. A denied operation and a missing todo both get 403 with the body
// {"error":"operation not permitted"}, so callers cannot probe which ids
// exist. Invalid fields get 400 and a write that lost a race gets 409.
package api
