package auth

import (
	"context"

	"github.com/platinummonkey/taskboard/pkg/contextkeys"
)

// IdentityResolver resolves the authenticated user of a request. Operations
// receive the request context explicitly and ask the resolver; nothing reads
// ambient global state.
type IdentityResolver interface {
	ResolveCurrentUser(ctx context.Context) (*User, error)
}

// ContextResolver resolves the user placed in the context by the HTTP
// authentication middleware
type ContextResolver struct{}

// ResolveCurrentUser returns the context user or ErrUnauthenticated
func (ContextResolver) ResolveCurrentUser(ctx context.Context) (*User, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// WithUser stores user in ctx
func WithUser(ctx context.Context, user *User) context.Context {
	ctx = contextkeys.WithUser(ctx, user)
	if user != nil {
		ctx = contextkeys.WithUserID(ctx, user.ID)
	}
	return ctx
}

// UserFromContext extracts the authenticated user from ctx
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := contextkeys.User(ctx).(*User)
	if !ok || user == nil || user.ID == "" {
		return nil, false
	}
	return user, true
}
