package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is used when the service is built with a zero TTL
const DefaultSessionTTL = 24 * time.Hour

// Service is the identity provider: registration, password login and
// session-token resolution.
type Service struct {
	store      *Store
	generator  *TokenGenerator
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService creates an identity service backed by store
func NewService(store *Store, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Service{
		store:      store,
		generator:  NewTokenGenerator(),
		sessionTTL: sessionTTL,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Store returns the underlying store
func (s *Service) Store() *Store {
	return s.store
}

// Register creates a new account with the default role. Callers cannot choose a role.
func (s *Service) Register(ctx context.Context, email, name, password string) (*User, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	return s.createUser(ctx, email, name, hash, RoleUser)
}

// Login verifies credentials and opens a session. The raw token is returned
// exactly once and never stored.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, string, *User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", nil, err
	}
	if user.PasswordHash == "" {
		// Accounts provisioned through OIDC have no local password.
		return nil, "", nil, ErrInvalidCredentials
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return nil, "", nil, err
	}

	session, token, err := s.OpenSession(ctx, user)
	if err != nil {
		return nil, "", nil, err
	}
	return session, token, user, nil
}

// OpenSession issues a new session for an already authenticated user
func (s *Service) OpenSession(ctx context.Context, user *User) (*Session, string, error) {
	token, tokenHash, tokenPrefix, err := s.generator.GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.now()
	session := &Session{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		TokenHash:   tokenHash,
		TokenPrefix: tokenPrefix,
		ExpiresAt:   now.Add(s.sessionTTL),
		CreatedAt:   now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, "", err
	}
	return session, token, nil
}

// Logout ends the session identified by token
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.generator.ValidateTokenFormat(token); err != nil {
		return ErrUnauthenticated
	}
	return s.store.DeleteSessionByHash(ctx, s.generator.HashToken(token))
}

// ResolveToken maps a raw session token to its user. The role is always read
// from the user row at request time.
func (s *Service) ResolveToken(ctx context.Context, token string) (*User, error) {
	if err := s.generator.ValidateTokenFormat(token); err != nil {
		return nil, ErrUnauthenticated
	}

	session, err := s.store.GetSessionByHash(ctx, s.generator.HashToken(token))
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, ErrUnauthenticated
	}

	user, err := s.store.GetUserByID(ctx, session.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CleanupExpiredSessions removes expired sessions and reports how many were deleted
func (s *Service) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now())
}

// FindOrProvision returns the user with email, creating a RoleUser account without
// a local password if none exists. Used by external identity providers.
func (s *Service) FindOrProvision(ctx context.Context, email, name string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: identity has no email", ErrInvalidInput)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		name = email
	}
	user, err = s.createUser(ctx, email, strings.TrimSpace(name), "", RoleUser)
	if errors.Is(err, ErrEmailTaken) {
		// Lost a race with a concurrent provision of the same identity.
		return s.store.GetUserByEmail(ctx, email)
	}
	return user, err
}

// SeedUser creates or updates an account with an explicit role. It backs the
// administrative CLI and must not be reachable from request handlers.
func (s *Service) SeedUser(ctx context.Context, email, name, password string, role Role) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		user, err = s.Register(ctx, email, name, password)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case password != "":
		hash, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		if err := s.store.SetPassword(ctx, user.ID, hash); err != nil {
			return nil, err
		}
	}

	if user.Role != role {
		if err := s.store.SetRole(ctx, user.Email, role); err != nil {
			return nil, err
		}
		user.Role = role
	}
	return user, nil
}

func (s *Service) createUser(ctx context.Context, email, name, passwordHash string, role Role) (*User, error) {
	now := s.now()
	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
