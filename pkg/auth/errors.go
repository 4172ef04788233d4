package auth

import "errors"

var (
	// ErrUnauthenticated means no valid identity could be resolved for the request
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an email that already exists
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound is returned by user lookups that match no row
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound is returned by session lookups that match no row
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput is returned for malformed registration fields
	ErrInvalidInput = errors.New("invalid input")
)
