package todos

import (
	"errors"

	"github.com/platinummonkey/taskboard/pkg/auth"
)

var (
	// ErrUnauthenticated means the request carries no valid identity
	ErrUnauthenticated = auth.ErrUnauthenticated
	// ErrForbidden means the permission engine denied the operation
	ErrForbidden = errors.New("operation not permitted")
	// ErrNotFound means the todo does not exist or was concurrently deleted
	ErrNotFound = errors.New("todo not found")
	// ErrInvalidInput means a supplied field is malformed
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict means the todo changed between the permission check and the write
	ErrConflict = errors.New("todo was modified concurrently")
)
