package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role is the single authorization attribute of a user
type Role string

const (
	RoleUser    Role = "user"    // Owns and manages personal todos
	RoleManager Role = "manager" // Read-only view of every todo
	RoleAdmin   Role = "admin"   // Views and deletes any todo
)

// Roles lists every recognized role
func Roles() []Role {
	return []Role{RoleUser, RoleManager, RoleAdmin}
}

// Valid reports whether r is one of the recognized roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts a string to a Role, rejecting unknown values
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User represents an account known to the identity provider
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"` // Never expose hash
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is a server-side login session. Only the token hash is persisted.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	TokenHash   string    `json:"-"`
	TokenPrefix string    `json:"token_prefix"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Expired reports whether the session is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// NormalizeEmail lower-cases and trims an email address for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
