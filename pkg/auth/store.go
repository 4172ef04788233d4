package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/taskboard/pkg/storage"
)

// Store handles user and session persistence
type Store struct {
	db *sql.DB
}

// NewStore creates a new auth store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const userColumns = `id, email, name, role, password_hash, created_at, updated_at`

// CreateUser inserts a new user row. The caller supplies the ID.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, name, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		string(user.Role),
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if storage.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by normalized email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, NormalizeEmail(email)))
}

// SetRole changes a user's role. This is the privileged administrative path;
// no HTTP route calls it.
func (s *Store) SetRole(ctx context.Context, email string, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	query := `UPDATE users SET role = $1, updated_at = $2 WHERE email = $3`
	result, err := s.db.ExecContext(ctx, query, string(role), time.Now().UTC(), NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetPassword replaces a user's password hash
func (s *Store) SetPassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreateSession stores a new session
func (s *Store) CreateSession(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO sessions (id, user_id, token_hash, token_prefix, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.TokenPrefix,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSessionByHash looks a session up by token hash
func (s *Store) GetSessionByHash(ctx context.Context, tokenHash string) (*Session, error) {
	query := `
		SELECT id, user_id, token_hash, token_prefix, expires_at, created_at
		FROM sessions
		WHERE token_hash = $1
	`

	var session Session
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.TokenPrefix,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// DeleteSessionByHash removes a session. Deleting an unknown session is not an error.
func (s *Store) DeleteSessionByHash(ctx context.Context, tokenHash string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes every session that expired before now
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var user User
	var role string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&role,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	// Unknown stored roles pass through unchanged; the permission engine denies them.
	user.Role = Role(role)
	return &user, nil
}
