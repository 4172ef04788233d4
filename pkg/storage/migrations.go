package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id VARCHAR(36) PRIMARY KEY,
					email VARCHAR(320) NOT NULL UNIQUE,
					name VARCHAR(255) NOT NULL,
					role VARCHAR(32) NOT NULL DEFAULT 'user',
					password_hash TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);
			`,
		},
		{
			Version:     2,
			Description: "Create sessions table",
			SQL: `
				CREATE TABLE IF NOT EXISTS sessions (
					id VARCHAR(36) PRIMARY KEY,
					user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					token_hash VARCHAR(64) NOT NULL UNIQUE,
					token_prefix VARCHAR(16) NOT NULL,
					expires_at TIMESTAMP NOT NULL,
					created_at TIMESTAMP NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
				CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
			`,
		},
		{
			Version:     3,
			Description: "Create todos table",
			SQL: `
				CREATE TABLE IF NOT EXISTS todos (
					id VARCHAR(36) PRIMARY KEY,
					owner_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					status VARCHAR(32) NOT NULL DEFAULT 'draft',
					version BIGINT NOT NULL DEFAULT 1,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_todos_owner_id ON todos(owner_id, created_at);
				CREATE INDEX IF NOT EXISTS idx_todos_created_at ON todos(created_at);
			`,
		},
		{
			Version:     4,
			Description: "Add idempotency keys to todos",
			SQL: `
				ALTER TABLE todos ADD COLUMN idempotency_key VARCHAR(255);

				CREATE UNIQUE INDEX IF NOT EXISTS idx_todos_owner_idempotency_key
					ON todos(owner_id, idempotency_key);
			`,
		},
		{
			Version:     5,
			Description: "Create audit events table",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_events (
					id VARCHAR(36) PRIMARY KEY,
					occurred_at TIMESTAMP NOT NULL,
					event_type VARCHAR(64) NOT NULL,
					status VARCHAR(16) NOT NULL,
					user_id VARCHAR(36) NOT NULL DEFAULT '',
					user_role VARCHAR(32) NOT NULL DEFAULT '',
					resource_id VARCHAR(255) NOT NULL DEFAULT '',
					reason VARCHAR(64) NOT NULL DEFAULT '',
					request_id VARCHAR(100) NOT NULL DEFAULT '',
					message TEXT NOT NULL DEFAULT ''
				);

				CREATE INDEX IF NOT EXISTS idx_audit_events_occurred_at ON audit_events(occurred_at);
				CREATE INDEX IF NOT EXISTS idx_audit_events_user_id ON audit_events(user_id, occurred_at);
			`,
		},
	}
}

// RunMigrations applies every pending migration and returns how many ran.
// Each migration runs in its own transaction.
func RunMigrations(ctx context.Context, db *sql.DB) (int, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}

		if err := applyMigration(ctx, db, migration); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// AppliedVersions returns the set of migration versions already recorded
func AppliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func applyMigration(ctx context.Context, db *sql.DB, migration Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to run migration %d (%s): %w", migration.Version, migration.Description, err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, description, applied_at) VALUES ($1, $2, $3)",
		migration.Version, migration.Description, time.Now().UTC(),
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
	}
	return nil
}
