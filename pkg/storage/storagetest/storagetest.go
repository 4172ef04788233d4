// Package storagetest provides database fixtures for package tests
package storagetest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/platinummonkey/taskboard/pkg/storage"
)

// NewSQLiteDB returns a migrated in-memory SQLite database closed at test cleanup
func NewSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := storage.DefaultConfig()
	cfg.Driver = storage.DriverSQLite
	cfg.DSN = ":memory:"

	db, err := storage.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := storage.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}
