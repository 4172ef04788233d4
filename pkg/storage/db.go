package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Open connects to the configured database, applies pool settings and pings it
func Open(ctx context.Context, config Config) (*sql.DB, error) {
	switch config.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}
	if config.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", config.Driver, err)
	}

	if config.Driver == DriverSQLite && isMemoryDSN(config.DSN) {
		// Every connection to an in-memory database is a separate database,
		// so the single connection must never be recycled.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		configurePool(db, config)
	}

	pingCtx := ctx
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", config.Driver, err)
	}

	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func configurePool(db *sql.DB, config Config) {
	if config.MaxConns > 0 {
		db.SetMaxOpenConns(config.MaxConns)
	}
	if config.MinConns > 0 {
		db.SetMaxIdleConns(config.MinConns)
	}
	if config.MaxLifetime > 0 {
		db.SetConnMaxLifetime(config.MaxLifetime)
	}
	if config.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(config.MaxIdleTime)
	}
}
