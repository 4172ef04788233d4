// Package storage opens the relational database and Redis connections used by
// taskboard and owns the schema.
//
// Two SQL drivers are supported: "postgres" (github.com/lib/pq) for deployed
// instances and "sqlite3" (github.com/mattn/go-sqlite3) for local development
// and tests. The schema and every query in the repository are written in the
// common subset of both dialects: "$N" placeholders numbered in order of
// appearance, TIMESTAMP columns written in UTC, and INSERT ... ON CONFLICT
// against unique indexes.
//
// # Usage
//
//	db, err := storage.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	if _, err := storage.RunMigrations(ctx, db); err != nil {
//		return err
//	}
//
// Redis is optional. When RedisURL is set, NewRedisClient returns a connected
// client used by the list cache and its cross-instance invalidation channel.
package storage
