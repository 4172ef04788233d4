package storage

import "time"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config for the storage backends
type Config struct {
	Driver string
	DSN    string

	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration

	// Redis config. An empty RedisURL disables the shared cache tier.
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RedisMaxRetries int
	RedisPoolSize   int

	// List cache config
	CacheEnabled bool
	CacheTTL     time.Duration
	L1CacheSize  int // Entries
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Driver:          DriverSQLite,
		DSN:             "file:taskboard.db?_busy_timeout=5000",
		MaxConns:        20,
		MinConns:        2,
		Timeout:         10 * time.Second,
		MaxLifetime:     30 * time.Minute,
		MaxIdleTime:     5 * time.Minute,
		RedisDB:         0,
		RedisMaxRetries: 3,
		RedisPoolSize:   10,
		CacheEnabled:    true,
		CacheTTL:        30 * time.Second,
		L1CacheSize:     1024,
	}
}
