package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/taskboard/pkg/audit"
	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/observability"
	"github.com/platinummonkey/taskboard/pkg/storage"
)

const envPrefix = "TASKBOARD_"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Session and identity provider configuration
	Auth AuthConfig

	// Audit trail configuration
	Audit AuditConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// Addr returns the API listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// HealthAddr returns the health and metrics listen address
func (s ServerConfig) HealthAddr() string {
	return s.Host + ":" + s.HealthPort
}

// AuthConfig holds session and login settings
type AuthConfig struct {
	SessionTTL      time.Duration
	CookieName      string
	CookieSecure    bool
	CleanupSchedule string // cron schedule for expired-session cleanup

	// Login and registration throttling, per client address
	RateLimit float64 // requests per second
	RateBurst int

	OIDC auth.OIDCConfig
}

// AuditConfig holds audit trail settings
type AuditConfig struct {
	Enabled       bool
	Retention     time.Duration
	PruneSchedule string // cron schedule
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
	OTelSampleRatio    float64
}

// OTel converts the settings to the tracing bootstrap config
func (o ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
		SampleRatio:    o.OTelSampleRatio,
	}
}

// LoadConfig loads configuration from TASKBOARD_* environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Auth:          loadAuthConfig(),
		Audit:         loadAuditConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("HOST", "0.0.0.0"),
		Port:            getEnv("PORT", "8080"),
		ReadTimeout:     getEnvDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("HEALTH_PORT", "9090"),
	}
}

func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	cfg.Driver = getEnv("DB_DRIVER", cfg.Driver)
	cfg.DSN = getEnv("DB_URL", cfg.DSN)
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns := getEnvInt("DB_MIN_CONNS", 0); minConns > 0 {
		cfg.MinConns = minConns
	}
	if lifetime := getEnvDuration("DB_CONN_MAX_LIFETIME", 0); lifetime > 0 {
		cfg.MaxLifetime = lifetime
	}

	// Redis config
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	if redisDB := getEnvInt("REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}

	// Cache config
	cfg.CacheEnabled = getEnvBool("LIST_CACHE_ENABLED", cfg.CacheEnabled)
	if size := getEnvInt("LIST_CACHE_SIZE", 0); size > 0 {
		cfg.L1CacheSize = size
	}
	if ttl := getEnvDuration("LIST_CACHE_TTL", 0); ttl > 0 {
		cfg.CacheTTL = ttl
	}

	return cfg
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		SessionTTL:      getEnvDuration("SESSION_TTL", auth.DefaultSessionTTL),
		CookieName:      getEnv("SESSION_COOKIE_NAME", "taskboard_session"),
		CookieSecure:    getEnvBool("SESSION_COOKIE_SECURE", false),
		CleanupSchedule: getEnv("SESSION_CLEANUP_SCHEDULE", "@every 15m"),
		RateLimit:       getEnvFloat("AUTH_RATE_LIMIT", 1),
		RateBurst:       getEnvInt("AUTH_RATE_BURST", 10),
		OIDC: auth.OIDCConfig{
			IssuerURL:    getEnv("OIDC_ISSUER", ""),
			ClientID:     getEnv("OIDC_CLIENT_ID", ""),
			ClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("OIDC_REDIRECT_URL", ""),
		},
	}
}

func loadAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:       getEnvBool("AUDIT_ENABLED", true),
		Retention:     getEnvDuration("AUDIT_RETENTION", audit.DefaultRetention),
		PruneSchedule: getEnv("AUDIT_PRUNE_SCHEDULE", "@daily"),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("OTEL_SERVICE_NAME", "taskboard"),
		OTelServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("OTEL_SAMPLE_RATIO", 1),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Storage.Driver {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		return fmt.Errorf("invalid database driver: %s (must be %s or %s)",
			c.Storage.Driver, storage.DriverSQLite, storage.DriverPostgres)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.Storage.CacheEnabled && c.Storage.L1CacheSize <= 0 {
		return fmt.Errorf("list cache size must be positive when the cache is enabled")
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}
	if c.Auth.RateLimit <= 0 || c.Auth.RateBurst <= 0 {
		return fmt.Errorf("auth rate limit and burst must be positive")
	}
	oidc := c.Auth.OIDC
	if oidc.IssuerURL != "" || oidc.ClientID != "" {
		if !oidc.Enabled() || oidc.RedirectURL == "" {
			return fmt.Errorf("OIDC requires issuer, client ID and redirect URL together")
		}
	}

	if c.Audit.Enabled && c.Audit.Retention <= 0 {
		return fmt.Errorf("audit retention must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
