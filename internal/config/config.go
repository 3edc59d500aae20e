// Package config loads the service configuration from environment variables
// with defaults, and validates every setting on startup to fail fast on
// misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Validation ValidationConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout bounds reading a request, feed upload included (default: 2m)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"2m"`

	// WriteTimeout bounds writing a response (default: 15m, validations are synchronous)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"15m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RateLimit is the number of requests per minute allowed per client IP; 0 disables (default: 120)
	RateLimit int `env:"SERVER_RATE_LIMIT" default:"120"`
}

// DatabaseConfig holds database connection settings. An empty URL runs the
// service without persisting run summaries.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// Enabled reports whether run summaries are persisted.
func (c *DatabaseConfig) Enabled() bool { return c.URL != "" }

// ValidationConfig holds feed validation settings.
type ValidationConfig struct {
	// Threads is the number of tables loaded and validated at once (default: 1)
	Threads int `env:"VALIDATION_THREADS" default:"1"`

	// CountryCode is the ISO alpha-2 region used for phone numbers; empty means unknown
	CountryCode string `env:"VALIDATION_COUNTRY_CODE"`

	// MaxNoticesPerCode caps the notices kept per code; 0 keeps all (default: 10000)
	MaxNoticesPerCode int `env:"VALIDATION_MAX_NOTICES_PER_CODE" default:"10000"`

	// MaxFeedSize is the largest accepted upload in bytes (default: 512MB)
	MaxFeedSize int64 `env:"VALIDATION_MAX_FEED_SIZE" default:"536870912"`

	// MaxConcurrent is the number of validations run at once (default: 2)
	MaxConcurrent int `env:"VALIDATION_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long a request waits for a validation slot (default: 30s)
	MaxWaitTime time.Duration `env:"VALIDATION_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single validation run (default: 10m)
	Timeout time.Duration `env:"VALIDATION_TIMEOUT" default:"10m"`

	// RetainRuns is how many finished runs are kept in memory (default: 100)
	RetainRuns int `env:"VALIDATION_RETAIN_RUNS" default:"100"`
}

// SecurityConfig holds request authentication and proxy settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP and X-Forwarded-For headers are honored
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey protects the /api routes with the X-API-Key header (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
