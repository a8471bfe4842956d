// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"time"
	_ "time/tzdata" // ANALYSIS_PERIOD_TZ must resolve on hosts without zoneinfo

	"github.com/criskgs/analiza-camion/internal/core"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Analysis AnalysisConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 60s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"60s"`

	// WriteTimeout is the maximum duration for writing response (default: 120s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"120s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 120s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"120s"`
}

// UploadConfig holds report upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum size of one upload request in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxFiles is the maximum number of files in one batch (default: 50)
	MaxFiles int `env:"UPLOAD_MAX_FILES" default:"50"`

	// MaxConcurrent is the maximum number of batches processed at once (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a batch waits for a processing slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// AnalysisConfig holds the defaults offered on the analysis form.
type AnalysisConfig struct {
	// MinKm is the absolute low-mileage threshold (default: 500)
	MinKm float64 `env:"ANALYSIS_MIN_KM" default:"500"`

	// DistanceSource is gps, can or auto (default: auto)
	DistanceSource string `env:"ANALYSIS_DISTANCE_SOURCE" default:"auto"`

	// IdleMode is period, days or percent (default: period)
	IdleMode string `env:"ANALYSIS_IDLE_MODE" default:"period"`

	// IdleDays is the day count used by the days idle mode (default: 1)
	IdleDays float64 `env:"ANALYSIS_IDLE_DAYS" default:"1"`

	// IdlePercent is the idle share of engine time used by the percent mode (default: 25)
	IdlePercent float64 `env:"ANALYSIS_IDLE_PERCENT" default:"25"`

	// PeriodTimezone is the IANA zone report timestamps are read in (default: UTC)
	PeriodTimezone string `env:"ANALYSIS_PERIOD_TZ" default:"UTC"`
}

// SessionConfig holds in-memory session settings.
type SessionConfig struct {
	// IdleTTL is how long an unused session is kept (default: 2h)
	IdleTTL time.Duration `env:"SESSION_IDLE_TTL" default:"2h"`

	// SweepInterval is how often idle sessions are dropped (default: 5m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`

	// MaxLive is how many sessions may exist at once (default: 1000)
	MaxLive int `env:"SESSION_MAX_LIVE" default:"1000"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects the /api routes with X-API-Key (default: false)
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
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// Location resolves PeriodTimezone. Validate rejects unknown zones, so the
// UTC fallback only applies to configs built by hand.
func (c *AnalysisConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.PeriodTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Request builds the default analysis request from the configured values.
func (c *AnalysisConfig) Request() core.AnalysisRequest {
	return core.AnalysisRequest{
		MinKm:  c.MinKm,
		Source: core.ParseDistanceSource(c.DistanceSource),
		Idle: core.IdlePolicy{
			Mode:    core.ParseIdleMode(c.IdleMode),
			Days:    c.IdleDays,
			Percent: c.IdlePercent,
		},
	}
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
