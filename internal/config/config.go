// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Security  SecurityConfig  `koanf:"security"`
	Lockout   LockoutConfig   `koanf:"lockout"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Report    ReportConfig    `koanf:"report"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development" or "production"
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"` // 0 = use NumCPU
	MaxOpenConns int    `koanf:"max_open_conns"`

	// Breaker settings for the query circuit breaker.
	BreakerFailures int           `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`

	// SeedAdminUsername/SeedAdminPassword create the first admin account
	// when the users table is empty.
	SeedAdminUsername string `koanf:"seed_admin_username"`
	SeedAdminPassword string `koanf:"seed_admin_password"`
}

// SecurityConfig holds authentication and rate limiting settings
type SecurityConfig struct {
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	BcryptCost     int           `koanf:"bcrypt_cost"`

	LoginRateLimitReqs   int           `koanf:"login_rate_limit_reqs"`
	LoginRateLimitWindow time.Duration `koanf:"login_rate_limit_window"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins    []string `koanf:"cors_origins"`
	TrustedProxies []string `koanf:"trusted_proxies"`

	CacheTTL time.Duration `koanf:"cache_ttl"` // authorization decision cache
}

// LockoutConfig controls per-username lockout after repeated failed logins.
type LockoutConfig struct {
	Enabled     bool          `koanf:"enabled"`
	MaxAttempts int           `koanf:"max_attempts"`
	Duration    time.Duration `koanf:"duration"`
	// Path enables the persistent Badger store; empty keeps state in memory.
	Path string `koanf:"path"`
}

// TelemetryConfig controls time-window bucketing.
type TelemetryConfig struct {
	TargetPoints int `koanf:"target_points"`
	MaxRawPoints int `koanf:"max_raw_points"`
}

// ReportConfig controls report generation.
type ReportConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	Caller bool `koanf:"caller"`
}

// Load reads the layered configuration and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
