// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

/*
Package config provides centralized configuration management for Telemon.

Configuration is loaded in layers with Koanf v2:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file (CONFIG_PATH, config.yaml, /etc/telemon/config.yaml)
 3. Environment variables, mapped explicitly to config keys

Later layers override earlier ones. Unknown environment variables are
ignored so that unrelated process environment never leaks into the
configuration.

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT
  - ENVIRONMENT: development or production (hides 500 error details)

Database:
  - DUCKDB_PATH: database file (":memory:" for ephemeral)
  - DUCKDB_MAX_MEMORY, DUCKDB_THREADS, DB_MAX_OPEN_CONNS
  - SEED_ADMIN_USERNAME, SEED_ADMIN_PASSWORD: bootstrap admin account

Security:
  - JWT_SECRET (>= 32 chars), SESSION_TIMEOUT, BCRYPT_COST
  - LOGIN_RATE_LIMIT_REQUESTS, LOGIN_RATE_LIMIT_WINDOW (default 5 per 15m)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - CORS_ORIGINS, TRUSTED_PROXIES (comma separated)
  - LOCKOUT_ENABLED, LOCKOUT_MAX_ATTEMPTS, LOCKOUT_DURATION, LOCKOUT_PATH

Telemetry and reports:
  - TELEMETRY_TARGET_POINTS, TELEMETRY_MAX_RAW_POINTS
  - REPORT_TIMEOUT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
*/
package config
