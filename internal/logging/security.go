// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// SecurityLogger writes authentication events with a fixed "security" tag.
// Usernames are truncated and control characters stripped before logging.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger on the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: With().Str("log_type", "security").Logger()}
}

// NewSecurityLoggerWithLogger creates a security logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("log_type", "security").Logger()}
}

func (l *SecurityLogger) LogLoginSuccess(userID int64, username, ip string) {
	l.logger.Info().
		Str("event", "login_success").
		Int64("user_id", userID).
		Str("username", sanitizeUsername(username)).
		Str("ip", ip).
		Msg("User logged in")
}

func (l *SecurityLogger) LogLoginFailure(username, ip, reason string) {
	l.logger.Warn().
		Str("event", "login_failure").
		Str("username", sanitizeUsername(username)).
		Str("ip", ip).
		Str("reason", reason).
		Msg("Login failed")
}

func (l *SecurityLogger) LogAccountLocked(username, ip string) {
	l.logger.Warn().
		Str("event", "account_locked").
		Str("username", sanitizeUsername(username)).
		Str("ip", ip).
		Msg("Account locked after repeated failures")
}

func (l *SecurityLogger) LogLogout(userID int64, sessionID, ip string) {
	l.logger.Info().
		Str("event", "logout").
		Int64("user_id", userID).
		Str("session_id", sessionID).
		Str("ip", ip).
		Msg("User logged out")
}

func (l *SecurityLogger) LogPermissionDenied(username, role, resource, action string) {
	l.logger.Warn().
		Str("event", "permission_denied").
		Str("username", sanitizeUsername(username)).
		Str("role", role).
		Str("resource", resource).
		Str("action", action).
		Msg("Permission denied")
}

const maxLoggedUsername = 64

func sanitizeUsername(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) > maxLoggedUsername {
		s = s[:maxLoggedUsername] + "..."
	}
	return s
}
