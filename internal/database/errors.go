// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package database

import (
	"errors"
	"io"

	"github.com/tomtom215/telemon/internal/logging"
)

var (
	// ErrNotFound is returned when a row does not exist or is inactive.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateMapping is returned when an active mapping already uses the
	// column or metric name for the same node/base station.
	ErrDuplicateMapping = errors.New("duplicate metric mapping")

	// ErrDuplicate is returned for unique-key conflicts (username, assignment).
	ErrDuplicate = errors.New("already exists")

	// ErrInvalidColumn is returned when a column is not a known sample column.
	ErrInvalidColumn = errors.New("unknown sample column")

	// ErrUnavailable is returned while the query circuit breaker is open.
	ErrUnavailable = errors.New("database unavailable")
)

// isDomainError reports errors that describe data, not engine health.
func isDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicateMapping) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrInvalidColumn)
}

// closeWithLog closes a resource and logs any error
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
