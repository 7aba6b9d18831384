// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/telemon/internal/config"
	"github.com/tomtom215/telemon/internal/logging"
	"github.com/tomtom215/telemon/internal/metrics"
)

const breakerName = "duckdb"

func newBreaker(cfg *config.DatabaseConfig) *gobreaker.CircuitBreaker[struct{}] {
	failures := uint32(5)
	if cfg.BreakerFailures > 0 {
		failures = uint32(cfg.BreakerFailures)
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Missing rows, duplicates and caller cancellations say nothing about engine health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				isDomainError(err) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Database circuit breaker state changed")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})
}

// run executes fn through the breaker and records query metrics.
func (db *DB) run(operation, table string, fn func() error) error {
	start := time.Now()
	_, err := db.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})

	recorded := err
	if isDomainError(err) {
		recorded = nil
	}
	metrics.RecordDBQuery(operation, table, time.Since(start), recorded)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
