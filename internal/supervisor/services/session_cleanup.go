// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/telemon/internal/logging"
)

// SessionPruner deletes sessions that expired before cutoff.
type SessionPruner interface {
	DeleteExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionCleanupService prunes the sessions table on an interval. Expired
// sessions are already rejected at authentication; this only bounds table growth.
type SessionCleanupService struct {
	store    SessionPruner
	interval time.Duration
	// retention keeps recently ended sessions around for inspection.
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewSessionCleanupService creates the service. A non-positive interval becomes one hour.
func NewSessionCleanupService(store SessionPruner, interval time.Duration) *SessionCleanupService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionCleanupService{
		store:     store,
		interval:  interval,
		retention: 24 * time.Hour,
		now:       time.Now,
		log:       logging.WithComponent("session-cleanup"),
	}
}

// Serve implements suture.Service. A failed prune is logged and retried on
// the next tick.
func (s *SessionCleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.prune(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.prune(ctx)
		}
	}
}

func (s *SessionCleanupService) prune(ctx context.Context) {
	cutoff := s.now().UTC().Add(-s.retention)
	n, err := s.store.DeleteExpiredSessions(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn().Err(err).Msg("Session cleanup failed")
		}
		return
	}
	if n > 0 {
		s.log.Debug().Int64("deleted", n).Msg("Pruned expired sessions")
	}
}

func (s *SessionCleanupService) String() string {
	return "session-cleanup"
}
