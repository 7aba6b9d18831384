// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/telemon/internal/config"
	"github.com/tomtom215/telemon/internal/logging"
)

// ErrLockoutNotFound is returned when a lockout entry doesn't exist.
var ErrLockoutNotFound = errors.New("lockout entry not found")

// ErrAccountLocked is returned when authentication is blocked due to lockout.
var ErrAccountLocked = errors.New("account temporarily locked due to too many failed attempts")

// entryRetention is how long an unlocked entry is kept after its last failure.
const entryRetention = 24 * time.Hour

// LockoutEntry tracks failed login attempts for one username.
type LockoutEntry struct {
	Subject        string    `json:"subject"`
	FailedAttempts int       `json:"failed_attempts"`
	LastAttempt    time.Time `json:"last_attempt"`
	LockedUntil    time.Time `json:"locked_until"`
	LastFailedIP   string    `json:"last_failed_ip,omitempty"`
}

// IsLockedAt reports whether the entry is locked at now.
func (e *LockoutEntry) IsLockedAt(now time.Time) bool {
	return now.Before(e.LockedUntil)
}

// LockoutStore persists lockout entries.
type LockoutStore interface {
	GetEntry(ctx context.Context, subject string) (*LockoutEntry, error)
	SaveEntry(ctx context.Context, entry *LockoutEntry) error
	DeleteEntry(ctx context.Context, subject string) error
	CleanupExpired(ctx context.Context, before time.Time) (int, error)
}

// LockoutManager locks a username for a fixed period after MaxAttempts
// consecutive failed logins. Subjects are case-insensitive.
type LockoutManager struct {
	cfg   config.LockoutConfig
	store LockoutStore
	now   func() time.Time

	// serializes read-modify-write of a single entry
	mu sync.Mutex
}

// NewLockoutManager creates a lockout manager over store.
func NewLockoutManager(store LockoutStore, cfg config.LockoutConfig) *LockoutManager {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 15 * time.Minute
	}
	return &LockoutManager{cfg: cfg, store: store, now: time.Now}
}

func lockoutSubject(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Enabled reports whether lockout is active.
func (m *LockoutManager) Enabled() bool {
	return m.cfg.Enabled
}

// CheckLocked reports whether username is locked and for how much longer.
func (m *LockoutManager) CheckLocked(ctx context.Context, username string) (bool, time.Duration, error) {
	if !m.cfg.Enabled {
		return false, 0, nil
	}

	entry, err := m.store.GetEntry(ctx, lockoutSubject(username))
	if errors.Is(err, ErrLockoutNotFound) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("check lockout: %w", err)
	}

	now := m.now()
	if !entry.IsLockedAt(now) {
		return false, 0, nil
	}
	return true, entry.LockedUntil.Sub(now), nil
}

// RecordFailedAttempt counts a failure and reports whether the username is now locked.
func (m *LockoutManager) RecordFailedAttempt(ctx context.Context, username, ip string) (locked bool, remaining time.Duration, err error) {
	if !m.cfg.Enabled {
		return false, 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	subject := lockoutSubject(username)
	entry, err := m.store.GetEntry(ctx, subject)
	if err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return false, 0, fmt.Errorf("get entry: %w", err)
	}
	if entry == nil {
		entry = &LockoutEntry{Subject: subject}
	}

	now := m.now()
	if entry.IsLockedAt(now) {
		return true, entry.LockedUntil.Sub(now), nil
	}

	entry.FailedAttempts++
	entry.LastAttempt = now
	entry.LastFailedIP = ip

	if entry.FailedAttempts >= m.cfg.MaxAttempts {
		entry.LockedUntil = now.Add(m.cfg.Duration)
		entry.FailedAttempts = 0
		locked, remaining = true, m.cfg.Duration

		logging.Warn().
			Str("subject", subject).
			Dur("duration", m.cfg.Duration).
			Msg("Account locked")
	}

	if err := m.store.SaveEntry(ctx, entry); err != nil {
		return false, 0, fmt.Errorf("save entry: %w", err)
	}
	return locked, remaining, nil
}

// RecordSuccessfulLogin clears the failure count for username.
func (m *LockoutManager) RecordSuccessfulLogin(ctx context.Context, username string) error {
	if !m.cfg.Enabled {
		return nil
	}
	if err := m.store.DeleteEntry(ctx, lockoutSubject(username)); err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return fmt.Errorf("clear lockout: %w", err)
	}
	return nil
}

// Serve periodically removes stale entries until ctx is canceled.
// It satisfies suture.Service.
func (m *LockoutManager) Serve(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.cleanup(ctx)
		}
	}
}

func (m *LockoutManager) cleanup(ctx context.Context) {
	count, err := m.store.CleanupExpired(ctx, m.now().Add(-entryRetention))
	if err != nil {
		logging.Error().Err(err).Msg("Lockout cleanup error")
		return
	}
	if count > 0 {
		logging.Info().Int("count", count).Msg("Cleaned up expired lockout entries")
	}
}

// String names the service in supervisor logs.
func (m *LockoutManager) String() string {
	return "lockout-cleanup"
}

// MemoryLockoutStore implements LockoutStore in memory.
// State is lost on restart.
type MemoryLockoutStore struct {
	entries map[string]LockoutEntry
	mu      sync.RWMutex
}

// NewMemoryLockoutStore creates an empty in-memory store.
func NewMemoryLockoutStore() *MemoryLockoutStore {
	return &MemoryLockoutStore{entries: make(map[string]LockoutEntry)}
}

// GetEntry returns a copy of the entry for subject.
func (s *MemoryLockoutStore) GetEntry(_ context.Context, subject string) (*LockoutEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[subject]
	if !ok {
		return nil, ErrLockoutNotFound
	}
	return &entry, nil
}

// SaveEntry stores a copy of entry.
func (s *MemoryLockoutStore) SaveEntry(_ context.Context, entry *LockoutEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Subject] = *entry
	return nil
}

// DeleteEntry removes the entry for subject.
func (s *MemoryLockoutStore) DeleteEntry(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[subject]; !ok {
		return ErrLockoutNotFound
	}
	delete(s.entries, subject)
	return nil
}

// CleanupExpired removes unlocked entries whose last failure is before cutoff.
func (s *MemoryLockoutStore) CleanupExpired(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	count := 0
	for subject, entry := range s.entries {
		if !entry.IsLockedAt(now) && entry.LastAttempt.Before(before) {
			delete(s.entries, subject)
			count++
		}
	}
	return count, nil
}
