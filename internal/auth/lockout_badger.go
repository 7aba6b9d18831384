// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const lockoutKeyPrefix = "lockout:"

// BadgerLockoutStore implements LockoutStore on BadgerDB so lockouts
// survive restarts.
type BadgerLockoutStore struct {
	db *badger.DB
}

// OpenBadgerLockoutStore opens (or creates) a Badger database at path.
func OpenBadgerLockoutStore(path string) (*BadgerLockoutStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open lockout store: %w", err)
	}
	return &BadgerLockoutStore{db: db}, nil
}

// NewBadgerLockoutStore wraps an already open Badger database.
func NewBadgerLockoutStore(db *badger.DB) *BadgerLockoutStore {
	return &BadgerLockoutStore{db: db}
}

// Close closes the underlying database.
func (s *BadgerLockoutStore) Close() error {
	return s.db.Close()
}

// GetEntry returns the entry for subject.
func (s *BadgerLockoutStore) GetEntry(_ context.Context, subject string) (*LockoutEntry, error) {
	var entry LockoutEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(lockoutKeyPrefix + subject))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrLockoutNotFound
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveEntry stores entry with a TTL past its lock expiry.
func (s *BadgerLockoutStore) SaveEntry(_ context.Context, entry *LockoutEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(lockoutKeyPrefix+entry.Subject), data).WithTTL(entryRetention)
		if !entry.LockedUntil.IsZero() {
			if ttl := time.Until(entry.LockedUntil) + entryRetention; ttl > entryRetention {
				e = e.WithTTL(ttl)
			}
		}
		return txn.SetEntry(e)
	})
}

// DeleteEntry removes the entry for subject.
func (s *BadgerLockoutStore) DeleteEntry(_ context.Context, subject string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(lockoutKeyPrefix + subject)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrLockoutNotFound
		}
		return txn.Delete(key)
	})
}

// CleanupExpired removes unlocked entries whose last failure is before cutoff.
// Badger TTLs already expire most keys; this catches entries written with a
// longer TTL whose lock has since ended.
func (s *BadgerLockoutStore) CleanupExpired(_ context.Context, before time.Time) (int, error) {
	var stale [][]byte
	now := time.Now()

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(lockoutKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var entry LockoutEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				continue
			}
			if !entry.IsLockedAt(now) && entry.LastAttempt.Before(before) {
				stale = append(stale, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan lockouts: %w", err)
	}

	count := 0
	for _, key := range stale {
		if err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		}); err != nil {
			continue
		}
		count++
	}
	return count, nil
}
