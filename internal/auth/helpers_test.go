// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/telemon/internal/config"
	"github.com/tomtom215/telemon/internal/database"
	"github.com/tomtom215/telemon/internal/models"
)

const testSecret = "test-secret-that-is-at-least-32-bytes-long"

// memStore is an in-memory Store for tests.
type memStore struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	sessions map[string]*models.Session
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*models.User),
		sessions: make(map[string]*models.Session),
	}
}

func (s *memStore) addUser(t *testing.T, username, password, role string, active bool) *models.User {
	t.Helper()
	hash, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{
		ID:           int64(len(s.users) + 1),
		Username:     username,
		Role:         role,
		IsActive:     active,
		PasswordHash: hash,
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memStore) GetSessionByTokenID(_ context.Context, tokenID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tokenID]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *memStore) CreateSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.TokenID] = &cp
	return nil
}

func (s *memStore) RevokeSession(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[tokenID]; ok && sess.RevokedAt == nil {
		now := time.Now().UTC()
		sess.RevokedAt = &now
	}
	return nil
}

func (s *memStore) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: time.Hour})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}
