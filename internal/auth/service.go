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
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/telemon/internal/database"
	"github.com/tomtom215/telemon/internal/logging"
	"github.com/tomtom215/telemon/internal/metrics"
	"github.com/tomtom215/telemon/internal/models"
)

// ErrInvalidCredentials covers unknown users, inactive users and wrong
// passwords alike.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Store is the persistence the login flow needs.
type Store interface {
	SessionLookup
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateSession(ctx context.Context, s *models.Session) error
	RevokeSession(ctx context.Context, tokenID string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// Service issues and revokes sessions.
type Service struct {
	store    Store
	jwt      *JWTManager
	lockout  *LockoutManager
	security *logging.SecurityLogger
}

// NewService creates the login service. lockout may be nil.
func NewService(store Store, jwt *JWTManager, lockout *LockoutManager) *Service {
	return &Service{
		store:    store,
		jwt:      jwt,
		lockout:  lockout,
		security: logging.NewSecurityLogger(),
	}
}

// Login verifies credentials and opens a session.
func (s *Service) Login(ctx context.Context, username, password, ip, userAgent string) (*models.LoginResponse, error) {
	username = strings.TrimSpace(username)

	if s.lockout != nil {
		locked, remaining, err := s.lockout.CheckLocked(ctx, username)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("Lockout check failed")
		}
		if locked {
			s.security.LogAccountLocked(username, ip)
			metrics.RecordLogin("locked")
			return nil, fmt.Errorf("%w: retry in %s", ErrAccountLocked, remaining.Round(time.Second))
		}
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, database.ErrNotFound):
		burnPasswordCheck(password)
		return nil, s.fail(ctx, username, ip, "unknown user")
	case err != nil:
		metrics.RecordLogin("error")
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, s.fail(ctx, username, ip, "bad password")
	}
	if !user.IsActive {
		return nil, s.fail(ctx, username, ip, "inactive user")
	}

	token, claims, err := s.jwt.GenerateToken(user)
	if err != nil {
		metrics.RecordLogin("error")
		return nil, err
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenID:   claims.ID,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		metrics.RecordLogin("error")
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to record last login")
	} else {
		user.LastLoginAt = &now
	}

	if s.lockout != nil {
		if err := s.lockout.RecordSuccessfulLogin(ctx, username); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to clear lockout")
		}
	}

	s.security.LogLoginSuccess(user.ID, user.Username, ip)
	metrics.RecordLogin("success")

	return &models.LoginResponse{
		Success:   true,
		Token:     token,
		User:      user,
		ExpiresIn: int64(s.jwt.Timeout() / time.Second),
	}, nil
}

func (s *Service) fail(ctx context.Context, username, ip, reason string) error {
	s.security.LogLoginFailure(username, ip, reason)
	metrics.RecordLogin("failure")

	if s.lockout == nil || username == "" {
		return ErrInvalidCredentials
	}
	locked, _, err := s.lockout.RecordFailedAttempt(ctx, username, ip)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to record login failure")
	}
	if locked {
		s.security.LogAccountLocked(username, ip)
	}
	return ErrInvalidCredentials
}

// Logout revokes the session behind claims.
func (s *Service) Logout(ctx context.Context, claims *Claims, ip string) error {
	if claims == nil {
		return nil
	}
	if err := s.store.RevokeSession(ctx, claims.ID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	s.security.LogLogout(claims.UserID, claims.ID, ip)
	return nil
}
