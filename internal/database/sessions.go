// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/telemon/internal/models"
)

// CreateSession records an issued token.
func (db *DB) CreateSession(ctx context.Context, s *models.Session) error {
	err := db.run("insert", "sessions", func() error {
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO sessions (id, user_id, token_id, ip_address, user_agent, created_at, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.UserID, s.TokenID, nullString(s.IPAddress), nullString(s.UserAgent),
			s.CreatedAt.UTC(), s.ExpiresAt.UTC())
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSessionByTokenID returns ErrNotFound for unknown tokens.
func (db *DB) GetSessionByTokenID(ctx context.Context, tokenID string) (*models.Session, error) {
	s := &models.Session{}
	err := db.run("select", "sessions", func() error {
		var ip, ua sql.NullString
		var revoked sql.NullTime
		err := db.conn.QueryRowContext(ctx, `
			SELECT id, user_id, token_id, ip_address, user_agent, created_at, expires_at, revoked_at
			FROM sessions WHERE token_id = ?`, tokenID).
			Scan(&s.ID, &s.UserID, &s.TokenID, &ip, &ua, &s.CreatedAt, &s.ExpiresAt, &revoked)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		s.IPAddress, s.UserAgent = ip.String, ua.String
		if revoked.Valid {
			t := revoked.Time.UTC()
			s.RevokedAt = &t
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// RevokeSession marks a session revoked. Revoking twice is not an error.
func (db *DB) RevokeSession(ctx context.Context, tokenID string) error {
	return db.run("update", "sessions", func() error {
		_, err := db.conn.ExecContext(ctx,
			`UPDATE sessions SET revoked_at = ? WHERE token_id = ? AND revoked_at IS NULL`,
			time.Now().UTC(), tokenID)
		return err
	})
}

// DeleteExpiredSessions removes sessions that expired before cutoff.
func (db *DB) DeleteExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := db.run("delete", "sessions", func() error {
		res, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, cutoff.UTC())
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}
