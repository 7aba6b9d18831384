// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/telemon/internal/models"
)

const (
	defaultActivityLimit = 100
	maxActivityLimit     = 1000
)

// InsertActivity appends an activity row. CreatedAt defaults to now.
func (db *DB) InsertActivity(ctx context.Context, e *models.ActivityEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var userID interface{}
	if e.UserID != nil {
		userID = *e.UserID
	}
	err := db.run("insert", "activity_log", func() error {
		return db.conn.QueryRowContext(ctx, `
			INSERT INTO activity_log (user_id, username, action, resource, details, ip_address, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			userID, e.Username, e.Action, e.Resource, nullString(e.Details), nullString(e.IPAddress),
			e.CreatedAt.UTC()).Scan(&e.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// ListActivity returns the newest activity first.
func (db *DB) ListActivity(ctx context.Context, f models.ActivityFilter) ([]*models.ActivityEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	query := `SELECT id, user_id, username, action, resource, details, ip_address, created_at
		FROM activity_log WHERE 1=1`
	var args []interface{}
	if f.UserID != nil {
		query += " AND user_id = ?"
		args = append(args, *f.UserID)
	}
	if f.Action != "" {
		query += " AND action = ?"
		args = append(args, f.Action)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	out := []*models.ActivityEntry{}
	err := db.run("select", "activity_log", func() error {
		rows, err := db.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer closeWithLog(rows, "rows")
		for rows.Next() {
			e := &models.ActivityEntry{}
			var userID sql.NullInt64
			var details, ip sql.NullString
			if err := rows.Scan(&e.ID, &userID, &e.Username, &e.Action, &e.Resource, &details, &ip, &e.CreatedAt); err != nil {
				return err
			}
			if userID.Valid {
				id := userID.Int64
				e.UserID = &id
			}
			e.Details, e.IPAddress = details.String, ip.String
			e.CreatedAt = e.CreatedAt.UTC()
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return out, nil
}
