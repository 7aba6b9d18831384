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

// CreateAssignment grants a user a node. Returns ErrNotFound for an unknown
// user and ErrDuplicate when the grant already exists.
func (db *DB) CreateAssignment(ctx context.Context, a *models.NodeAssignment) error {
	now := time.Now().UTC()
	err := db.run("insert", "node_assignments", func() error {
		var userExists, assigned bool
		if err := db.conn.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM users WHERE id = ?),
			       EXISTS(SELECT 1 FROM node_assignments WHERE user_id = ? AND node_name = ?)`,
			a.UserID, a.UserID, a.NodeName).Scan(&userExists, &assigned); err != nil {
			return err
		}
		if !userExists {
			return ErrNotFound
		}
		if assigned {
			return ErrDuplicate
		}
		return db.conn.QueryRowContext(ctx, `
			INSERT INTO node_assignments (user_id, node_name, assigned_by, assigned_at, notes)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`,
			a.UserID, a.NodeName, a.AssignedBy, now, nullString(a.Notes)).Scan(&a.ID)
	})
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicate
		}
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	a.AssignedAt = now
	return nil
}

// ListAssignments lists grants, optionally for a single user, ordered by
// username then node name.
func (db *DB) ListAssignments(ctx context.Context, userID *int64) ([]*models.NodeAssignment, error) {
	query := `
		SELECT a.id, a.user_id, COALESCE(u.username, ''), a.node_name, a.assigned_by, a.assigned_at, a.notes
		FROM node_assignments a
		LEFT JOIN users u ON u.id = a.user_id`
	var args []interface{}
	if userID != nil {
		query += " WHERE a.user_id = ?"
		args = append(args, *userID)
	}
	query += " ORDER BY u.username, a.node_name"

	out := []*models.NodeAssignment{}
	err := db.run("select", "node_assignments", func() error {
		rows, err := db.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer closeWithLog(rows, "rows")
		for rows.Next() {
			a := &models.NodeAssignment{}
			var notes sql.NullString
			if err := rows.Scan(&a.ID, &a.UserID, &a.Username, &a.NodeName, &a.AssignedBy, &a.AssignedAt, &notes); err != nil {
				return err
			}
			a.Notes = notes.String
			a.AssignedAt = a.AssignedAt.UTC()
			out = append(out, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return out, nil
}

// AssignedNodes returns the node names granted to a user.
func (db *DB) AssignedNodes(ctx context.Context, userID int64) ([]string, error) {
	out := []string{}
	err := db.run("select", "node_assignments", func() error {
		rows, err := db.conn.QueryContext(ctx,
			`SELECT node_name FROM node_assignments WHERE user_id = ? ORDER BY node_name`, userID)
		if err != nil {
			return err
		}
		defer closeWithLog(rows, "rows")
		for rows.Next() {
			var n string
			if err := rows.Scan(&n); err != nil {
				return err
			}
			out = append(out, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load assigned nodes: %w", err)
	}
	return out, nil
}

// DeleteAssignment removes a grant and returns the removed row.
func (db *DB) DeleteAssignment(ctx context.Context, id int64) (*models.NodeAssignment, error) {
	a := &models.NodeAssignment{}
	err := db.run("delete", "node_assignments", func() error {
		var notes sql.NullString
		err := db.conn.QueryRowContext(ctx, `
			DELETE FROM node_assignments WHERE id = ?
			RETURNING id, user_id, node_name, assigned_by, assigned_at, notes`, id).
			Scan(&a.ID, &a.UserID, &a.NodeName, &a.AssignedBy, &a.AssignedAt, &notes)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		a.Notes = notes.String
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete assignment %d: %w", id, err)
	}
	return a, nil
}
