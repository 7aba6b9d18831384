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
	"strings"
	"time"

	"github.com/tomtom215/telemon/internal/models"
)

const userColumns = `id, username, email, full_name, role, access_all_nodes, is_active,
	password_hash, created_at, updated_at, last_login_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow scans a database row into a User, handling nullable fields.
func scanUserRow(scanner rowScanner) (*models.User, error) {
	u := &models.User{}
	var email, fullName sql.NullString
	var lastLogin sql.NullTime

	if err := scanner.Scan(
		&u.ID, &u.Username, &email, &fullName, &u.Role, &u.AccessAllNodes, &u.IsActive,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &lastLogin,
	); err != nil {
		return nil, err
	}

	u.Email = email.String
	u.FullName = fullName.String
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		u.LastLoginAt = &t
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// CreateUser inserts a user and fills in ID and timestamps.
// Returns ErrDuplicate when the username is taken.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	err := db.run("insert", "users", func() error {
		var exists bool
		if err := db.conn.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, u.Username).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrDuplicate
		}
		return db.conn.QueryRowContext(ctx, `
			INSERT INTO users (username, email, full_name, role, access_all_nodes, is_active,
			                   password_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			u.Username, nullString(u.Email), nullString(u.FullName), u.Role, u.AccessAllNodes, u.IsActive,
			u.PasswordHash, now, now,
		).Scan(&u.ID)
	})
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicate
		}
		return fmt.Errorf("failed to create user %q: %w", u.Username, err)
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// isUniqueViolation matches DuckDB constraint errors raised by concurrent inserts.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key") || strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "violates primary key constraint")
}

// GetUserByID returns ErrNotFound when the id does not exist.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.getUser(ctx, "id = ?", id)
}

// GetUserByUsername returns ErrNotFound when the username does not exist.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUser(ctx, "username = ?", username)
}

func (db *DB) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var u *models.User
	err := db.run("select", "users", func() error {
		row := db.conn.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
		var err error
		u, err = scanUserRow(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListUsers returns all users ordered by username.
func (db *DB) ListUsers(ctx context.Context, includeInactive bool) ([]*models.User, error) {
	query := "SELECT " + userColumns + " FROM users"
	if !includeInactive {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY username"

	users := []*models.User{}
	err := db.run("select", "users", func() error {
		rows, err := db.conn.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer closeWithLog(rows, "rows")
		for rows.Next() {
			u, err := scanUserRow(rows)
			if err != nil {
				return err
			}
			users = append(users, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CountUsers returns the number of user rows.
func (db *DB) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := db.run("count", "users", func() error {
		return db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	})
	return n, err
}

// UpdateUser writes the mutable fields of u (everything but username and created_at).
func (db *DB) UpdateUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	err := db.run("update", "users", func() error {
		res, err := db.conn.ExecContext(ctx, `
			UPDATE users
			SET email = ?, full_name = ?, role = ?, access_all_nodes = ?, is_active = ?,
			    password_hash = ?, updated_at = ?
			WHERE id = ?`,
			nullString(u.Email), nullString(u.FullName), u.Role, u.AccessAllNodes, u.IsActive,
			u.PasswordHash, now, u.ID)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", u.ID, err)
	}
	u.UpdatedAt = now
	return nil
}

// DeactivateUser soft-deletes a user and revokes their sessions.
func (db *DB) DeactivateUser(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	err := db.run("update", "users", func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer rollbackQuietly(tx)

		res, err := tx.ExecContext(ctx,
			`UPDATE users SET is_active = FALSE, updated_at = ? WHERE id = ? AND is_active = TRUE`, now, id)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`, now, id); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("failed to deactivate user %d: %w", id, err)
	}
	return nil
}

// TouchLastLogin records a successful login time.
func (db *DB) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return db.run("update", "users", func() error {
		_, err := db.conn.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, at.UTC(), id)
		return err
	})
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// rollbackQuietly rolls back a transaction that may already be committed.
func rollbackQuietly(tx *sql.Tx) {
	_ = tx.Rollback()
}
