// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/telemon/internal/logging"
	"github.com/tomtom215/telemon/internal/models"
)

// SeedAdmin creates the initial administrator when the users table is empty.
// It reports whether a user was created.
func (db *DB) SeedAdmin(ctx context.Context, username, passwordHash string) (bool, error) {
	n, err := db.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	admin := &models.User{
		Username:       username,
		FullName:       "Administrator",
		Role:           models.RoleAdmin,
		AccessAllNodes: true,
		IsActive:       true,
		PasswordHash:   passwordHash,
	}
	if err := db.CreateUser(ctx, admin); err != nil {
		return false, err
	}
	logging.Info().Str("username", username).Int64("user_id", admin.ID).Msg("Seeded initial admin account")
	return true, nil
}
