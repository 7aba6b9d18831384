// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package models

import "time"

// NodeAssignment grants a user visibility of every base station under NodeName.
type NodeAssignment struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username,omitempty"`
	NodeName   string    `json:"node_name"`
	AssignedBy string    `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
	Notes      string    `json:"notes,omitempty"`
}

// CreateAssignmentRequest is the body of POST /api/node-assignments.
type CreateAssignmentRequest struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	NodeName string `json:"node_name" validate:"required,max=255"`
	Notes    string `json:"notes" validate:"max=1000"`
}
