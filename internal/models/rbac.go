// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package models

// Role constants define the standard roles in the system.
// These align with the Casbin policy in internal/authz/policy.csv.
const (
	// RoleViewer reads telemetry for assigned nodes.
	RoleViewer = "viewer"

	// RoleManager additionally lists users, assignments, mappings and activity.
	RoleManager = "manager"

	// RoleAdmin has full access including all mutations.
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []string{RoleViewer, RoleManager, RoleAdmin}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
