// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package api

import (
	"fmt"
	"net/http"

	"github.com/tomtom215/telemon/internal/auth"
	"github.com/tomtom215/telemon/internal/logging"
	"github.com/tomtom215/telemon/internal/models"
)

// Activity actions.
const (
	actionLogin            = "auth.login"
	actionLogout           = "auth.logout"
	actionUserCreate       = "user.create"
	actionUserUpdate       = "user.update"
	actionUserDelete       = "user.delete"
	actionProfileUpdate    = "profile.update"
	actionAssignmentCreate = "assignment.create"
	actionAssignmentDelete = "assignment.delete"
	actionMappingCreate    = "mapping.create"
	actionMappingUpdate    = "mapping.update"
	actionMappingDelete    = "mapping.delete"
	actionReportExport     = "report.export"
)

// recordActivity appends an activity row for the request's user. A failed
// write is logged and does not fail the request.
func (h *Handler) recordActivity(r *http.Request, user *models.User, action, resource string, details string, args ...interface{}) {
	if user == nil {
		user = currentUser(r)
	}
	entry := &models.ActivityEntry{
		Action:    action,
		Resource:  resource,
		Details:   details,
		IPAddress: auth.ClientIP(r, h.trusted),
	}
	if len(args) > 0 {
		entry.Details = fmt.Sprintf(details, args...)
	}
	if user != nil {
		id := user.ID
		entry.UserID = &id
		entry.Username = user.Username
	}

	if err := h.db.InsertActivity(r.Context(), entry); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("action", action).Msg("Failed to record activity")
	}
}
