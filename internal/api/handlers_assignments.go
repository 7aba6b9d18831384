// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/telemon/internal/models"
)

// ListAssignments lists node grants, optionally for one user (?user_id=).
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := getOptionalID(r, "user_id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "user_id must be a positive integer")
		return
	}

	list, err := h.db.ListAssignments(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, err, "assignments")
		return
	}
	respondList(w, list, len(list), start)
}

// CreateAssignment grants a user every base station of a node.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := currentUser(r)
	a := &models.NodeAssignment{
		UserID:     req.UserID,
		NodeName:   strings.TrimSpace(req.NodeName),
		AssignedBy: actor.Username,
		Notes:      strings.TrimSpace(req.Notes),
	}
	if err := h.db.CreateAssignment(r.Context(), a); err != nil {
		h.respondServiceError(w, r, err, "assignment")
		return
	}

	h.recordActivity(r, actor, actionAssignmentCreate, "node-assignment", "assigned node %s to user id %d", a.NodeName, a.UserID)
	respondData(w, http.StatusCreated, "Node assigned", a)
}

// DeleteAssignment revokes a grant.
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	a, err := h.db.DeleteAssignment(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "assignment")
		return
	}

	h.recordActivity(r, nil, actionAssignmentDelete, "node-assignment", "removed node %s from user id %d", a.NodeName, a.UserID)
	respondData(w, http.StatusOK, "Assignment removed", a)
}
