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

const (
	defaultActivityLimit = 100
	maxActivityLimit     = 1000
)

// ListActivity returns recent activity, newest first.
//
// @Summary Activity log
// @Tags Activity
// @Produce json
// @Param limit query int false "Max rows (1-1000, default 100)"
// @Param user_id query int false "Filter by user"
// @Param action query string false "Filter by action"
// @Success 200 {object} models.APIResponse{data=[]models.ActivityEntry}
// @Router /activity [get]
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, ok := getIntParam(r, "limit", defaultActivityLimit)
	if !ok || limit < 1 || limit > maxActivityLimit {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "limit must be between 1 and 1000")
		return
	}
	userID, ok := getOptionalID(r, "user_id")
	if !ok {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "user_id must be a positive integer")
		return
	}

	entries, err := h.db.ListActivity(r.Context(), models.ActivityFilter{
		UserID: userID,
		Action: strings.TrimSpace(r.URL.Query().Get("action")),
		Limit:  limit,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "activity")
		return
	}
	respondList(w, entries, len(entries), start)
}
