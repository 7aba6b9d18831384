// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/telemon/internal/models"
)

type healthStatus struct {
	Status   string  `json:"status"`
	Database string  `json:"database,omitempty"`
	Uptime   float64 `json:"uptime_seconds"`
}

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, "", healthStatus{
		Status: "alive",
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady reports whether the database answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeUnavailable, "Database not ready")
		return
	}
	respondData(w, http.StatusOK, "", healthStatus{
		Status:   "ready",
		Database: "ok",
		Uptime:   time.Since(h.startTime).Seconds(),
	})
}
