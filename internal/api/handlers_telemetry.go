// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/telemon/internal/models"
	"github.com/tomtom215/telemon/internal/telemetry"
)

// maxPoints bounds the points query parameter.
const maxPoints = 10000

// ListNodes returns the node names visible to the caller.
//
// @Summary List visible nodes
// @Tags Telemetry
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]string}
// @Router /nodes [get]
func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	nodes, err := h.access.VisibleNodes(r.Context(), currentUser(r))
	if err != nil {
		h.respondServiceError(w, r, err, "nodes")
		return
	}
	respondList(w, nodes, len(nodes), start)
}

// ListBaseStations returns the distinct base stations reporting for a node.
func (h *Handler) ListBaseStations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	node := chi.URLParam(r, "nodeName")
	if err := h.access.Check(r.Context(), currentUser(r), node); err != nil {
		h.respondServiceError(w, r, err, "node")
		return
	}

	stations, err := h.db.ListBaseStations(r.Context(), node)
	if err != nil {
		h.respondServiceError(w, r, err, "base stations")
		return
	}
	respondList(w, stations, len(stations), start)
}

// telemetryResponse is the telemetry body. Rows are flat objects so chart
// code can read metric values by display name.
type telemetryResponse struct {
	Success       bool                     `json:"success"`
	Node          string                   `json:"node"`
	BaseStation   string                   `json:"baseStation"`
	TimeFilter    string                   `json:"timeFilter"`
	Minutes       int                      `json:"minutes"`
	Start         *time.Time               `json:"start"`
	End           *time.Time               `json:"end"`
	Anchor        *time.Time               `json:"anchor"`
	BucketMinutes int                      `json:"bucketMinutes"`
	Count         int                      `json:"count"`
	Metrics       []models.MetricColumn    `json:"metrics"`
	Data          []map[string]interface{} `json:"data"`
}

// Telemetry returns the samples of a node/base station pair within a window
// anchored at the pair's newest sample.
//
// @Summary Telemetry window
// @Tags Telemetry
// @Produce json
// @Param nodeName path string true "Node name"
// @Param baseStation path string true "Base station name"
// @Param timeFilter query string false "Window token (5m..30d), default 1h"
// @Param points query int false "Bucket into roughly this many points"
// @Success 200 {object} telemetryResponse
// @Failure 403 {object} models.APIResponse
// @Router /telemetry/{nodeName}/{baseStation} [get]
func (h *Handler) Telemetry(w http.ResponseWriter, r *http.Request) {
	node := chi.URLParam(r, "nodeName")
	station := chi.URLParam(r, "baseStation")

	points, ok := getIntParam(r, "points", 0)
	if !ok || points < 0 || points > maxPoints {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "points must be an integer between 0 and 10000")
		return
	}

	if err := h.access.Check(r.Context(), currentUser(r), node); err != nil {
		h.respondServiceError(w, r, err, "node")
		return
	}

	win, err := h.telemetry.Window(r.Context(), telemetry.Query{
		NodeName:        node,
		BaseStationName: station,
		TimeFilter:      r.URL.Query().Get("timeFilter"),
		Points:          points,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "telemetry")
		return
	}

	respondRaw(w, http.StatusOK, newTelemetryResponse(win))
}

func newTelemetryResponse(win *models.TelemetryWindow) telemetryResponse {
	resp := telemetryResponse{
		Success:       true,
		Node:          win.NodeName,
		BaseStation:   win.BaseStationName,
		TimeFilter:    win.TimeFilter,
		Minutes:       win.Minutes,
		BucketMinutes: win.BucketMinutes,
		Count:         win.Count(),
		Metrics:       win.Metrics,
		Data:          make([]map[string]interface{}, 0, win.Count()),
	}
	if !win.Empty() {
		resp.Start, resp.End, resp.Anchor = &win.Start, &win.End, &win.Anchor
	}

	if win.BucketMinutes > 0 {
		for _, b := range win.Buckets {
			row := make(map[string]interface{}, len(b.Values)+2)
			row["bucket_start"] = b.BucketStart
			row["sample_count"] = b.SampleCount
			for k, v := range b.Values {
				row[k] = v
			}
			resp.Data = append(resp.Data, row)
		}
		return resp
	}

	for _, s := range win.Samples {
		row := make(map[string]interface{}, len(s.Values)+3)
		row["time"] = s.Time
		row["NodeName"] = s.NodeName
		row["NodeBaseStationName"] = s.BaseStationName
		for k, v := range s.Values {
			row[k] = v
		}
		resp.Data = append(resp.Data, row)
	}
	return resp
}
