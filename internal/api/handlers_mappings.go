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

// ListMappings lists metric mappings, filtered by node_name and
// base_station_name. Inactive rows appear only with include_inactive=true.
//
// @Summary List metric mappings
// @Tags Mappings
// @Produce json
// @Param node_name query string false "Node"
// @Param base_station_name query string false "Base station"
// @Param include_inactive query bool false "Include soft-deleted rows"
// @Success 200 {object} models.APIResponse{data=[]models.MetricMapping}
// @Router /metric-mappings [get]
func (h *Handler) ListMappings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	list, err := h.mappings.List(r.Context(), models.MappingFilter{
		NodeName:        strings.TrimSpace(q.Get("node_name")),
		BaseStationName: strings.TrimSpace(q.Get("base_station_name")),
		IncludeInactive: getBoolParam(r, "include_inactive"),
	})
	if err != nil {
		h.respondServiceError(w, r, err, "mappings")
		return
	}
	respondList(w, list, len(list), start)
}

// MappingColumns lists the raw sample columns a mapping may target.
func (h *Handler) MappingColumns(w http.ResponseWriter, r *http.Request) {
	cols := h.mappings.Columns()
	respondList(w, cols, len(cols), time.Now())
}

// UnmappedPairs lists node/base station pairs with samples but no active mapping.
func (h *Handler) UnmappedPairs(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	pairs, err := h.mappings.Unmapped(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, "unmapped pairs")
		return
	}
	respondList(w, pairs, len(pairs), start)
}

func (h *Handler) GetMapping(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := h.mappings.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "mapping")
		return
	}
	respondData(w, http.StatusOK, "", m)
}

// MappingAudit returns a mapping's change history, including after soft delete.
func (h *Handler) MappingAudit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entries, err := h.mappings.Audit(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "mapping")
		return
	}
	respondList(w, entries, len(entries), start)
}

// CreateMapping adds a mapping. A clash on column or metric name within the
// pair is a 409 DUPLICATE_MAPPING.
func (h *Handler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMappingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := currentUser(r)
	m, err := h.mappings.Create(r.Context(), &req, actor.Username)
	if err != nil {
		h.respondServiceError(w, r, err, "mapping")
		return
	}

	h.recordActivity(r, actor, actionMappingCreate, "metric-mapping",
		"mapped %s/%s %s -> %s", m.NodeName, m.BaseStationName, m.ColumnName, m.MetricName)
	respondData(w, http.StatusCreated, "Mapping created", m)
}

func (h *Handler) UpdateMapping(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateMappingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := currentUser(r)
	m, err := h.mappings.Update(r.Context(), id, &req, actor.Username)
	if err != nil {
		h.respondServiceError(w, r, err, "mapping")
		return
	}

	h.recordActivity(r, actor, actionMappingUpdate, "metric-mapping", "updated mapping %d", m.ID)
	respondData(w, http.StatusOK, "Mapping updated", m)
}

// DeleteMapping soft-deletes a mapping.
func (h *Handler) DeleteMapping(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	actor := currentUser(r)
	m, err := h.mappings.Delete(r.Context(), id, actor.Username)
	if err != nil {
		h.respondServiceError(w, r, err, "mapping")
		return
	}

	h.recordActivity(r, actor, actionMappingDelete, "metric-mapping",
		"deactivated mapping %d (%s/%s %s)", m.ID, m.NodeName, m.BaseStationName, m.ColumnName)
	respondData(w, http.StatusOK, "Mapping deleted", m)
}
