// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/telemon/internal/logging"
	"github.com/tomtom215/telemon/internal/report"
)

// ExportReport renders a node report covering all its base stations.
//
// @Summary Export node report
// @Tags Reports
// @Produce html
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param nodeName path string true "Node name"
// @Param timeFilter query string false "Window token, default 1h"
// @Param format query string false "html (default) or xlsx"
// @Success 200 {file} file
// @Failure 403 {object} models.APIResponse
// @Failure 504 {object} models.APIResponse "REPORT_TIMEOUT"
// @Router /reports/{nodeName} [get]
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	node := chi.URLParam(r, "nodeName")
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.respondServiceError(w, r, err, "report")
		return
	}

	user := currentUser(r)
	if err := h.access.Check(r.Context(), user, node); err != nil {
		h.respondServiceError(w, r, err, "node")
		return
	}

	rep, err := h.reports.Generate(r.Context(), node, r.URL.Query().Get("timeFilter"), user.Username)
	if err != nil {
		h.respondServiceError(w, r, err, "report")
		return
	}

	var buf bytes.Buffer
	if err := h.reports.Render(&buf, rep, format); err != nil {
		h.respondServiceError(w, r, err, "report")
		return
	}

	disposition := "inline"
	if format == report.FormatXLSX {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, format.Filename(node, rep.GeneratedAt)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")

	h.recordActivity(r, user, actionReportExport, "report", "exported %s report for %s (%s)", format, node, rep.TimeFilter)

	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("node", sanitizeLogValue(node)).Msg("Failed to write report")
	}
}
