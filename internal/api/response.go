// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/telemon/internal/access"
	"github.com/tomtom215/telemon/internal/auth"
	"github.com/tomtom215/telemon/internal/database"
	"github.com/tomtom215/telemon/internal/logging"
	"github.com/tomtom215/telemon/internal/mapping"
	"github.com/tomtom215/telemon/internal/middleware"
	"github.com/tomtom215/telemon/internal/models"
	"github.com/tomtom215/telemon/internal/report"
	"github.com/tomtom215/telemon/internal/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// sanitizeLogValue removes control characters from strings to prevent log injection.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondData sends a success envelope.
func respondData(w http.ResponseWriter, status int, message string, data interface{}) {
	resp := &models.APIResponse{
		Success:  true,
		Message:  message,
		Data:     data,
		Metadata: &models.Metadata{Timestamp: time.Now().UTC()},
	}
	middleware.WriteJSON(w, status, resp)
}

// respondList sends a success envelope with an item count.
func respondList(w http.ResponseWriter, data interface{}, count int, start time.Time) {
	middleware.WriteJSON(w, http.StatusOK, &models.APIResponse{
		Success: true,
		Data:    data,
		Metadata: &models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Count:       &count,
		},
	})
}

// respondRaw writes v as the whole JSON body, for endpoints whose shape is
// fixed by the frontend (login, verify).
func respondRaw(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError sends an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	middleware.WriteError(w, r, status, code, message)
}

// respondValidation sends a 400 VALIDATION_ERROR carrying field details.
func respondValidation(w http.ResponseWriter, r *http.Request, apiErr *models.APIError) {
	apiErr.RequestID = logging.RequestIDFromContext(r.Context())
	middleware.WriteJSON(w, http.StatusBadRequest, &models.APIResponse{
		Success:  false,
		Error:    apiErr,
		Metadata: &models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondServiceError maps a service or store error onto a status and code.
// Unrecognized errors become 500 and are logged.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, what+" not found")
	case errors.Is(err, database.ErrDuplicateMapping):
		respondError(w, r, http.StatusConflict, models.ErrCodeDuplicateMapping, err.Error())
	case errors.Is(err, database.ErrDuplicate):
		respondError(w, r, http.StatusConflict, models.ErrCodeConflict, what+" already exists")
	case errors.Is(err, mapping.ErrValidation), errors.Is(err, database.ErrInvalidColumn):
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error())
	case errors.Is(err, access.ErrNotVisible):
		respondError(w, r, http.StatusForbidden, models.ErrCodeForbidden, "You do not have access to this node")
	case errors.Is(err, database.ErrUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, models.ErrCodeUnavailable, "Database temporarily unavailable")
	case errors.Is(err, report.ErrTimeout):
		respondError(w, r, http.StatusGatewayTimeout, models.ErrCodeReportTimeout, "Report generation exceeded its time limit")
	case errors.Is(err, report.ErrUnknownFormat):
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "format must be html or xlsx")
	default:
		h.respondInternal(w, r, err)
	}
}

// respondInternal logs err and sends 500. The message is generic in production.
func (h *Handler) respondInternal(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().
		Str("error", sanitizeLogValue(err.Error())).
		Str("path", r.URL.Path).
		Msg("API error")

	message := "Internal server error"
	if h.config != nil && !h.config.IsProduction() {
		message = err.Error()
	}
	respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, message)
}

// decodeJSON reads a JSON body into v and runs its validate tags. It writes
// the 400 response itself and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "Invalid JSON body")
		return false
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		respondValidation(w, r, verr.ToAPIError())
		return false
	}
	return true
}

// pathID parses the {id} URL parameter. It writes 400 and returns false
// when the id is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// getIntParam extracts an integer query parameter with a default value.
// ok is false when the parameter is present but not an integer.
func getIntParam(r *http.Request, key string, defaultValue int) (value int, ok bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultValue, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue, false
	}
	return v, true
}

// getOptionalID parses an optional positive integer query parameter.
func getOptionalID(r *http.Request, key string) (*int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, false
	}
	return &v, true
}

func getBoolParam(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

// currentUser returns the authenticated user. Routes using it sit behind
// auth.Authenticator, so it is never nil there.
func currentUser(r *http.Request) *models.User {
	return auth.UserFromContext(r.Context())
}
