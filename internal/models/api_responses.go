// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package models

import "time"

// APIResponse is the envelope for every JSON response.
//
//	{"success": true, "message": "Mapping created", "data": {...}}
//	{"success": false, "error": {"code": "DUPLICATE_MAPPING", "message": "..."}}
type APIResponse struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
	Metadata *Metadata   `json:"metadata,omitempty"`
}

// Metadata carries response timing for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Count       *int      `json:"count,omitempty"`
}

// APIError is a machine-readable failure. Code is a stable enum string.
type APIError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// Error codes returned by the API.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInvalidCreds     = "INVALID_CREDENTIALS"
	ErrCodeForbidden        = "INSUFFICIENT_PERMISSIONS"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeDuplicateMapping = "DUPLICATE_MAPPING"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeAccountLocked    = "ACCOUNT_LOCKED"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeUnavailable      = "SERVICE_UNAVAILABLE"
	ErrCodeReportTimeout    = "REPORT_TIMEOUT"
)
