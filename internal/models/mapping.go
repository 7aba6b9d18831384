// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package models

import "time"

// Mapping audit actions.
const (
	MappingActionCreate = "create"
	MappingActionUpdate = "update"
	MappingActionDelete = "delete"
)

// MetricMapping binds a raw sample column to a display metric for one
// node/base-station pair. Deletion is soft (IsActive=false).
type MetricMapping struct {
	ID              int64     `json:"id"`
	NodeName        string    `json:"node_name"`
	BaseStationName string    `json:"base_station_name"`
	MetricName      string    `json:"metric_name"`
	ColumnName      string    `json:"column_name"`
	Unit            string    `json:"unit,omitempty"`
	DisplayOrder    int       `json:"display_order"`
	IsActive        bool      `json:"is_active"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MappingSnapshot is the serialized form stored in audit old/new values.
type MappingSnapshot struct {
	NodeName        string `json:"node_name"`
	BaseStationName string `json:"base_station_name"`
	MetricName      string `json:"metric_name"`
	ColumnName      string `json:"column_name"`
	Unit            string `json:"unit"`
	DisplayOrder    int    `json:"display_order"`
	IsActive        bool   `json:"is_active"`
}

// Snapshot captures the audited fields of m.
func (m *MetricMapping) Snapshot() MappingSnapshot {
	return MappingSnapshot{
		NodeName:        m.NodeName,
		BaseStationName: m.BaseStationName,
		MetricName:      m.MetricName,
		ColumnName:      m.ColumnName,
		Unit:            m.Unit,
		DisplayOrder:    m.DisplayOrder,
		IsActive:        m.IsActive,
	}
}

// MappingAuditEntry is one row of metric_mapping_audit.
// OldValues and NewValues hold JSON-encoded MappingSnapshot values, or "" when absent.
type MappingAuditEntry struct {
	ID        int64     `json:"id"`
	MappingID int64     `json:"mapping_id"`
	Action    string    `json:"action"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	OldValues string    `json:"old_values,omitempty"`
	NewValues string    `json:"new_values,omitempty"`
}

// MappingFilter narrows a mapping listing.
type MappingFilter struct {
	NodeName        string
	BaseStationName string
	IncludeInactive bool
}

// CreateMappingRequest is the body of POST /api/metric-mappings.
type CreateMappingRequest struct {
	NodeName        string `json:"node_name" validate:"required,max=255"`
	BaseStationName string `json:"base_station_name" validate:"required,max=255"`
	MetricName      string `json:"metric_name" validate:"required,max=100"`
	ColumnName      string `json:"column_name" validate:"required,max=64"`
	Unit            string `json:"unit" validate:"max=32"`
	DisplayOrder    int    `json:"display_order" validate:"gte=0,lte=10000"`
}

// UpdateMappingRequest is the body of PUT /api/metric-mappings/{id}.
type UpdateMappingRequest struct {
	MetricName   *string `json:"metric_name" validate:"omitempty,min=1,max=100"`
	ColumnName   *string `json:"column_name" validate:"omitempty,min=1,max=64"`
	Unit         *string `json:"unit" validate:"omitempty,max=32"`
	DisplayOrder *int    `json:"display_order" validate:"omitempty,gte=0,lte=10000"`
}

// UnmappedPair is a node/base-station with samples but no active mappings.
type UnmappedPair struct {
	NodeName        string    `json:"node_name"`
	BaseStationName string    `json:"base_station_name"`
	SampleCount     int64     `json:"sample_count"`
	LastSeen        time.Time `json:"last_seen"`
}
