// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

// Package mapping manages metric-name to sample-column bindings per
// node/base station. Writes are admin-only at the API layer; every write
// is recorded in the mapping audit trail by the store.
package mapping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/telemon/internal/logging"
	"github.com/tomtom215/telemon/internal/metrics"
	"github.com/tomtom215/telemon/internal/models"
)

// ErrValidation is returned for missing or malformed mapping fields.
var ErrValidation = errors.New("invalid mapping")

// reservedMetricNames are the telemetry row keys a metric name may not
// shadow. Matching is case-insensitive.
var reservedMetricNames = []string{"time", "NodeName", "NodeBaseStationName", "bucket_start", "sample_count"}

func checkMetricName(name string) error {
	for _, r := range reservedMetricNames {
		if strings.EqualFold(name, r) {
			return fmt.Errorf("%w: metric_name %q is reserved", ErrValidation, name)
		}
	}
	return nil
}

// Store persists mappings and their audit trail.
type Store interface {
	CreateMapping(ctx context.Context, m *models.MetricMapping) error
	UpdateMapping(ctx context.Context, id int64, req *models.UpdateMappingRequest, changedBy string) (*models.MetricMapping, error)
	DeleteMapping(ctx context.Context, id int64, changedBy string) (*models.MetricMapping, error)
	GetMapping(ctx context.Context, id int64) (*models.MetricMapping, error)
	ListMappings(ctx context.Context, f models.MappingFilter) ([]*models.MetricMapping, error)
	MappingAudit(ctx context.Context, mappingID int64) ([]*models.MappingAuditEntry, error)
	UnmappedPairs(ctx context.Context) ([]*models.UnmappedPair, error)
}

// Service validates mapping requests and delegates to the store.
type Service struct {
	store   Store
	columns []string
	known   map[string]bool
}

// NewService creates a mapping service accepting the given raw columns.
func NewService(store Store, columns []string) *Service {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	return &Service{store: store, columns: columns, known: known}
}

// Columns returns the mappable raw column names.
func (s *Service) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

func (s *Service) checkColumn(column string) error {
	if !s.known[column] {
		return fmt.Errorf("%w: column_name %q is not a sample column", ErrValidation, column)
	}
	return nil
}

// Create validates req and stores a new active mapping owned by actor.
func (s *Service) Create(ctx context.Context, req *models.CreateMappingRequest, actor string) (*models.MetricMapping, error) {
	m := &models.MetricMapping{
		NodeName:        strings.TrimSpace(req.NodeName),
		BaseStationName: strings.TrimSpace(req.BaseStationName),
		MetricName:      strings.TrimSpace(req.MetricName),
		ColumnName:      strings.TrimSpace(req.ColumnName),
		Unit:            strings.TrimSpace(req.Unit),
		DisplayOrder:    req.DisplayOrder,
		CreatedBy:       actor,
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"node_name", m.NodeName},
		{"base_station_name", m.BaseStationName},
		{"metric_name", m.MetricName},
		{"column_name", m.ColumnName},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if m.DisplayOrder < 0 {
		return nil, fmt.Errorf("%w: display_order must not be negative", ErrValidation)
	}
	if err := checkMetricName(m.MetricName); err != nil {
		return nil, err
	}
	if err := s.checkColumn(m.ColumnName); err != nil {
		return nil, err
	}

	err := s.store.CreateMapping(ctx, m)
	metrics.RecordMappingMutation(models.MappingActionCreate, err)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Int64("mapping_id", m.ID).
		Str("node", m.NodeName).
		Str("base_station", m.BaseStationName).
		Str("metric", m.MetricName).
		Str("column", m.ColumnName).
		Msg("Metric mapping created")
	return m, nil
}

// Update applies a partial update to an active mapping.
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateMappingRequest, actor string) (*models.MetricMapping, error) {
	if req.MetricName != nil {
		v := strings.TrimSpace(*req.MetricName)
		if v == "" {
			return nil, fmt.Errorf("%w: metric_name must not be empty", ErrValidation)
		}
		if err := checkMetricName(v); err != nil {
			return nil, err
		}
		req.MetricName = &v
	}
	if req.ColumnName != nil {
		v := strings.TrimSpace(*req.ColumnName)
		if err := s.checkColumn(v); err != nil {
			return nil, err
		}
		req.ColumnName = &v
	}
	if req.Unit != nil {
		v := strings.TrimSpace(*req.Unit)
		req.Unit = &v
	}
	if req.DisplayOrder != nil && *req.DisplayOrder < 0 {
		return nil, fmt.Errorf("%w: display_order must not be negative", ErrValidation)
	}
	if req.MetricName == nil && req.ColumnName == nil && req.Unit == nil && req.DisplayOrder == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	m, err := s.store.UpdateMapping(ctx, id, req, actor)
	metrics.RecordMappingMutation(models.MappingActionUpdate, err)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Int64("mapping_id", id).Msg("Metric mapping updated")
	return m, nil
}

// Delete soft-deletes an active mapping.
func (s *Service) Delete(ctx context.Context, id int64, actor string) (*models.MetricMapping, error) {
	m, err := s.store.DeleteMapping(ctx, id, actor)
	metrics.RecordMappingMutation(models.MappingActionDelete, err)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Int64("mapping_id", id).Msg("Metric mapping deactivated")
	return m, nil
}

// Get returns one mapping, active or not.
func (s *Service) Get(ctx context.Context, id int64) (*models.MetricMapping, error) {
	return s.store.GetMapping(ctx, id)
}

// List returns mappings matching f.
func (s *Service) List(ctx context.Context, f models.MappingFilter) ([]*models.MetricMapping, error) {
	return s.store.ListMappings(ctx, f)
}

// Audit returns a mapping's change history. The mapping must exist.
func (s *Service) Audit(ctx context.Context, id int64) ([]*models.MappingAuditEntry, error) {
	if _, err := s.store.GetMapping(ctx, id); err != nil {
		return nil, err
	}
	return s.store.MappingAudit(ctx, id)
}

// Unmapped lists node/base-station pairs with samples but no active mappings.
func (s *Service) Unmapped(ctx context.Context) ([]*models.UnmappedPair, error) {
	return s.store.UnmappedPairs(ctx)
}
