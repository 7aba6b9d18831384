// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/telemon/internal/config"
	"github.com/tomtom215/telemon/internal/logging"
	"github.com/tomtom215/telemon/internal/metrics"
	"github.com/tomtom215/telemon/internal/models"
)

// Store is the sample and mapping data the service reads.
type Store interface {
	LatestSampleTime(ctx context.Context, nodeName, baseStation string) (time.Time, bool, error)
	CountSamples(ctx context.Context, nodeName, baseStation string, start, end time.Time) (int64, error)
	QuerySamples(ctx context.Context, nodeName, baseStation string, start, end time.Time, cols []models.MetricColumn) ([]models.Sample, error)
	QueryBuckets(ctx context.Context, nodeName, baseStation string, start, end time.Time, stepMinutes int, cols []models.MetricColumn) ([]models.Bucket, error)
	ActiveMappings(ctx context.Context, nodeName, baseStation string) ([]*models.MetricMapping, error)
}

// Query describes one telemetry window request.
type Query struct {
	NodeName        string
	BaseStationName string
	TimeFilter      string
	// Points forces bucketing into roughly this many buckets when > 0.
	Points int
}

// Service resolves relative time windows against the latest sample.
type Service struct {
	store        Store
	rawColumns   []string
	targetPoints int
	maxRawPoints int
}

// NewService creates a telemetry service. rawColumns lists the sample
// columns returned under their own names when a pair has no mappings.
func NewService(store Store, rawColumns []string, cfg config.TelemetryConfig) *Service {
	target := cfg.TargetPoints
	if target <= 0 {
		target = 500
	}
	maxRaw := cfg.MaxRawPoints
	if maxRaw <= 0 {
		maxRaw = 2000
	}
	return &Service{
		store:        store,
		rawColumns:   rawColumns,
		targetPoints: target,
		maxRawPoints: maxRaw,
	}
}

// Columns returns the metric columns for a pair: its active mappings in
// display order, or every raw column when none are configured.
func (s *Service) Columns(ctx context.Context, nodeName, baseStation string) ([]models.MetricColumn, error) {
	mappings, err := s.store.ActiveMappings(ctx, nodeName, baseStation)
	if err != nil {
		return nil, fmt.Errorf("failed to load mappings: %w", err)
	}
	if len(mappings) == 0 {
		cols := make([]models.MetricColumn, 0, len(s.rawColumns))
		for _, c := range s.rawColumns {
			cols = append(cols, models.MetricColumn{Column: c, Name: c})
		}
		return cols, nil
	}
	cols := make([]models.MetricColumn, 0, len(mappings))
	for _, m := range mappings {
		cols = append(cols, models.MetricColumn{Column: m.ColumnName, Name: m.MetricName, Unit: m.Unit})
	}
	return cols, nil
}

// Window returns the samples of q's pair in [anchor - window, anchor], where
// anchor is the pair's newest sample. A pair without samples yields an
// empty window and no error. Rows are bucketed when q.Points > 0 or when the
// raw row count exceeds the configured maximum.
func (s *Service) Window(ctx context.Context, q Query) (*models.TelemetryWindow, error) {
	minutes, known := Minutes(q.TimeFilter)
	token := q.TimeFilter
	if !known {
		token = DefaultToken
	}

	w := &models.TelemetryWindow{
		NodeName:        q.NodeName,
		BaseStationName: q.BaseStationName,
		TimeFilter:      token,
		Minutes:         minutes,
		Metrics:         []models.MetricColumn{},
	}

	cols, err := s.Columns(ctx, q.NodeName, q.BaseStationName)
	if err != nil {
		metrics.RecordTelemetryQuery(token, "error")
		return nil, err
	}
	w.Metrics = cols

	anchor, ok, err := s.store.LatestSampleTime(ctx, q.NodeName, q.BaseStationName)
	if err != nil {
		metrics.RecordTelemetryQuery(token, "error")
		return nil, fmt.Errorf("failed to resolve anchor: %w", err)
	}
	if !ok {
		w.Samples = []models.Sample{}
		metrics.RecordTelemetryQuery(token, "empty")
		return w, nil
	}

	w.Anchor = anchor
	w.Start, w.End = Range(anchor, token)

	target := 0
	if q.Points > 0 {
		target = q.Points
	} else {
		n, err := s.store.CountSamples(ctx, q.NodeName, q.BaseStationName, w.Start, w.End)
		if err != nil {
			metrics.RecordTelemetryQuery(token, "error")
			return nil, fmt.Errorf("failed to count samples: %w", err)
		}
		if n > int64(s.maxRawPoints) {
			target = s.targetPoints
		}
	}

	if target > 0 {
		step := StepMinutes(minutes, target)
		buckets, err := s.store.QueryBuckets(ctx, q.NodeName, q.BaseStationName, w.Start, w.End, step, cols)
		if err != nil {
			metrics.RecordTelemetryQuery(token, "error")
			return nil, err
		}
		if buckets == nil {
			buckets = []models.Bucket{}
		}
		w.BucketMinutes = step
		w.Buckets = buckets
		metrics.RecordTelemetryQuery(token, "bucketed")
	} else {
		samples, err := s.store.QuerySamples(ctx, q.NodeName, q.BaseStationName, w.Start, w.End, cols)
		if err != nil {
			metrics.RecordTelemetryQuery(token, "error")
			return nil, err
		}
		if samples == nil {
			samples = []models.Sample{}
		}
		w.Samples = samples
		metrics.RecordTelemetryQuery(token, "raw")
	}

	logging.Ctx(ctx).Debug().
		Str("node", q.NodeName).
		Str("base_station", q.BaseStationName).
		Str("time_filter", token).
		Time("anchor", anchor).
		Int("bucket_minutes", w.BucketMinutes).
		Int("count", w.Count()).
		Msg("Resolved telemetry window")

	return w, nil
}
