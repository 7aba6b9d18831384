// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package models

import "time"

// MetricColumn is a raw sample column exposed under a display name.
type MetricColumn struct {
	Column string `json:"column"`
	Name   string `json:"name"`
	Unit   string `json:"unit,omitempty"`
}

// Sample is one timestamped row for a node/base station. Values is keyed
// by display metric name; a nil entry is a NULL column.
type Sample struct {
	Time            time.Time           `json:"time"`
	NodeName        string              `json:"NodeName"`
	BaseStationName string              `json:"NodeBaseStationName"`
	Values          map[string]*float64 `json:"values"`
}

// Bucket is an aggregated slice of a telemetry window. SampleCount is always >= 1.
type Bucket struct {
	BucketStart time.Time           `json:"bucket_start"`
	SampleCount int64               `json:"sample_count"`
	Values      map[string]*float64 `json:"values"`
}

// TelemetryWindow is the resolved result of a relative time-window query.
// Anchor, Start and End are zero when the pair has no samples.
type TelemetryWindow struct {
	NodeName        string         `json:"node"`
	BaseStationName string         `json:"baseStation"`
	TimeFilter      string         `json:"timeFilter"`
	Minutes         int            `json:"minutes"`
	Anchor          time.Time      `json:"anchor"`
	Start           time.Time      `json:"start"`
	End             time.Time      `json:"end"`
	Metrics         []MetricColumn `json:"metrics"`
	BucketMinutes   int            `json:"bucketMinutes,omitempty"`
	Samples         []Sample       `json:"samples,omitempty"`
	Buckets         []Bucket       `json:"buckets,omitempty"`
}

// Empty reports whether the window found no samples.
func (w *TelemetryWindow) Empty() bool {
	return w.Anchor.IsZero()
}

// Count is the number of rows or buckets returned.
func (w *TelemetryWindow) Count() int {
	if w.BucketMinutes > 0 {
		return len(w.Buckets)
	}
	return len(w.Samples)
}
