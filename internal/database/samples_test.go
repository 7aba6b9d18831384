// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/telemon/internal/models"
)

var testAnchor = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func insertSample(t *testing.T, db *DB, node, bs string, at time.Time, values map[string]float64) {
	t.Helper()
	if err := db.InsertSample(context.Background(), node, bs, at, values); err != nil {
		t.Fatalf("InsertSample(%s/%s @ %s): %v", node, bs, at, err)
	}
}

func TestListNodesAndBaseStations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	nodes, err := db.ListNodes(ctx)
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if nodes == nil || len(nodes) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", nodes)
	}

	insertSample(t, db, "north", "bs-2", testAnchor, nil)
	insertSample(t, db, "north", "bs-1", testAnchor, nil)
	insertSample(t, db, "north", "bs-1", testAnchor.Add(-time.Minute), nil)
	insertSample(t, db, "east", "bs-9", testAnchor, nil)

	nodes, err = db.ListNodes(ctx)
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if len(nodes) != 2 || nodes[0] != "east" || nodes[1] != "north" {
		t.Errorf("ListNodes = %v", nodes)
	}

	stations, err := db.ListBaseStations(ctx, "north")
	if err != nil {
		t.Fatalf("ListBaseStations: %v", err)
	}
	if len(stations) != 2 || stations[0] != "bs-1" || stations[1] != "bs-2" {
		t.Errorf("ListBaseStations = %v", stations)
	}

	stations, err = db.ListBaseStations(ctx, "nowhere")
	if err != nil {
		t.Fatalf("ListBaseStations(unknown): %v", err)
	}
	if len(stations) != 0 {
		t.Errorf("unknown node returned %v", stations)
	}
}

func TestLatestSampleTime(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, ok, err := db.LatestSampleTime(ctx, "north", "bs-1")
	if err != nil {
		t.Fatalf("LatestSampleTime: %v", err)
	}
	if ok {
		t.Fatal("expected no anchor for empty pair")
	}

	insertSample(t, db, "north", "bs-1", testAnchor.Add(-2*time.Hour), nil)
	insertSample(t, db, "north", "bs-1", testAnchor, nil)
	insertSample(t, db, "north", "bs-2", testAnchor.Add(time.Hour), nil)

	anchor, ok, err := db.LatestSampleTime(ctx, "north", "bs-1")
	if err != nil || !ok {
		t.Fatalf("LatestSampleTime: ok=%v err=%v", ok, err)
	}
	if !anchor.Equal(testAnchor) {
		t.Errorf("anchor = %s, want %s", anchor, testAnchor)
	}
}

func TestQuerySamplesWindowBounds(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := testAnchor.Add(-time.Hour)
	insertSample(t, db, "north", "bs-1", testAnchor, map[string]float64{"Analog1Value": 1.2})
	insertSample(t, db, "north", "bs-1", start.Add(time.Second), map[string]float64{"Analog1Value": 1.4})
	insertSample(t, db, "north", "bs-1", start, map[string]float64{"Analog1Value": 1.3})
	insertSample(t, db, "north", "bs-1", start.Add(-time.Second), map[string]float64{"Analog1Value": 9.9})
	insertSample(t, db, "north", "bs-2", testAnchor, map[string]float64{"Analog1Value": 7})

	cols := []models.MetricColumn{
		{Column: "Analog1Value", Name: "VSWR"},
		{Column: "Analog2Value", Name: "Temperature"},
	}
	samples, err := db.QuerySamples(ctx, "north", "bs-1", start, testAnchor, cols)
	if err != nil {
		t.Fatalf("QuerySamples: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	if !samples[0].Time.Equal(testAnchor) {
		t.Errorf("first sample %s, want newest first", samples[0].Time)
	}
	if !samples[1].Time.Equal(start.Add(time.Second)) {
		t.Errorf("11:00:01 sample missing, got %s", samples[1].Time)
	}
	if !samples[2].Time.Equal(start) {
		t.Errorf("start bound not inclusive, got %s", samples[2].Time)
	}
	for _, s := range samples {
		if v := s.Values["VSWR"]; v == nil || *v == 9.9 {
			t.Errorf("unexpected VSWR %v at %s", v, s.Time)
		}
		if v, ok := s.Values["Temperature"]; !ok || v != nil {
			t.Errorf("NULL column should be present and nil, got %v", v)
		}
		if s.NodeName != "north" || s.BaseStationName != "bs-1" {
			t.Errorf("wrong pair %s/%s", s.NodeName, s.BaseStationName)
		}
	}
}

func TestQuerySamplesRejectsUnknownColumn(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.QuerySamples(context.Background(), "n", "b", testAnchor, testAnchor,
		[]models.MetricColumn{{Column: "password_hash", Name: "x"}})
	if !errors.Is(err, ErrInvalidColumn) {
		t.Fatalf("expected ErrInvalidColumn, got %v", err)
	}

	err = db.InsertSample(context.Background(), "n", "b", testAnchor, map[string]float64{"bogus": 1})
	if !errors.Is(err, ErrInvalidColumn) {
		t.Fatalf("InsertSample: expected ErrInvalidColumn, got %v", err)
	}
}

func TestQueryBuckets(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := testAnchor.Add(-time.Hour)
	// Two samples in the first 10-minute bucket, one in the last, none between.
	insertSample(t, db, "north", "bs-1", start.Add(time.Minute), map[string]float64{"Analog1Value": 1})
	insertSample(t, db, "north", "bs-1", start.Add(2*time.Minute), map[string]float64{"Analog1Value": 3})
	insertSample(t, db, "north", "bs-1", testAnchor.Add(-5*time.Minute), map[string]float64{"Analog1Value": 10})

	cols := []models.MetricColumn{{Column: "Analog1Value", Name: "VSWR"}}
	buckets, err := db.QueryBuckets(ctx, "north", "bs-1", start, testAnchor, 10, cols)
	if err != nil {
		t.Fatalf("QueryBuckets: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, want 2 (empty buckets must not be emitted)", len(buckets))
	}

	newest, oldest := buckets[0], buckets[1]
	if !newest.BucketStart.Equal(start.Add(50 * time.Minute)) {
		t.Errorf("newest bucket start %s", newest.BucketStart)
	}
	if !oldest.BucketStart.Equal(start) {
		t.Errorf("oldest bucket start %s, want aligned to window start", oldest.BucketStart)
	}
	if oldest.SampleCount != 2 || newest.SampleCount != 1 {
		t.Errorf("counts = %d, %d", oldest.SampleCount, newest.SampleCount)
	}
	if v := oldest.Values["VSWR"]; v == nil || *v != 2 {
		t.Errorf("oldest average = %v, want 2", v)
	}
	for _, b := range buckets {
		if b.SampleCount < 1 {
			t.Errorf("bucket %s has zero samples", b.BucketStart)
		}
	}
}

func TestCountSamples(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		insertSample(t, db, "north", "bs-1", testAnchor.Add(-time.Duration(i)*time.Minute), nil)
	}
	n, err := db.CountSamples(ctx, "north", "bs-1", testAnchor.Add(-2*time.Minute), testAnchor)
	if err != nil {
		t.Fatalf("CountSamples: %v", err)
	}
	if n != 3 {
		t.Errorf("CountSamples = %d, want 3", n)
	}
}
