// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/telemon/internal/config"
	"github.com/tomtom215/telemon/internal/models"
)

type fakeStore struct {
	anchor   time.Time
	hasData  bool
	count    int64
	mappings []*models.MetricMapping
	err      error

	sampleCalls int
	bucketCalls int
	lastStart   time.Time
	lastEnd     time.Time
	lastStep    int
	lastCols    []models.MetricColumn
}

func (f *fakeStore) LatestSampleTime(context.Context, string, string) (time.Time, bool, error) {
	return f.anchor, f.hasData, f.err
}

func (f *fakeStore) CountSamples(context.Context, string, string, time.Time, time.Time) (int64, error) {
	return f.count, nil
}

func (f *fakeStore) QuerySamples(_ context.Context, _, _ string, start, end time.Time, cols []models.MetricColumn) ([]models.Sample, error) {
	f.sampleCalls++
	f.lastStart, f.lastEnd, f.lastCols = start, end, cols
	return []models.Sample{{Time: end}}, nil
}

func (f *fakeStore) QueryBuckets(_ context.Context, _, _ string, start, end time.Time, step int, cols []models.MetricColumn) ([]models.Bucket, error) {
	f.bucketCalls++
	f.lastStart, f.lastEnd, f.lastStep, f.lastCols = start, end, step, cols
	return []models.Bucket{{BucketStart: start, SampleCount: 3}}, nil
}

func (f *fakeStore) ActiveMappings(context.Context, string, string) ([]*models.MetricMapping, error) {
	return f.mappings, nil
}

var anchor = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store Store) *Service {
	return NewService(store, []string{"Analog1Value", "Analog2Value"},
		config.TelemetryConfig{TargetPoints: 500, MaxRawPoints: 2000})
}

func TestWindowAnchoredToLatestSample(t *testing.T) {
	store := &fakeStore{anchor: anchor, hasData: true, count: 10}
	svc := newTestService(store)

	w, err := svc.Window(context.Background(), Query{NodeName: "north", BaseStationName: "bs-1", TimeFilter: "1h"})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if !w.Anchor.Equal(anchor) || !w.End.Equal(anchor) {
		t.Errorf("anchor/end = %s/%s", w.Anchor, w.End)
	}
	if want := time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC); !w.Start.Equal(want) {
		t.Errorf("start = %s, want %s", w.Start, want)
	}
	if store.sampleCalls != 1 || store.bucketCalls != 0 {
		t.Errorf("expected raw query, got samples=%d buckets=%d", store.sampleCalls, store.bucketCalls)
	}
	if w.BucketMinutes != 0 || w.Count() != 1 {
		t.Errorf("bucketMinutes=%d count=%d", w.BucketMinutes, w.Count())
	}
}

func TestWindowDeterministic(t *testing.T) {
	store := &fakeStore{anchor: anchor, hasData: true}
	svc := newTestService(store)
	q := Query{NodeName: "north", BaseStationName: "bs-1", TimeFilter: "6h"}

	a, err := svc.Window(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Window(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Start.Equal(b.Start) || !a.End.Equal(b.End) {
		t.Errorf("windows differ: %s..%s vs %s..%s", a.Start, a.End, b.Start, b.End)
	}
}

func TestWindowUnknownTokenDefaults(t *testing.T) {
	store := &fakeStore{anchor: anchor, hasData: true}
	svc := newTestService(store)

	w, err := svc.Window(context.Background(), Query{NodeName: "n", BaseStationName: "b", TimeFilter: "bogus"})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if w.TimeFilter != DefaultToken || w.Minutes != 60 {
		t.Errorf("timeFilter=%s minutes=%d", w.TimeFilter, w.Minutes)
	}
	if !w.Start.Equal(anchor.Add(-time.Hour)) {
		t.Errorf("start = %s", w.Start)
	}
}

func TestWindowEmptyPair(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	w, err := svc.Window(context.Background(), Query{NodeName: "n", BaseStationName: "b", TimeFilter: "1d"})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if !w.Empty() || w.Count() != 0 || w.Samples == nil {
		t.Errorf("expected empty non-nil window, got %+v", w)
	}
	if store.sampleCalls+store.bucketCalls != 0 {
		t.Error("no row query should run for a pair without samples")
	}
}

func TestWindowBucketing(t *testing.T) {
	t.Run("auto when over max raw points", func(t *testing.T) {
		store := &fakeStore{anchor: anchor, hasData: true, count: 2001}
		svc := newTestService(store)

		w, err := svc.Window(context.Background(), Query{NodeName: "n", BaseStationName: "b", TimeFilter: "30d"})
		if err != nil {
			t.Fatalf("Window: %v", err)
		}
		if store.bucketCalls != 1 || store.sampleCalls != 0 {
			t.Fatalf("expected bucket query, got samples=%d buckets=%d", store.sampleCalls, store.bucketCalls)
		}
		if w.BucketMinutes != 86 || store.lastStep != 86 {
			t.Errorf("step = %d, want 43200/500", w.BucketMinutes)
		}
		if len(w.Buckets) != 1 || w.Buckets[0].SampleCount < 1 {
			t.Errorf("buckets = %+v", w.Buckets)
		}
	})

	t.Run("at max raw points stays raw", func(t *testing.T) {
		store := &fakeStore{anchor: anchor, hasData: true, count: 2000}
		if _, err := newTestService(store).Window(context.Background(), Query{TimeFilter: "1d"}); err != nil {
			t.Fatal(err)
		}
		if store.sampleCalls != 1 {
			t.Error("expected raw query at the threshold")
		}
	})

	t.Run("explicit points", func(t *testing.T) {
		store := &fakeStore{anchor: anchor, hasData: true, count: 1}
		w, err := newTestService(store).Window(context.Background(), Query{TimeFilter: "1d", Points: 24})
		if err != nil {
			t.Fatal(err)
		}
		if w.BucketMinutes != 60 {
			t.Errorf("step = %d, want 1440/24", w.BucketMinutes)
		}
	})
}

func TestColumnsUseMappings(t *testing.T) {
	store := &fakeStore{anchor: anchor, hasData: true}
	svc := newTestService(store)

	cols, err := svc.Columns(context.Background(), "n", "b")
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 2 || cols[0].Name != "Analog1Value" {
		t.Errorf("unmapped pair should expose raw names, got %+v", cols)
	}

	store.mappings = []*models.MetricMapping{
		{MetricName: "VSWR", ColumnName: "Analog2Value", Unit: ""},
		{MetricName: "Forward Power", ColumnName: "Analog1Value", Unit: "W"},
	}
	if _, err := svc.Window(context.Background(), Query{TimeFilter: "1h"}); err != nil {
		t.Fatal(err)
	}
	if len(store.lastCols) != 2 || store.lastCols[0].Name != "VSWR" || store.lastCols[1].Column != "Analog1Value" {
		t.Errorf("columns passed to store = %+v", store.lastCols)
	}
}

func TestWindowStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("boom")}
	if _, err := newTestService(store).Window(context.Background(), Query{TimeFilter: "1h"}); err == nil {
		t.Fatal("expected error")
	}
}
