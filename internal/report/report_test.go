// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/telemon/internal/config"
	"github.com/tomtom215/telemon/internal/models"
	"github.com/tomtom215/telemon/internal/telemetry"
)

var testAnchor = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }

type fakeSource struct {
	stations []string
	delay    time.Duration
}

func (f *fakeSource) ListBaseStations(_ context.Context, _ string) ([]string, error) {
	return f.stations, nil
}

func (f *fakeSource) Window(ctx context.Context, q telemetry.Query) (*models.TelemetryWindow, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	minutes, _ := telemetry.Minutes(q.TimeFilter)
	start, end := telemetry.Range(testAnchor, q.TimeFilter)
	w := &models.TelemetryWindow{
		NodeName:        q.NodeName,
		BaseStationName: q.BaseStationName,
		TimeFilter:      q.TimeFilter,
		Minutes:         minutes,
		Anchor:          testAnchor,
		Start:           start,
		End:             end,
		Metrics: []models.MetricColumn{
			{Column: "value1", Name: "VSWR"},
			{Column: "value2", Name: "Temperature", Unit: "C"},
		},
	}
	// newest first, as the store returns them
	for i := 0; i < 3; i++ {
		w.Samples = append(w.Samples, models.Sample{
			Time:            testAnchor.Add(-time.Duration(i) * 10 * time.Minute),
			NodeName:        q.NodeName,
			BaseStationName: q.BaseStationName,
			Values: map[string]*float64{
				"VSWR":        fp(1.1 + 0.25*float64(i)),
				"Temperature": fp(40),
			},
		})
	}
	return w, nil
}

func TestService_Generate(t *testing.T) {
	src := &fakeSource{stations: []string{"BS-1", "BS-2"}}
	svc := NewService(src, src, config.ReportConfig{Timeout: time.Second})

	rep, err := svc.Generate(context.Background(), "NodeA", "bogus", "alice")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if rep.TimeFilter != telemetry.DefaultToken || rep.Minutes != 60 {
		t.Errorf("window = %s/%d, want default 1h/60", rep.TimeFilter, rep.Minutes)
	}
	if len(rep.Stations) != 2 {
		t.Fatalf("stations = %d", len(rep.Stations))
	}

	vswr := rep.Stations[0].Series[0]
	if vswr.Summary.Status != StatusWarning {
		t.Errorf("VSWR max 1.6 status = %s, want warning", vswr.Summary.Status)
	}
	if vswr.Summary.Latest != 1.1 {
		t.Errorf("latest = %v, want newest sample 1.1", vswr.Summary.Latest)
	}
	if !vswr.Points[0].Time.Before(vswr.Points[2].Time) {
		t.Error("points should be ascending")
	}
	if rep.Status != StatusWarning {
		t.Errorf("overall = %s", rep.Status)
	}
	if got := rep.Counts()[StatusWarning]; got != 2 {
		t.Errorf("warning count = %d, want 2", got)
	}
}

func TestService_GenerateTimeout(t *testing.T) {
	src := &fakeSource{stations: []string{"BS-1"}, delay: time.Second}
	svc := NewService(src, src, config.ReportConfig{Timeout: 20 * time.Millisecond})

	_, err := svc.Generate(context.Background(), "NodeA", "1h", "alice")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestRender(t *testing.T) {
	src := &fakeSource{stations: []string{"BS/1", "BS/1"}}
	svc := NewService(src, src, config.ReportConfig{})
	rep, err := svc.Generate(context.Background(), "NodeA", "1h", "alice")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("html", func(t *testing.T) {
		var buf bytes.Buffer
		if err := svc.Render(&buf, rep, FormatHTML); err != nil {
			t.Fatalf("Render: %v", err)
		}
		out := buf.String()
		for _, want := range []string{"<svg", "<polyline", "NodeA", "VSWR", "warning"} {
			if !strings.Contains(out, want) {
				t.Errorf("html missing %q", want)
			}
		}
	})

	t.Run("xlsx", func(t *testing.T) {
		var buf bytes.Buffer
		if err := svc.Render(&buf, rep, FormatXLSX); err != nil {
			t.Fatalf("Render: %v", err)
		}
		f, err := excelize.OpenReader(&buf)
		if err != nil {
			t.Fatalf("OpenReader: %v", err)
		}
		defer func() { _ = f.Close() }()

		sheets := f.GetSheetList()
		want := []string{"Summary", "BS_1", "BS_1 (2)"}
		if strings.Join(sheets, ",") != strings.Join(want, ",") {
			t.Fatalf("sheets = %v, want %v", sheets, want)
		}

		rows, err := f.GetRows("BS_1")
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 4 {
			t.Errorf("station rows = %d, want header + 3", len(rows))
		}

		status, err := f.GetCellValue("Summary", "I8")
		if err != nil {
			t.Fatal(err)
		}
		if status != string(StatusWarning) {
			t.Errorf("first summary status = %q", status)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := svc.Render(&bytes.Buffer{}, rep, Format("pdf")); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatHTML, "HTML": FormatHTML, "xlsx": FormatXLSX} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("pdf err = %v", err)
	}
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]bool{"summary": true}
	if got := uniqueSheetName("Summary", used); got != "Summary (2)" {
		t.Errorf("got %q", got)
	}
	long := strings.Repeat("x", 40)
	if got := uniqueSheetName(long, used); len(got) != maxSheetName {
		t.Errorf("len = %d", len(got))
	}
}
