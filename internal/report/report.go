// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

// Package report builds node health reports from telemetry windows and
// renders them as HTML or XLSX documents.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/telemon/internal/config"
	"github.com/tomtom215/telemon/internal/logging"
	"github.com/tomtom215/telemon/internal/metrics"
	"github.com/tomtom215/telemon/internal/models"
	"github.com/tomtom215/telemon/internal/telemetry"
)

var (
	// ErrTimeout is returned when gathering exceeds the report deadline.
	ErrTimeout = errors.New("report generation timed out")

	// ErrUnknownFormat is returned for formats other than html and xlsx.
	ErrUnknownFormat = errors.New("unknown report format")
)

// Format is an output document type.
type Format string

const (
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts html (the default for an empty string) and xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/html; charset=utf-8"
}

// Filename is a download name for a report of node rendered as f.
func (f Format) Filename(node string, at time.Time) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, node)
	return fmt.Sprintf("telemetry-report-%s-%s.%s", safe, at.UTC().Format("20060102-150405"), f)
}

// MetricSeries is one metric's observations and analysis.
type MetricSeries struct {
	Column  models.MetricColumn
	Points  []Point
	Summary Summary
}

// StationReport covers one base station.
type StationReport struct {
	Name          string
	Window        *models.TelemetryWindow
	Series        []MetricSeries
	Status        Status
	BucketMinutes int
}

// Report is the gathered content of a node report.
type Report struct {
	NodeName    string
	TimeFilter  string
	Minutes     int
	GeneratedAt time.Time
	GeneratedBy string
	Stations    []StationReport
	Status      Status
}

// Counts tallies metric statuses across all stations.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int, 4)
	for _, st := range r.Stations {
		for _, s := range st.Series {
			counts[s.Summary.Status]++
		}
	}
	return counts
}

// WindowSource resolves telemetry windows.
type WindowSource interface {
	Window(ctx context.Context, q telemetry.Query) (*models.TelemetryWindow, error)
}

// StationLister lists a node's base stations.
type StationLister interface {
	ListBaseStations(ctx context.Context, nodeName string) ([]string, error)
}

// Service gathers and renders reports.
type Service struct {
	windows  WindowSource
	stations StationLister
	timeout  time.Duration
	now      func() time.Time
}

// NewService creates a report service.
func NewService(windows WindowSource, stations StationLister, cfg config.ReportConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{windows: windows, stations: stations, timeout: timeout, now: time.Now}
}

// Generate gathers every base station of nodeName, one after another,
// under the report deadline. Node visibility must be checked by the caller.
func (s *Service) Generate(ctx context.Context, nodeName, timeFilter, requestedBy string) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stations, err := s.stations.ListBaseStations(ctx, nodeName)
	if err != nil {
		return nil, deadline(ctx, fmt.Errorf("failed to list base stations: %w", err))
	}

	token := timeFilter
	minutes, ok := telemetry.Minutes(token)
	if !ok {
		token = telemetry.DefaultToken
	}

	rep := &Report{
		NodeName:    nodeName,
		TimeFilter:  token,
		Minutes:     minutes,
		GeneratedAt: s.now().UTC(),
		GeneratedBy: requestedBy,
		Stations:    make([]StationReport, 0, len(stations)),
		Status:      StatusNoData,
	}

	for _, bs := range stations {
		if err := ctx.Err(); err != nil {
			return nil, deadline(ctx, err)
		}

		w, err := s.windows.Window(ctx, telemetry.Query{NodeName: nodeName, BaseStationName: bs, TimeFilter: token})
		if err != nil {
			return nil, deadline(ctx, fmt.Errorf("failed to load %s/%s: %w", nodeName, bs, err))
		}

		st := buildStation(bs, w)
		rep.Status = rep.Status.Worse(st.Status)
		rep.Stations = append(rep.Stations, st)
	}

	logging.Ctx(ctx).Debug().
		Str("node", nodeName).
		Str("time_filter", token).
		Int("stations", len(rep.Stations)).
		Str("status", string(rep.Status)).
		Msg("Gathered report")

	return rep, nil
}

// deadline converts err to ErrTimeout when ctx's deadline has passed.
func deadline(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func buildStation(name string, w *models.TelemetryWindow) StationReport {
	st := StationReport{
		Name:          name,
		Window:        w,
		Status:        StatusNoData,
		BucketMinutes: w.BucketMinutes,
	}

	for _, col := range w.Metrics {
		points := seriesPoints(w, col.Name)
		summary := Summarize(col.Name, col.Unit, points)
		st.Status = st.Status.Worse(summary.Status)
		st.Series = append(st.Series, MetricSeries{Column: col, Points: points, Summary: summary})
	}
	return st
}

// seriesPoints extracts the non-null values of metric in ascending time order.
func seriesPoints(w *models.TelemetryWindow, metric string) []Point {
	var points []Point
	if w.BucketMinutes > 0 {
		for _, b := range w.Buckets {
			if v := b.Values[metric]; v != nil {
				points = append(points, Point{Time: b.BucketStart, Value: *v})
			}
		}
	} else {
		for _, smp := range w.Samples {
			if v := smp.Values[metric]; v != nil {
				points = append(points, Point{Time: smp.Time, Value: *v})
			}
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
	return points
}

// Render writes rep in format f to w, recording duration and outcome.
func (s *Service) Render(w io.Writer, rep *Report, f Format) error {
	start := time.Now()

	var buf bytes.Buffer
	var err error
	switch f {
	case FormatHTML:
		err = WriteHTML(&buf, rep)
	case FormatXLSX:
		err = WriteXLSX(&buf, rep)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	metrics.RecordReport(string(f), time.Since(start), err)
	if err != nil {
		return err
	}

	_, err = buf.WriteTo(w)
	return err
}
