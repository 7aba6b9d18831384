// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/telemon/internal/logging"
)

const (
	summarySheet  = "Summary"
	maxSheetName  = 31
	dateNumFormat = "yyyy-mm-dd hh:mm:ss"
)

var summaryHeader = []interface{}{
	"Base Station", "Metric", "Unit", "Samples", "Min", "Max", "Avg", "Latest", "Status", "Message",
}

type xlsxStyles struct {
	header   int
	date     int
	number   int
	warning  int
	critical int
}

func newXLSXStyles(f *excelize.File) (*xlsxStyles, error) {
	var s xlsxStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	dateFmt := dateNumFormat
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt}); err != nil {
		return nil, fmt.Errorf("failed to create date style: %w", err)
	}

	numFmt := "0.00"
	if s.number, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt}); err != nil {
		return nil, fmt.Errorf("failed to create number style: %w", err)
	}

	if s.warning, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#8A6D00"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFF4CC"}, Pattern: 1},
	}); err != nil {
		return nil, fmt.Errorf("failed to create warning style: %w", err)
	}

	if s.critical, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#C62828"}, Pattern: 1},
	}); err != nil {
		return nil, fmt.Errorf("failed to create critical style: %w", err)
	}
	return &s, nil
}

// WriteXLSX renders rep as a workbook with a summary sheet and one sheet per
// base station holding its rows and a line chart.
func WriteXLSX(w io.Writer, rep *Report) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	styles, err := newXLSXStyles(f)
	if err != nil {
		return err
	}

	if err := writeSummarySheet(f, styles, rep); err != nil {
		return err
	}

	used := map[string]bool{strings.ToLower(summarySheet): true}
	for i := range rep.Stations {
		name := uniqueSheetName(rep.Stations[i].Name, used)
		if err := writeStationSheet(f, styles, name, &rep.Stations[i]); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, styles *xlsxStyles, rep *Report) error {
	sheet := summarySheet
	meta := [][]interface{}{
		{"Node", rep.NodeName},
		{"Window", fmt.Sprintf("%s (%d minutes)", rep.TimeFilter, rep.Minutes)},
		{"Generated", rep.GeneratedAt.UTC()},
		{"Generated By", rep.GeneratedBy},
		{"Overall Status", string(rep.Status)},
	}
	for i, row := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary metadata: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, "B3", "B3", styles.date); err != nil {
		return fmt.Errorf("failed to style summary date: %w", err)
	}

	headerRow := len(meta) + 2
	if err := writeHeader(f, styles, sheet, headerRow, summaryHeader); err != nil {
		return err
	}

	row := headerRow + 1
	for _, st := range rep.Stations {
		for _, s := range st.Series {
			sum := s.Summary
			values := []interface{}{st.Name, s.Column.Name, s.Column.Unit, sum.Count}
			if sum.Count > 0 {
				values = append(values, sum.Min, sum.Max, sum.Avg, sum.Latest)
			} else {
				values = append(values, nil, nil, nil, nil)
			}
			values = append(values, string(sum.Status), sum.Message)

			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return fmt.Errorf("failed to write summary row: %w", err)
			}

			first, _ := excelize.CoordinatesToCellName(5, row)
			last, _ := excelize.CoordinatesToCellName(8, row)
			if err := f.SetCellStyle(sheet, first, last, styles.number); err != nil {
				return fmt.Errorf("failed to style summary row: %w", err)
			}
			if style, ok := statusStyle(styles, sum.Status); ok {
				statusCell, _ := excelize.CoordinatesToCellName(9, row)
				if err := f.SetCellStyle(sheet, statusCell, statusCell, style); err != nil {
					return fmt.Errorf("failed to style status: %w", err)
				}
			}
			row++
		}
	}

	widths := []float64{24, 24, 8, 10, 12, 12, 12, 12, 12, 50}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

func statusStyle(styles *xlsxStyles, s Status) (int, bool) {
	switch s {
	case StatusCritical:
		return styles.critical, true
	case StatusWarning:
		return styles.warning, true
	default:
		return 0, false
	}
}

func writeHeader(f *excelize.File, styles *xlsxStyles, sheet string, row int, header []interface{}) error {
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(header), row)
	if err := f.SetSheetRow(sheet, first, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(sheet, first, last, styles.header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

// stationRow is one time step across all of a station's metrics.
type stationRow struct {
	time   time.Time
	values []interface{}
}

func stationRows(st *StationReport) []stationRow {
	index := make(map[time.Time]int)
	var rows []stationRow
	for i, s := range st.Series {
		for _, p := range s.Points {
			idx, ok := index[p.Time]
			if !ok {
				idx = len(rows)
				index[p.Time] = idx
				rows = append(rows, stationRow{time: p.Time, values: make([]interface{}, len(st.Series))})
			}
			rows[idx].values[i] = p.Value
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].time.Before(rows[j].time) })
	return rows
}

func writeStationSheet(f *excelize.File, styles *xlsxStyles, sheet string, st *StationReport) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}

	timeHeader := "Time (UTC)"
	if st.BucketMinutes > 0 {
		timeHeader = fmt.Sprintf("Bucket Start (UTC, %d min)", st.BucketMinutes)
	}
	header := []interface{}{timeHeader}
	for _, s := range st.Series {
		label := s.Column.Name
		if s.Column.Unit != "" {
			label += " (" + s.Column.Unit + ")"
		}
		header = append(header, label)
	}
	if err := writeHeader(f, styles, sheet, 1, header); err != nil {
		return err
	}

	rows := stationRows(st)
	for i, r := range rows {
		values := append([]interface{}{r.time.UTC()}, r.values...)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write data row: %w", err)
		}
	}

	if len(rows) > 0 {
		lastRow := len(rows) + 1
		lastDate, _ := excelize.CoordinatesToCellName(1, lastRow)
		if err := f.SetCellStyle(sheet, "A2", lastDate, styles.date); err != nil {
			return fmt.Errorf("failed to style dates: %w", err)
		}
		if len(st.Series) > 0 {
			lastCell, _ := excelize.CoordinatesToCellName(len(st.Series)+1, lastRow)
			if err := f.SetCellStyle(sheet, "B2", lastCell, styles.number); err != nil {
				return fmt.Errorf("failed to style values: %w", err)
			}
			if err := addLineChart(f, sheet, st, lastRow); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if len(st.Series) > 0 {
		lastCol, _ := excelize.ColumnNumberToName(len(st.Series) + 1)
		if err := f.SetColWidth(sheet, "B", lastCol, 16); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

func addLineChart(f *excelize.File, sheet string, st *StationReport, lastRow int) error {
	series := make([]excelize.ChartSeries, 0, len(st.Series))
	for i := range st.Series {
		col, _ := excelize.ColumnNumberToName(i + 2)
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("'%s'!$%s$1", sheet, col),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, lastRow),
			Values:     fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, col, col, lastRow),
		})
	}

	anchorCol, _ := excelize.ColumnNumberToName(len(st.Series) + 3)
	err := f.AddChart(sheet, anchorCol+"2", &excelize.Chart{
		Type:   excelize.Line,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: st.Name}},
		Legend: excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{
			Width:  720,
			Height: 360,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to add chart to %q: %w", sheet, err)
	}
	return nil
}

// uniqueSheetName makes a valid, unused worksheet name from name.
func uniqueSheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']', '\'':
			return '_'
		default:
			return r
		}
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "Station"
	}
	clean = truncateRunes(clean, maxSheetName)

	candidate := clean
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(clean, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
