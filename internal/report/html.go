// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

const (
	chartWidth   = 640.0
	chartHeight  = 160.0
	chartPadding = 24.0
)

// chart is the precomputed geometry of one inline SVG chart.
type chart struct {
	Points       string
	MinLabel     string
	MaxLabel     string
	HasThreshold bool
	ThresholdY   float64 // y coordinate of the warning line
	Empty        bool
}

func buildChart(series MetricSeries) chart {
	pts := series.Points
	if len(pts) == 0 {
		return chart{Empty: true}
	}

	lo, hi := series.Summary.Min, series.Summary.Max
	rule, hasRule := RuleFor(series.Column.Name)
	if hasRule {
		if rule.Warning < lo {
			lo = rule.Warning
		}
		if rule.Warning > hi {
			hi = rule.Warning
		}
	}
	if hi == lo {
		hi, lo = hi+1, lo-1
	}

	t0 := pts[0].Time
	span := pts[len(pts)-1].Time.Sub(t0).Seconds()
	plotW := chartWidth - 2*chartPadding
	plotH := chartHeight - 2*chartPadding

	y := func(v float64) float64 {
		return chartPadding + plotH*(1-(v-lo)/(hi-lo))
	}

	var b strings.Builder
	for i, p := range pts {
		x := chartPadding
		if span > 0 {
			x += plotW * p.Time.Sub(t0).Seconds() / span
		} else if len(pts) > 1 {
			x += plotW * float64(i) / float64(len(pts)-1)
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", x, y(p.Value))
	}

	c := chart{
		Points:   b.String(),
		MinLabel: fmt.Sprintf("%.2f", lo),
		MaxLabel: fmt.Sprintf("%.2f", hi),
	}
	if hasRule {
		c.HasThreshold = true
		c.ThresholdY = y(rule.Warning)
	}
	return c
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"chart": buildChart,
	"num":   func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"ts":    formatTime,
	"inc":   func(i int) int { return i + 1 },
	"right": func() float64 { return chartWidth - chartPadding },
	"left":  func() float64 { return chartPadding },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Telemetry report: {{.NodeName}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:2em;color:#222}
table{border-collapse:collapse;margin:1em 0;width:100%}
th,td{border:1px solid #ccc;padding:4px 8px;text-align:left;font-size:13px}
th{background:#e6f3ff}
.ok{color:#1b7f3b}.warning{color:#b8860b}.critical{color:#c62828;font-weight:bold}.no_data{color:#888}
svg{border:1px solid #eee;background:#fafafa}
@media print{section{page-break-inside:avoid}}
</style>
</head>
<body>
<h1>Telemetry report: {{.NodeName}}</h1>
<p>Window: {{.TimeFilter}} ({{.Minutes}} minutes) &middot; Generated {{ts .GeneratedAt}}{{with .GeneratedBy}} by {{.}}{{end}} &middot; Overall status: <span class="{{.Status}}">{{.Status}}</span></p>

<h2>Summary</h2>
{{if .Stations}}
<table>
<thead><tr><th>Base station</th><th>Metric</th><th>Unit</th><th>Samples</th><th>Min</th><th>Max</th><th>Avg</th><th>Latest</th><th>Status</th><th>Message</th></tr></thead>
<tbody>
{{range $st := .Stations}}{{range .Series}}<tr>
<td>{{$st.Name}}</td><td>{{.Column.Name}}</td><td>{{.Column.Unit}}</td><td>{{.Summary.Count}}</td>
{{if .Summary.Count}}<td>{{num .Summary.Min}}</td><td>{{num .Summary.Max}}</td><td>{{num .Summary.Avg}}</td><td>{{num .Summary.Latest}}</td>{{else}}<td colspan="4">-</td>{{end}}
<td class="{{.Summary.Status}}">{{.Summary.Status}}</td><td>{{.Summary.Message}}</td>
</tr>
{{end}}{{end}}</tbody>
</table>
{{else}}
<p>No base stations reported data for this node.</p>
{{end}}

{{range .Stations}}
<section>
<h2>{{.Name}} <small class="{{.Status}}">{{.Status}}</small></h2>
{{if .Window.Empty}}<p>No samples.</p>{{else}}<p>{{ts .Window.Start}} to {{ts .Window.End}}{{if .BucketMinutes}} &middot; averaged over {{.BucketMinutes}}-minute buckets{{end}}</p>{{end}}
{{range .Series}}{{$c := chart .}}
<h3>{{.Column.Name}}{{with .Column.Unit}} ({{.}}){{end}}</h3>
{{if $c.Empty}}<p class="no_data">No data in window.</p>{{else}}
<svg xmlns="http://www.w3.org/2000/svg" width="640" height="160" viewBox="0 0 640 160" role="img" aria-label="{{.Column.Name}}">
<text x="2" y="20" font-size="10">{{$c.MaxLabel}}</text>
<text x="2" y="150" font-size="10">{{$c.MinLabel}}</text>
{{if $c.HasThreshold}}<line x1="{{left}}" y1="{{printf "%.1f" $c.ThresholdY}}" x2="{{right}}" y2="{{printf "%.1f" $c.ThresholdY}}" stroke="#b8860b" stroke-dasharray="4 3"/>{{end}}
<polyline fill="none" stroke="#1565c0" stroke-width="1.5" points="{{$c.Points}}"/>
</svg>{{end}}
{{end}}
</section>
{{end}}
</body>
</html>
`))

// WriteHTML renders rep as a standalone HTML document.
func WriteHTML(w io.Writer, rep *Report) error {
	if err := htmlTemplate.Execute(w, rep); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}
