// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package report

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

// Status is the health classification of a metric.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusNoData   Status = "no_data"
)

func (s Status) rank() int {
	switch s {
	case StatusCritical:
		return 3
	case StatusWarning:
		return 2
	case StatusOK:
		return 1
	default:
		return 0
	}
}

// Worse returns the more severe of s and other.
func (s Status) Worse(other Status) Status {
	if other.rank() > s.rank() {
		return other
	}
	return s
}

// Rule is a threshold check applied to metrics whose normalized name
// contains one of Match. Upper rules test the maximum, lower rules the
// minimum. A zero Critical disables the critical level.
type Rule struct {
	Label    string
	Match    []string
	Lower    bool
	Warning  float64
	Critical float64
	Unit     string
}

// DefaultRules are the built-in RF health thresholds.
var DefaultRules = []Rule{
	{Label: "VSWR", Match: []string{"vswr"}, Warning: 1.5, Critical: 2.0},
	{Label: "Temperature", Match: []string{"temperature", "temp"}, Warning: 60, Critical: 75, Unit: "°C"},
	{Label: "Forward power", Match: []string{"forwardpower", "fwdpower"}, Lower: true, Warning: 10, Unit: "W"},
	{Label: "Reflected power", Match: []string{"reflectedpower", "reflpower"}, Warning: 5, Unit: "W"},
}

func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RuleFor returns the first rule matching metricName.
func RuleFor(metricName string) (Rule, bool) {
	n := normalizeName(metricName)
	for _, rule := range DefaultRules {
		for _, m := range rule.Match {
			if strings.Contains(n, m) {
				return rule, true
			}
		}
	}
	return Rule{}, false
}

// Point is one non-null observation.
type Point struct {
	Time  time.Time
	Value float64
}

// Summary describes one metric over the report window.
type Summary struct {
	Metric  string  `json:"metric"`
	Unit    string  `json:"unit,omitempty"`
	Count   int     `json:"count"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Avg     float64 `json:"avg"`
	Latest  float64 `json:"latest"`
	Status  Status  `json:"status"`
	Message string  `json:"message"`
}

// Summarize computes statistics for points, which must be in ascending
// time order, and classifies them against the matching rule.
func Summarize(metric, unit string, points []Point) Summary {
	s := Summary{Metric: metric, Unit: unit, Count: len(points)}
	if len(points) == 0 {
		s.Status = StatusNoData
		s.Message = "No data in window"
		return s
	}

	s.Min, s.Max = math.Inf(1), math.Inf(-1)
	var sum float64
	for _, p := range points {
		s.Min = math.Min(s.Min, p.Value)
		s.Max = math.Max(s.Max, p.Value)
		sum += p.Value
	}
	s.Avg = sum / float64(len(points))
	s.Latest = points[len(points)-1].Value

	s.Status, s.Message = classify(metric, s.Min, s.Max)
	return s
}

func classify(metric string, minVal, maxVal float64) (Status, string) {
	rule, ok := RuleFor(metric)
	if !ok {
		return StatusOK, "No threshold configured"
	}

	if rule.Lower {
		if minVal < rule.Warning {
			return StatusWarning, fmt.Sprintf("%s dropped to %s (below %s)", rule.Label, fmtValue(minVal, rule.Unit), fmtValue(rule.Warning, rule.Unit))
		}
		return StatusOK, fmt.Sprintf("%s within limits", rule.Label)
	}

	switch {
	case rule.Critical > 0 && maxVal > rule.Critical:
		return StatusCritical, fmt.Sprintf("%s reached %s (critical above %s)", rule.Label, fmtValue(maxVal, rule.Unit), fmtValue(rule.Critical, rule.Unit))
	case maxVal > rule.Warning:
		return StatusWarning, fmt.Sprintf("%s reached %s (warning above %s)", rule.Label, fmtValue(maxVal, rule.Unit), fmtValue(rule.Warning, rule.Unit))
	default:
		return StatusOK, fmt.Sprintf("%s within limits", rule.Label)
	}
}

func fmtValue(v float64, unit string) string {
	s := fmt.Sprintf("%.2f", v)
	if unit != "" {
		s += " " + unit
	}
	return s
}
