// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

// Package telemetry resolves relative time-window tokens against the newest
// sample of a node/base-station pair and returns raw or bucketed rows.
package telemetry

import "time"

// DefaultToken is used when a request names no window or an unknown one.
const DefaultToken = "1h"

const defaultMinutes = 60

// windowMinutes maps relative window tokens to their length in minutes.
var windowMinutes = map[string]int{
	"5m":  5,
	"10m": 10,
	"30m": 30,
	"1h":  60,
	"2h":  120,
	"6h":  360,
	"1d":  1440,
	"2d":  2880,
	"5d":  7200,
	"1w":  10080,
	"2w":  20160,
	"30d": 43200,
}

// Tokens returns the accepted window tokens, shortest first.
func Tokens() []string {
	return []string{"5m", "10m", "30m", "1h", "2h", "6h", "1d", "2d", "5d", "1w", "2w", "30d"}
}

// Minutes resolves a token to its window length. Unknown or empty tokens
// resolve to the one-hour default; known reports whether the token matched.
func Minutes(token string) (minutes int, known bool) {
	if m, ok := windowMinutes[token]; ok {
		return m, true
	}
	return defaultMinutes, false
}

// Range returns the inclusive [start, anchor] interval for a token.
func Range(anchor time.Time, token string) (start, end time.Time) {
	m, _ := Minutes(token)
	return anchor.Add(-time.Duration(m) * time.Minute), anchor
}

// StepMinutes is the bucket width that spreads minutes over roughly
// targetPoints buckets. Never less than one minute.
func StepMinutes(minutes, targetPoints int) int {
	if targetPoints <= 0 {
		return max(1, minutes)
	}
	return max(1, minutes/targetPoints)
}
