// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

/*
Package database is the DuckDB storage layer for Telemon.

The store holds the append-only sample table (node_status_table) plus the
normalized tables for users, sessions, node assignments, metric mappings,
the mapping audit trail and the activity log.

Every query runs through a circuit breaker (sony/gobreaker) so a failing
engine is reported as ErrUnavailable instead of stalling requests, and is
timed into the telemon_db_query_* Prometheus metrics.

Metric mapping mutations and their audit rows are written in a single
transaction; see mappings.go.

Raw sample column names are interpolated into SQL only after passing the
SampleColumns allow-list.
*/
package database
