// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

/*
Package models defines the data structures shared between the database,
service and API layers.

Key Structures:
  - User, NodeAssignment: accounts and node access grants
  - MetricMapping, MappingAuditEntry: display metric bindings with history
  - TelemetryWindow, Bucket: time-window query results
  - ActivityEntry: append-only audit of user actions
  - APIResponse, APIError: HTTP envelope
*/
package models
