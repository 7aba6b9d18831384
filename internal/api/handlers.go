// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package api

import (
	"time"

	"github.com/tomtom215/telemon/internal/access"
	"github.com/tomtom215/telemon/internal/auth"
	"github.com/tomtom215/telemon/internal/config"
	"github.com/tomtom215/telemon/internal/database"
	"github.com/tomtom215/telemon/internal/mapping"
	"github.com/tomtom215/telemon/internal/report"
	"github.com/tomtom215/telemon/internal/telemetry"
)

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files by resource:
//   - handlers_auth.go: login, verify, logout
//   - handlers_health.go: liveness and readiness
//   - handlers_telemetry.go: nodes, base stations, telemetry windows
//   - handlers_reports.go: HTML/XLSX report export
//   - handlers_users.go: user administration and profile
//   - handlers_assignments.go: node assignments
//   - handlers_mappings.go: metric mappings and audit
//   - handlers_activity.go: activity log
type Handler struct {
	db        *database.DB
	config    *config.Config
	auth      *auth.Service
	access    *access.Resolver
	telemetry *telemetry.Service
	mappings  *mapping.Service
	reports   *report.Service
	trusted   map[string]bool
	startTime time.Time
}

// Services bundles the domain services the handlers call.
type Services struct {
	Auth      *auth.Service
	Access    *access.Resolver
	Telemetry *telemetry.Service
	Mappings  *mapping.Service
	Reports   *report.Service
}

// NewHandler creates a new API handler.
func NewHandler(db *database.DB, cfg *config.Config, svc Services) *Handler {
	return &Handler{
		db:        db,
		config:    cfg,
		auth:      svc.Auth,
		access:    svc.Access,
		telemetry: svc.Telemetry,
		mappings:  svc.Mappings,
		reports:   svc.Reports,
		trusted:   auth.TrustedProxySet(cfg.Security.TrustedProxies),
		startTime: time.Now(),
	}
}
