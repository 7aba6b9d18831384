// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

/*
Package authz decides which roles may perform which actions on which API
resources.

Decisions come from a Casbin RBAC model embedded in the binary (model.conf,
policy.csv). The request subject is the caller's role, the object is a
resource name such as "users" or "metric-mappings", and the action is
"read" or "write". Roles inherit downward: admin holds every manager
permission and manager holds every viewer permission.

Node visibility is not a role question and lives in package access.

Usage:

	enforcer, err := authz.NewEnforcer(cfg.Security.CacheTTL)
	authorizer := authz.NewMiddleware(enforcer)
	r.With(authorizer.Authorize(authz.ResourceUsers, authz.ActionWrite)).Post("/users", h.CreateUser)
*/
package authz
