// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

/*
Package api exposes the dashboard's REST interface on a chi router.

Route groups:

	/health/live, /health/ready   liveness and DuckDB readiness
	/metrics                      Prometheus exposition
	/api/auth/login               public, 5 attempts per 15 minutes per IP
	/api/...                      bearer-token authenticated

Every authenticated route passes through auth.Authenticator and then an
authz.Middleware role gate. Node-scoped routes additionally check
access.Resolver visibility inside the handler before touching data.

Responses use the models.APIResponse envelope. Failures carry a stable
error code and the request id; 500 messages are generic in production.
Every successful mutation appends an activity log row.
*/
package api
