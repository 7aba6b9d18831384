// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

/*
Package auth authenticates dashboard users.

Accounts are local: a username and a bcrypt password hash stored in the
users table. A successful login issues an HS256 JWT and records a session
row keyed by the token's jti; the token is only honoured while that session
exists and is not revoked, so logout and user deactivation take effect
immediately.

Key Components:

  - JWTManager: token issue and validation (golang-jwt/jwt/v5)
  - Service: login and logout, wired to the lockout manager and the
    security logger
  - Authenticator: HTTP middleware accepting "Authorization: Bearer" or the
    "token" cookie and placing the current user in the request context
  - LockoutManager: per-username lockout after repeated failures, kept in
    memory or in an embedded Badger store
  - RateLimiter: per-IP token bucket (golang.org/x/time/rate)

Login attempts are additionally limited per client IP by the API router
(go-chi/httprate).
*/
package auth
