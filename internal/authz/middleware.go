// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package authz

import (
	"net/http"

	"github.com/tomtom215/telemon/internal/auth"
	"github.com/tomtom215/telemon/internal/logging"
	"github.com/tomtom215/telemon/internal/middleware"
	"github.com/tomtom215/telemon/internal/models"
)

// Middleware enforces role permissions on authenticated routes.
type Middleware struct {
	enforcer *Enforcer
	security *logging.SecurityLogger
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{
		enforcer: enforcer,
		security: logging.NewSecurityLogger(),
	}
}

// Authorize returns middleware that admits only roles allowed action on
// resource. It must run after auth.Authenticator.
func (m *Middleware) Authorize(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFromContext(r.Context())
			if user == nil {
				middleware.WriteError(w, r, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Authentication required")
				return
			}

			allowed, err := m.enforcer.Enforce(user.Role, resource, action)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
				middleware.WriteError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Internal server error")
				return
			}
			if !allowed {
				m.security.LogPermissionDenied(user.Username, user.Role, resource, action)
				middleware.WriteError(w, r, http.StatusForbidden, models.ErrCodeForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
