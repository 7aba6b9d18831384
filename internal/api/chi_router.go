// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/telemon/internal/auth"
	"github.com/tomtom215/telemon/internal/authz"
	"github.com/tomtom215/telemon/internal/middleware"
	"github.com/tomtom215/telemon/internal/models"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	authenticator *auth.Authenticator
	authorizer    *authz.Middleware
	verifyLimiter *auth.RateLimiter
}

// NewRouter creates a router. verifyLimiter may be nil.
func NewRouter(handler *Handler, chiMw *ChiMiddleware, authenticator *auth.Authenticator, authorizer *authz.Middleware, verifyLimiter *auth.RateLimiter) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
		authenticator: authenticator,
		authorizer:    authorizer,
		verifyLimiter: verifyLimiter,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, models.ErrCodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, models.ErrCodeValidation, "Method not allowed")
	})

	// Health
	r.Route("/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.With(router.chiMiddleware.RateLimitLogin()).Post("/auth/login", router.handler.Login)

		// Everything else requires a valid session.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(router.authenticator.Authenticate)

			verify := r.With()
			if router.verifyLimiter != nil {
				verify = r.With(router.verifyLimiter.Limit)
			}
			verify.Get("/auth/verify", router.handler.Verify)
			r.Post("/auth/logout", router.handler.Logout)

			router.telemetryRoutes(r)
			router.profileRoutes(r)
			router.userRoutes(r)
			router.assignmentRoutes(r)
			router.mappingRoutes(r)

			r.With(router.authorizer.Authorize(authz.ResourceActivity, authz.ActionRead)).
				Get("/activity", router.handler.ListActivity)
		})
	})

	return r
}

func (router *Router) can(resource, action string) func(http.Handler) http.Handler {
	return router.authorizer.Authorize(resource, action)
}

func (router *Router) telemetryRoutes(r chi.Router) {
	r.With(router.can(authz.ResourceNodes, authz.ActionRead)).Get("/nodes", router.handler.ListNodes)
	r.With(router.can(authz.ResourceNodes, authz.ActionRead)).Get("/basestations/{nodeName}", router.handler.ListBaseStations)
	r.With(router.can(authz.ResourceTelemetry, authz.ActionRead)).Get("/telemetry/{nodeName}/{baseStation}", router.handler.Telemetry)
	r.With(router.can(authz.ResourceReports, authz.ActionRead)).Get("/reports/{nodeName}", router.handler.ExportReport)
}

func (router *Router) profileRoutes(r chi.Router) {
	r.With(router.can(authz.ResourceProfile, authz.ActionRead)).Get("/profile", router.handler.GetProfile)
	r.With(router.can(authz.ResourceProfile, authz.ActionWrite)).Put("/profile", router.handler.UpdateProfile)
}

func (router *Router) userRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(router.can(authz.ResourceUsers, authz.ActionRead)).Get("/", router.handler.ListUsers)
		r.With(router.can(authz.ResourceUsers, authz.ActionWrite)).Post("/", router.handler.CreateUser)
		r.With(router.can(authz.ResourceUsers, authz.ActionRead)).Get("/{id}", router.handler.GetUser)
		r.With(router.can(authz.ResourceUsers, authz.ActionWrite)).Put("/{id}", router.handler.UpdateUser)
		r.With(router.can(authz.ResourceUsers, authz.ActionWrite)).Delete("/{id}", router.handler.DeleteUser)
	})
}

func (router *Router) assignmentRoutes(r chi.Router) {
	r.Route("/node-assignments", func(r chi.Router) {
		r.With(router.can(authz.ResourceAssignments, authz.ActionRead)).Get("/", router.handler.ListAssignments)
		r.With(router.can(authz.ResourceAssignments, authz.ActionWrite)).Post("/", router.handler.CreateAssignment)
		r.With(router.can(authz.ResourceAssignments, authz.ActionWrite)).Delete("/{id}", router.handler.DeleteAssignment)
	})
}

func (router *Router) mappingRoutes(r chi.Router) {
	r.Route("/metric-mappings", func(r chi.Router) {
		read := r.With(router.can(authz.ResourceMappings, authz.ActionRead))
		write := r.With(router.can(authz.ResourceMappings, authz.ActionWrite))

		read.Get("/", router.handler.ListMappings)
		read.Get("/columns", router.handler.MappingColumns)
		r.With(router.can(authz.ResourceUnmappedReport, authz.ActionRead)).Get("/unmapped", router.handler.UnmappedPairs)
		read.Get("/{id}", router.handler.GetMapping)
		read.Get("/{id}/audit", router.handler.MappingAudit)
		write.Post("/", router.handler.CreateMapping)
		write.Put("/{id}", router.handler.UpdateMapping)
		write.Delete("/{id}", router.handler.DeleteMapping)
	})
}
