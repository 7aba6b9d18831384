// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

// Package main is the entry point for the Telemon server.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. Logging (zerolog)
//  3. Database (DuckDB) and the seed admin account
//  4. Authentication: JWT manager, lockout store (BadgerDB or memory), sessions
//  5. Authorization: casbin enforcer
//  6. Domain services: access, telemetry, mappings, reports
//  7. Supervisor tree with the HTTP server
//
// SIGINT and SIGTERM cancel the tree; the HTTP server drains in-flight
// requests before the database is closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/telemon/internal/access"
	"github.com/tomtom215/telemon/internal/api"
	"github.com/tomtom215/telemon/internal/auth"
	"github.com/tomtom215/telemon/internal/authz"
	"github.com/tomtom215/telemon/internal/config"
	"github.com/tomtom215/telemon/internal/database"
	"github.com/tomtom215/telemon/internal/logging"
	"github.com/tomtom215/telemon/internal/mapping"
	"github.com/tomtom215/telemon/internal/report"
	"github.com/tomtom215/telemon/internal/supervisor"
	"github.com/tomtom215/telemon/internal/supervisor/services"
	"github.com/tomtom215/telemon/internal/telemetry"
)

const (
	shutdownTimeout = 10 * time.Second
	// verify is polled by the frontend; generous but bounded.
	verifyRateLimit = 60
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Msg("Starting Telemon")

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin; set CORS_ORIGINS for production")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := seedAdmin(ctx, db, cfg); err != nil {
		return err
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT manager: %w", err)
	}

	lockoutStore, closeLockout, err := openLockoutStore(cfg.Lockout)
	if err != nil {
		return err
	}
	defer closeLockout()
	lockout := auth.NewLockoutManager(lockoutStore, cfg.Lockout)

	enforcer, err := authz.NewEnforcer(cfg.Security.CacheTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize authorization: %w", err)
	}

	columns := database.SampleColumns()
	telemetrySvc := telemetry.NewService(db, columns, cfg.Telemetry)
	handler := api.NewHandler(db, cfg, api.Services{
		Auth:      auth.NewService(db, jwtManager, lockout),
		Access:    access.NewResolver(db),
		Telemetry: telemetrySvc,
		Mappings:  mapping.NewService(db, columns),
		Reports:   report.NewService(telemetrySvc, db, cfg.Report),
	})

	verifyLimiter := auth.NewRateLimiter(verifyRateLimit, time.Minute, auth.TrustedProxySet(cfg.Security.TrustedProxies))
	router := api.NewRouter(
		handler,
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromConfig(cfg)),
		auth.NewAuthenticator(jwtManager, db),
		authz.NewMiddleware(enforcer),
		verifyLimiter,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Reports can take up to the report deadline to render.
		WriteTimeout: cfg.Server.Timeout + cfg.Report.Timeout,
		IdleTimeout:  2 * time.Minute,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  shutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	tree.AddDataService(services.NewSessionCleanupService(db, time.Hour))
	tree.AddDataService(enforcer)
	if lockout.Enabled() {
		tree.AddDataService(lockout)
	}
	tree.AddAPIService(services.NewHTTPServerService(server, shutdownTimeout))
	tree.AddAPIService(verifyLimiter)

	err = tree.Serve(ctx)
	if unstopped, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services did not stop within the shutdown timeout")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logging.Info().Msg("Telemon stopped")
	return nil
}

// seedAdmin creates the configured administrator when no users exist yet.
func seedAdmin(ctx context.Context, db *database.DB, cfg *config.Config) error {
	username := cfg.Database.SeedAdminUsername
	password := cfg.Database.SeedAdminPassword
	if username == "" || password == "" {
		return nil
	}
	if err := config.DefaultPasswordPolicy().Validate(password, username); err != nil {
		if cfg.IsProduction() {
			return fmt.Errorf("seed admin password rejected: %w", err)
		}
		logging.Warn().Err(err).Msg("Seed admin password is weak; acceptable only in development")
	}

	hash, err := auth.HashPassword(password, cfg.Security.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed admin password: %w", err)
	}
	if _, err := db.SeedAdmin(ctx, username, hash); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	return nil
}

// openLockoutStore returns a BadgerDB store when a path is configured and
// an in-memory store otherwise.
func openLockoutStore(cfg config.LockoutConfig) (auth.LockoutStore, func(), error) {
	if cfg.Path == "" {
		return auth.NewMemoryLockoutStore(), func() {}, nil
	}
	store, err := auth.OpenBadgerLockoutStore(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open lockout store: %w", err)
	}
	logging.Info().Str("path", cfg.Path).Msg("Persistent lockout store opened")
	return store, func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing lockout store")
		}
	}, nil
}
