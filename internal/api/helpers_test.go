// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/telemon/internal/access"
	"github.com/tomtom215/telemon/internal/auth"
	"github.com/tomtom215/telemon/internal/authz"
	"github.com/tomtom215/telemon/internal/config"
	"github.com/tomtom215/telemon/internal/database"
	"github.com/tomtom215/telemon/internal/mapping"
	"github.com/tomtom215/telemon/internal/models"
	"github.com/tomtom215/telemon/internal/report"
	"github.com/tomtom215/telemon/internal/telemetry"
)

// testDBSemaphore serializes DuckDB instances across tests.
var testDBSemaphore = make(chan struct{}, 1)

type testEnv struct {
	t      *testing.T
	db     *database.DB
	cfg    *config.Config
	auth   *auth.Service
	router http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 3001, Environment: "development"},
		Security: config.SecurityConfig{
			JWTSecret:            "api-test-secret-that-is-at-least-32-bytes",
			SessionTimeout:       time.Hour,
			BcryptCost:           bcrypt.MinCost,
			LoginRateLimitReqs:   5,
			LoginRateLimitWindow: 15 * time.Minute,
			RateLimitReqs:        1000,
			RateLimitWindow:      time.Minute,
			CacheTTL:             time.Minute,
		},
		Lockout: config.LockoutConfig{
			Enabled:     true,
			MaxAttempts: 10,
			Duration:    15 * time.Minute,
		},
		Telemetry: config.TelemetryConfig{TargetPoints: 500, MaxRawPoints: 2000},
		Report:    config.ReportConfig{Timeout: 10 * time.Second},
	}
}

// newTestEnv wires the full router over an in-memory DuckDB.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	cfg := testConfig()
	db, err := database.New(&config.DatabaseConfig{
		Path:            ":memory:",
		MaxMemory:       "512MB",
		Threads:         1,
		MaxOpenConns:    4,
		BreakerFailures: 5,
		BreakerTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	lockout := auth.NewLockoutManager(auth.NewMemoryLockoutStore(), cfg.Lockout)
	authSvc := auth.NewService(db, jwtManager, lockout)

	enforcer, err := authz.NewEnforcer(cfg.Security.CacheTTL)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}

	telemetrySvc := telemetry.NewService(db, database.SampleColumns(), cfg.Telemetry)
	handler := NewHandler(db, cfg, Services{
		Auth:      authSvc,
		Access:    access.NewResolver(db),
		Telemetry: telemetrySvc,
		Mappings:  mapping.NewService(db, database.SampleColumns()),
		Reports:   report.NewService(telemetrySvc, db, cfg.Report),
	})

	router := NewRouter(
		handler,
		NewChiMiddleware(ChiMiddlewareConfigFromConfig(cfg)),
		auth.NewAuthenticator(jwtManager, db),
		authz.NewMiddleware(enforcer),
		auth.NewRateLimiter(60, time.Minute, nil),
	)

	return &testEnv{t: t, db: db, cfg: cfg, auth: authSvc, router: router.SetupChi()}
}

// addUser creates an active account directly in the store.
func (e *testEnv) addUser(username, password, role string, allNodes bool) *models.User {
	e.t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		e.t.Fatalf("HashPassword: %v", err)
	}
	u := &models.User{
		Username:       username,
		Role:           role,
		AccessAllNodes: allNodes,
		IsActive:       true,
		PasswordHash:   hash,
	}
	if err := e.db.CreateUser(context.Background(), u); err != nil {
		e.t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

// token logs in through the service, bypassing the HTTP login limiter.
func (e *testEnv) token(username, password string) string {
	e.t.Helper()
	resp, err := e.auth.Login(context.Background(), username, password, "198.51.100.1", "test")
	if err != nil {
		e.t.Fatalf("Login(%s): %v", username, err)
	}
	return resp.Token
}

func (e *testEnv) addSample(node, station string, at time.Time, values map[string]float64) {
	e.t.Helper()
	if err := e.db.InsertSample(context.Background(), node, station, at, values); err != nil {
		e.t.Fatalf("InsertSample: %v", err)
	}
}

func (e *testEnv) assign(userID int64, node string) {
	e.t.Helper()
	a := &models.NodeAssignment{UserID: userID, NodeName: node, AssignedBy: "test"}
	if err := e.db.CreateAssignment(context.Background(), a); err != nil {
		e.t.Fatalf("CreateAssignment: %v", err)
	}
}

// do sends a request through the router. body is JSON-encoded when non-nil.
func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Data     json.RawMessage  `json:"data"`
	Error    *models.APIError `json:"error"`
	Metadata *models.Metadata `json:"metadata"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return env
}

// expectError asserts status and error code.
func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d; body %s", w.Code, status, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", w.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d; body %s", w.Code, status, w.Body.String())
	}
}
