// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/telemon/internal/auth"
	"github.com/tomtom215/telemon/internal/models"
)

func loginBody(username, password string) models.LoginRequest {
	return models.LoginRequest{Username: username, Password: password}
}

func TestLoginSuccessSetsCookieAndVerifies(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("alice", "alice-pass-1", models.RoleViewer, false)

	w := env.do(http.MethodPost, "/api/auth/login", "", loginBody("alice", "alice-pass-1"))
	expectStatus(t, w, http.StatusOK)

	var resp models.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Token == "" || resp.User == nil || resp.User.Username != "alice" {
		t.Fatalf("unexpected login response: %s", w.Body.String())
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", resp.ExpiresIn)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("login response leaks password material")
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.TokenCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly || cookie.Value != resp.Token {
		t.Fatalf("token cookie = %+v", cookie)
	}

	w = env.do(http.MethodGet, "/api/auth/verify", resp.Token, nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `"username":"alice"`) {
		t.Errorf("verify body = %s", w.Body.String())
	}

	// The cookie alone authenticates too.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("alice", "alice-pass-1", models.RoleViewer, false)

	tests := []struct {
		name string
		body models.LoginRequest
	}{
		{"wrong password", loginBody("alice", "nope-nope-1")},
		{"unknown user", loginBody("mallory", "whatever-1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/auth/login", "", tt.body)
			expectError(t, w, http.StatusUnauthorized, models.ErrCodeInvalidCreds)
		})
	}
}

func TestLoginValidation(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice"})
	expectError(t, w, http.StatusBadRequest, models.ErrCodeValidation)
}

func TestLoginRateLimitSixthAttempt(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("alice", "alice-pass-1", models.RoleViewer, false)

	for i := 1; i <= 5; i++ {
		w := env.do(http.MethodPost, "/api/auth/login", "", loginBody("alice", "wrong-pass-1"))
		expectError(t, w, http.StatusUnauthorized, models.ErrCodeInvalidCreds)
	}

	// Correct credentials do not bypass the limiter.
	w := env.do(http.MethodPost, "/api/auth/login", "", loginBody("alice", "alice-pass-1"))
	expectError(t, w, http.StatusTooManyRequests, models.ErrCodeRateLimited)
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// Another client address has its own budget.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"alice","password":"alice-pass-1"}`))
	req.RemoteAddr = "203.0.113.9:4000"
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("alice", "alice-pass-1", models.RoleViewer, false)
	token := env.token("alice", "alice-pass-1")

	expectStatus(t, env.do(http.MethodPost, "/api/auth/logout", token, nil), http.StatusOK)
	expectError(t, env.do(http.MethodGet, "/api/auth/verify", token, nil), http.StatusUnauthorized, models.ErrCodeUnauthorized)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/verify"},
		{http.MethodGet, "/api/nodes"},
		{http.MethodGet, "/api/telemetry/north/bs1"},
		{http.MethodGet, "/api/reports/north"},
		{http.MethodGet, "/api/users"},
		{http.MethodPost, "/api/metric-mappings"},
		{http.MethodGet, "/api/activity"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			expectError(t, env.do(rt.method, rt.path, "", nil), http.StatusUnauthorized, models.ErrCodeUnauthorized)
			expectError(t, env.do(rt.method, rt.path, "not-a-jwt", nil), http.StatusUnauthorized, models.ErrCodeUnauthorized)
		})
	}
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/health/live", "", nil)
	expectStatus(t, w, http.StatusOK)
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	expectStatus(t, env.do(http.MethodGet, "/health/ready", "", nil), http.StatusOK)
	expectError(t, env.do(http.MethodGet, "/no/such/route", "", nil), http.StatusNotFound, models.ErrCodeNotFound)
}
