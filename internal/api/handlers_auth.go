// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/telemon/internal/auth"
	"github.com/tomtom215/telemon/internal/models"
)

// Login handles username/password authentication.
//
// @Summary Log in
// @Description Verifies credentials and returns a bearer token. Rate limited per IP.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} models.APIResponse "INVALID_CREDENTIALS"
// @Failure 429 {object} models.APIResponse "RATE_LIMIT_EXCEEDED or ACCOUNT_LOCKED"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ip := auth.ClientIP(r, h.trusted)
	resp, err := h.auth.Login(r.Context(), req.Username, req.Password, ip, r.UserAgent())
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeInvalidCreds, "Invalid username or password")
		return
	case errors.Is(err, auth.ErrAccountLocked):
		w.Header().Set("Retry-After", "60")
		respondError(w, r, http.StatusTooManyRequests, models.ErrCodeAccountLocked, "Account temporarily locked after repeated failed logins")
		return
	case err != nil:
		h.respondServiceError(w, r, err, "session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    resp.Token,
		Path:     "/",
		MaxAge:   int(resp.ExpiresIn),
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})

	h.recordActivity(r, resp.User, actionLogin, "session", "")
	respondRaw(w, http.StatusOK, resp)
}

type verifyResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
}

// Verify returns the user behind the presented token.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	respondRaw(w, http.StatusOK, verifyResponse{Success: true, User: currentUser(r)})
}

// Logout revokes the presented token's session and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), claims, auth.ClientIP(r, h.trusted)); err != nil {
		h.respondServiceError(w, r, err, "session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})

	h.recordActivity(r, nil, actionLogout, "session", "")
	respondData(w, http.StatusOK, "Logged out", nil)
}
