// Telemon - Telemetry Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telemon

package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/telemon/internal/logging"
	"github.com/tomtom215/telemon/internal/middleware"
	"github.com/tomtom215/telemon/internal/models"
)

// TokenCookie is the cookie the frontend may carry the token in.
const TokenCookie = "token"

var (
	errMissingToken  = errors.New("missing token")
	errInvalidHeader = errors.New("invalid authorization header")
)

// SessionLookup is the storage the Authenticator needs.
type SessionLookup interface {
	GetSessionByTokenID(ctx context.Context, tokenID string) (*models.Session, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticator validates bearer tokens against the session table.
type Authenticator struct {
	jwt   *JWTManager
	store SessionLookup
	now   func() time.Time
}

// NewAuthenticator creates the authentication middleware.
func NewAuthenticator(jwt *JWTManager, store SessionLookup) *Authenticator {
	return &Authenticator{jwt: jwt, store: store, now: time.Now}
}

// Authenticate rejects requests without a valid, unrevoked session.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := ExtractToken(r)
		if err != nil {
			middleware.WriteError(w, r, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Authentication required")
			return
		}

		user, claims, err := a.resolve(r.Context(), token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token rejected")
			middleware.WriteError(w, r, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Invalid or expired token")
			return
		}

		ctx := ContextWithUser(r.Context(), user, claims)
		ctx = logging.ContextWithUser(ctx, user.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) resolve(ctx context.Context, token string) (*models.User, *Claims, error) {
	claims, err := a.jwt.ValidateToken(token)
	if err != nil {
		return nil, nil, err
	}

	session, err := a.store.GetSessionByTokenID(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if session.RevokedAt != nil {
		return nil, nil, errors.New("session revoked")
	}
	if !a.now().Before(session.ExpiresAt) {
		return nil, nil, errors.New("session expired")
	}

	user, err := a.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, errors.New("user inactive")
	}
	return user, claims, nil
}

// ExtractToken reads the JWT from the Authorization header, falling back to
// the token cookie.
func ExtractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		cookie, err := r.Cookie(TokenCookie)
		if err != nil || cookie.Value == "" {
			return "", errMissingToken
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errInvalidHeader
	}
	return strings.TrimSpace(parts[1]), nil
}

// ClientIP returns the caller's address. Forwarding headers are honored only
// when the direct peer is in trusted.
func ClientIP(r *http.Request, trusted map[string]bool) string {
	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if len(trusted) == 0 || !trusted[remoteIP] {
		return remoteIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}
	return remoteIP
}

// TrustedProxySet converts the configured proxy list into a lookup set.
func TrustedProxySet(proxies []string) map[string]bool {
	set := make(map[string]bool, len(proxies))
	for _, p := range proxies {
		if p = strings.TrimSpace(p); p != "" {
			set[p] = true
		}
	}
	return set
}
