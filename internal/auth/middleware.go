// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/metrics"
)

// Auth modes.
const (
	ModeNone = "none"
	ModeJWT  = "jwt"
)

// TokenCookie is the cookie Login sets and RequireAdmin reads.
const TokenCookie = "token"

type contextKey string

// ClaimsContextKey holds the *Claims of an authenticated request.
const ClaimsContextKey contextKey = "claims"

// Middleware enforces admin authentication on management routes.
type Middleware struct {
	mode       string
	jwtManager *JWTManager
}

// NewMiddleware creates the middleware. jwtManager may be nil when mode is
// "none".
func NewMiddleware(mode string, jwtManager *JWTManager) *Middleware {
	return &Middleware{mode: mode, jwtManager: jwtManager}
}

// Enabled reports whether requests are authenticated at all.
func (m *Middleware) Enabled() bool {
	return m.mode == ModeJWT && m.jwtManager != nil
}

// RequireAdmin rejects requests without a valid admin token with 401 (403
// for a valid token of another role).
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			metrics.RecordAuthAttempt("token", false)
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			metrics.RecordAuthAttempt("token", false)
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Rejected admin token")
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if claims.Role != RoleAdmin {
			metrics.RecordAuthAttempt("token", false)
			writeError(w, http.StatusForbidden, "Admin role required")
			return
		}

		metrics.RecordAuthAttempt("token", true)
		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the claims stored by RequireAdmin, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsContextKey).(*Claims)
	return claims
}

// extractToken reads a bearer token, falling back to the token cookie.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(TokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode auth response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
