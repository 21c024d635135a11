// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/metrics"
)

const maxLoginBody = 4 << 10

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// Handlers serves the login endpoint.
type Handlers struct {
	credentials  *AdminCredentials
	jwtManager   *JWTManager
	secureCookie bool
}

// NewHandlers creates login handlers. Both arguments nil means auth is
// disabled and Login answers 404.
func NewHandlers(credentials *AdminCredentials, jwtManager *JWTManager, secureCookie bool) *Handlers {
	return &Handlers{credentials: credentials, jwtManager: jwtManager, secureCookie: secureCookie}
}

// Login exchanges admin credentials for a JWT, returned in the body and as
// an HTTP-only cookie.
// POST /api/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if h.credentials == nil || h.jwtManager == nil {
		writeError(w, http.StatusNotFound, "Authentication is disabled")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	if err := h.credentials.Verify(req.Username, req.Password); err != nil {
		metrics.RecordAuthAttempt("login", false)
		if errors.Is(err, ErrInvalidCredentials) {
			logging.Ctx(r.Context()).Warn().Str("username", req.Username).Msg("Admin login failed")
		}
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, expires, err := h.jwtManager.GenerateToken(req.Username, RoleAdmin)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to issue token")
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	metrics.RecordAuthAttempt("login", true)

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expires,
		Username:  req.Username,
		Role:      RoleAdmin,
	})
}
