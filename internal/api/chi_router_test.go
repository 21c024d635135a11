// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/cpapulse/internal/auth"
	"github.com/tomtom215/cpapulse/internal/config"
	"github.com/tomtom215/cpapulse/internal/ingest"
	"github.com/tomtom215/cpapulse/internal/middleware"
	"github.com/tomtom215/cpapulse/internal/stats"
)

const testJWTSecret = "router_test_secret_that_is_long_enough_0123456789"

// setupAuthRouter returns a router with JWT admin auth enabled.
func setupAuthRouter(t *testing.T) (http.Handler, *auth.JWTManager) {
	t.Helper()
	h, _ := setupTestHandler(t)
	h.config.Security.AuthMode = auth.ModeJWT
	h.config.Security.JWTSecret = testJWTSecret

	jwtManager, err := auth.NewJWTManager(&h.config.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	creds, err := auth.NewAdminCredentials("admin", "correct-horse")
	if err != nil {
		t.Fatalf("NewAdminCredentials() error = %v", err)
	}

	router := NewRouter(h,
		auth.NewMiddleware(auth.ModeJWT, jwtManager),
		auth.NewHandlers(creds, jwtManager, false),
	)
	return router.SetupChi(), jwtManager
}

func TestRouter_AdminRoutesRequireToken(t *testing.T) {
	router, jwtManager := setupAuthRouter(t)

	adminToken, _, err := jwtManager.GenerateToken("admin", auth.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	viewerToken, _, err := jwtManager.GenerateToken("viewer", "viewer")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name       string
		method     string
		target     string
		token      string
		wantStatus int
	}{
		{name: "networks without token", method: http.MethodGet, target: "/api/networks", wantStatus: http.StatusUnauthorized},
		{name: "networks with viewer token", method: http.MethodGet, target: "/api/networks", token: viewerToken, wantStatus: http.StatusForbidden},
		{name: "networks with admin token", method: http.MethodGet, target: "/api/networks", token: adminToken, wantStatus: http.StatusOK},
		{name: "seed without token", method: http.MethodPost, target: "/api/seed", wantStatus: http.StatusUnauthorized},
		{name: "performance with admin token", method: http.MethodGet, target: "/api/performance", token: adminToken, wantStatus: http.StatusOK},
		{name: "stats stay public", method: http.MethodGet, target: "/api/stats", wantStatus: http.StatusOK},
		{name: "postback stays public", method: http.MethodGet, target: "/api/postback", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestRouter_LoginThenManage(t *testing.T) {
	router, _ := setupAuthRouter(t)

	rec := do(t, router, http.MethodPost, "/api/auth/login", `{"username":"admin","password":"correct-horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	login := decodeBody[auth.LoginResponse](t, rec)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.TokenCookie {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != login.Token {
		t.Fatalf("token cookie = %+v", cookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/networks", nil)
	req.AddCookie(cookie)
	list := httptest.NewRecorder()
	router.ServeHTTP(list, req)
	if list.Code != http.StatusOK {
		t.Errorf("networks with cookie = %d, want 200", list.Code)
	}

	bad := do(t, router, http.MethodPost, "/api/auth/login", `{"username":"admin","password":"wrong-password"}`)
	if bad.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", bad.Code)
	}
}

func TestRouter_LoginDisabledWithoutAuth(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/auth/login", `{"username":"admin","password":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	h, _ := setupTestHandler(t)
	h.config.Security.RateLimitDisabled = false
	h.config.Security.RateLimitReqs = 2
	h.config.Security.RateLimitWindow = time.Minute
	router := NewRouter(h, nil, nil).SetupChi()

	var codes []int
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, router, http.MethodGet, "/api/stats", "").Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// Postbacks and health checks have their own budgets.
	if got := do(t, router, http.MethodGet, "/health/live", "").Code; got != http.StatusOK {
		t.Errorf("health after limit = %d", got)
	}
	if got := do(t, router, http.MethodGet, "/api/postback", "").Code; got != http.StatusBadRequest {
		t.Errorf("postback after limit = %d, want 400", got)
	}
}

func TestRouter_Middleware(t *testing.T) {
	_, router := setupTestHandler(t)

	t.Run("request id echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if got := rec.Header().Get(middleware.RequestIDHeader); got != "req-123" {
			t.Errorf("request id = %q", got)
		}
	})

	t.Run("security headers", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/stats", "")
		if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Errorf("X-Content-Type-Options = %q", got)
		}
	})

	t.Run("unknown route is json", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := decodeBody[ErrorResponse](t, rec); got.Error != "Not found" {
			t.Errorf("error = %q", got.Error)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := do(t, router, http.MethodDelete, "/api/stats", "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/stats", nil)
		req.Header.Set("Origin", "https://dash.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/metrics", "")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
			t.Errorf("metrics status = %d", rec.Code)
		}
	})
}

func TestWebSocket_Unavailable(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodGet, "/api/ws", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	h := NewHandler(nil, ingest.NewService(nil, nil), stats.NewEngine(nil, time.UTC), nil, &config.Config{
		Security: config.SecurityConfig{CORSOrigins: []string{"https://dash.example.com"}},
	})

	tests := []struct {
		name   string
		host   string
		origin string
		want   bool
	}{
		{name: "missing origin", host: "pulse.local", origin: "", want: false},
		{name: "configured origin", host: "pulse.local", origin: "https://dash.example.com", want: true},
		{name: "same host", host: "pulse.local:3000", origin: "http://pulse.local:3000", want: true},
		{name: "foreign origin", host: "pulse.local", origin: "https://evil.example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := h.checkWebSocketOrigin(req); got != tt.want {
				t.Errorf("checkWebSocketOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}
