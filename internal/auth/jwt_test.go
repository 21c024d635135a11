// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package auth

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/cpapulse/internal/config"
	"github.com/tomtom215/cpapulse/internal/logging"
)

const testSecret = "this_is_a_very_long_secret_key_for_testing_purposes_12345"

func init() {
	logging.Init(logging.Config{Output: io.Discard})
	bcryptCost = bcrypt.MinCost
}

func newTestManager(t *testing.T, timeout time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: timeout})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManager(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.SecurityConfig
		wantErr     bool
		wantTimeout time.Duration
	}{
		{
			name:        "valid secret",
			cfg:         &config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: time.Hour},
			wantTimeout: time.Hour,
		},
		{
			name:        "default timeout",
			cfg:         &config.SecurityConfig{JWTSecret: testSecret},
			wantTimeout: 24 * time.Hour,
		},
		{
			name:    "empty secret",
			cfg:     &config.SecurityConfig{SessionTimeout: time.Hour},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewJWTManager(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewJWTManager() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewJWTManager() unexpected error = %v", err)
			}
			if manager.Timeout() != tt.wantTimeout {
				t.Errorf("Timeout() = %v, want %v", manager.Timeout(), tt.wantTimeout)
			}
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	manager := newTestManager(t, time.Hour)

	token, expires, err := manager.GenerateToken("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if until := time.Until(expires); until < 59*time.Minute || until > time.Hour {
		t.Errorf("expiry in %v, want about 1h", until)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Username != "admin" || claims.Role != RoleAdmin {
		t.Errorf("claims = %s/%s, want admin/admin", claims.Username, claims.Role)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	manager := newTestManager(t, time.Hour)

	expiredManager := newTestManager(t, time.Hour)
	expiredManager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredManager.GenerateToken("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	other, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret + "-other"})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	wrongKey, _, _ := other.GenerateToken("admin", RoleAdmin)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "admin", Role: RoleAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString(none) error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong key", wrongKey},
		{"alg none", unsigned},
		{"malformed", "not.a.token"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.ValidateToken(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
