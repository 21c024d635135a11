// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is lowered by tests.
var bcryptCost = 12

const minPasswordLength = 8

// AdminCredentials verifies the configured admin login.
type AdminCredentials struct {
	username     string
	passwordHash []byte
}

// NewAdminCredentials hashes password once so that logins only compare.
func NewAdminCredentials(username, password string) (*AdminCredentials, error) {
	if username == "" {
		return nil, fmt.Errorf("admin username is required")
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("admin password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &AdminCredentials{username: username, passwordHash: hash}, nil
}

// Verify returns ErrInvalidCredentials unless both username and password
// match. Both comparisons always run.
func (c *AdminCredentials) Verify(username, password string) error {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)) == nil
	if !usernameMatch || !passwordMatch {
		return ErrInvalidCredentials
	}
	return nil
}
