// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for a wrong username or password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrMissingToken is returned when a request carries no token.
	ErrMissingToken = errors.New("missing authentication token")

	// ErrInvalidToken is returned for an expired, tampered or malformed token.
	ErrInvalidToken = errors.New("invalid authentication token")
)
