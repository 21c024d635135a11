// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package ingest

import "errors"

var (
	// ErrValidation means required parameters are missing.
	ErrValidation = errors.New("invalid postback")

	// ErrUnauthorized means no active network matches the credentials.
	ErrUnauthorized = errors.New("invalid network or API key")

	// ErrRateLimited means the network exceeded its postback rate.
	ErrRateLimited = errors.New("postback rate exceeded")

	// ErrNotFound means the network has no active offer for the external id.
	ErrNotFound = errors.New("offer not found for this network")

	// ErrInternal wraps storage failures.
	ErrInternal = errors.New("failed to process postback")
)

// Client-facing messages.
const (
	MsgMissingCredentials = "Missing required parameters: network and api_key"
	MsgMissingExternalID  = "Missing required parameter: external_id"
	MsgUnauthorized       = "Invalid network or API key"
	MsgRateLimited        = "Too many postbacks for this network"
	MsgOfferNotFound      = "Offer not found for this network"
	MsgInternal           = "Failed to process postback"
	MsgRecorded           = "Conversion recorded successfully"
	MsgDuplicate          = "Conversion already processed"
)

// ValidationError is a validation failure with its client-facing message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }
