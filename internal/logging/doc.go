// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

// Package logging provides the zerolog-based logger shared by every package.
//
// Initialize once at startup:
//
//	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
//
// then log with structured fields:
//
//	logging.Info().Str("network", name).Msg("Network created")
//	logging.Ctx(ctx).Error().Err(err).Msg("Postback failed")
//
// Ctx attaches the request ID set by middleware.RequestID. NewSlogLogger
// bridges into log/slog for suture and watermill.
//
// Environment variables (via internal/config):
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
package logging
