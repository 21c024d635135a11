// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

// Package changefeed turns new clicks and leads into activity events.
//
// Detector polls storage every interval for rows created within the lookback
// window and publishes each as a models.ActivityEvent, clicks before leads,
// in storage order. Consecutive windows overlap when lookback is at least the
// interval, so a TTL set of emitted "<kind>:<id>" keys suppresses repeats.
// Setting lookback above the interval trades a little extra query work for
// tolerance of slow ticks.
//
// Storage reads go through a circuit breaker. While it is open, ticks are
// skipped; the breaker logs each state change once.
package changefeed
