// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

// Package stats computes windowed performance figures from stored clicks
// and leads: revenue, EPC (earnings per click), conversion rate, and their
// change against the preceding window.
//
// Windows are resolved from a period token (today, yesterday, week, month,
// custom) by Resolve. Day boundaries are taken in the configured location.
package stats
