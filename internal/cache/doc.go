// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

// Package cache provides bounded in-memory structures for deduplication.
//
// SeenSet remembers keys for a TTL and evicts the least recently seen key
// when full. The change detector uses it to avoid re-emitting rows that fall
// inside two overlapping lookback windows.
package cache
