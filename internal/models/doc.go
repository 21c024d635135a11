// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

/*
Package models defines the data structures shared across CPA Pulse.

Storage models:
  - Network, NetworkOffer: third-party CPA networks and their view of offers
  - Campaign, Offer: the local offer catalogue
  - Click, Lead: append-only traffic and conversion records

Derived models:
  - StatsSnapshot: windowed revenue/EPC with period-over-period deltas
  - SubIDRow: one row of the per-sub-id report
  - ActivityItem, ActivityEvent: recent-activity entries and live events

JSON field names are camelCase to match the dashboard contract.
*/
package models
