// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

// Package database is the storage layer for CPA Pulse.
//
// # Overview
//
// All persistent state lives here: networks, network offers, campaigns,
// offers, clicks and leads. The rest of the service treats storage as the
// single shared mutable resource; no package keeps its own copy of this data.
//
// # Drivers
//
// Two database/sql drivers are supported and selected by database.driver:
//   - duckdb (default): embedded, github.com/duckdb/duckdb-go/v2
//   - postgres: github.com/jackc/pgx/v5/stdlib
//
// Every query uses $N placeholders and SQL understood by both engines, so
// the same statements run unchanged on either driver.
//
// # Files
//
//   - database.go: lifecycle (open, pool, close, ping)
//   - migrations.go: versioned schema migrations
//   - networks.go: network and network offer CRUD
//   - offers.go: campaigns and offers
//   - clicks.go, leads.go: append-only traffic records
//   - stats.go: windowed aggregates for the stats engine
//   - seed.go: demo data
//
// # Invariants
//
// At most one lead exists per (network_id, external_id). The UNIQUE
// constraint on leads enforces this; InsertLead reports a lost race instead of
// returning an error so callers can re-read the winner.
//
// All timestamps are written in UTC.
//
// # Errors
//
// ErrNotFound and ErrConflict are returned (possibly wrapped) for missing rows
// and uniqueness or reference conflicts. Use errors.Is to test for them.
package database
