// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

// Package testinfra provides container infrastructure for integration tests.
//
// It uses testcontainers-go to start real dependencies in Docker. Everything
// here is behind the "integration" build tag:
//
//	go test -tags integration ./internal/database/...
//
// # PostgreSQL Container
//
// PostgresContainer runs the PostgreSQL backend of the storage layer:
//
//	func TestPostgresStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    db, err := database.New(&config.DatabaseConfig{Driver: "postgres", DSN: pg.DSN})
//	    ...
//	}
//
// Tests skip when the Docker daemon is not reachable.
package testinfra
