// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/models"
)

// Migration represents a versioned database migration.
type Migration struct {
	Version     int       // Unique version number (monotonically increasing)
	Name        string    // Human-readable migration name
	Description string    // Description of what this migration does
	Statements  []string  // Statements executed in order
	AppliedAt   time.Time // When the migration was applied (populated on query)
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name VARCHAR NOT NULL,
	description VARCHAR,
	applied_at TIMESTAMP NOT NULL
)`

// migrations returns all versioned migrations in order.
//
// Migrations are append-only. DDL is restricted to the subset shared by
// DuckDB and PostgreSQL. Relationships are enforced by the data access
// methods rather than REFERENCES clauses, since DuckDB rejects updates to
// rows referenced by a foreign key.
func migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Name:        "initial_schema",
			Description: "Networks, network offers, campaigns, offers, clicks and leads",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS networks (
					id VARCHAR PRIMARY KEY,
					name VARCHAR NOT NULL UNIQUE,
					display_name VARCHAR,
					api_key VARCHAR NOT NULL,
					api_secret VARCHAR,
					postback_url VARCHAR,
					status VARCHAR NOT NULL DEFAULT 'active',
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS network_offers (
					id VARCHAR PRIMARY KEY,
					network_id VARCHAR NOT NULL,
					external_id VARCHAR NOT NULL,
					name VARCHAR NOT NULL,
					payout DOUBLE PRECISION NOT NULL DEFAULT 0,
					status VARCHAR NOT NULL DEFAULT 'active',
					offer_id VARCHAR,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS campaigns (
					id VARCHAR PRIMARY KEY,
					name VARCHAR NOT NULL,
					description VARCHAR,
					status VARCHAR NOT NULL DEFAULT 'active',
					created_at TIMESTAMP NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS offers (
					id VARCHAR PRIMARY KEY,
					campaign_id VARCHAR NOT NULL,
					name VARCHAR NOT NULL,
					description VARCHAR,
					payout DOUBLE PRECISION NOT NULL DEFAULT 0,
					status VARCHAR NOT NULL DEFAULT 'active',
					created_at TIMESTAMP NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS clicks (
					id VARCHAR PRIMARY KEY,
					offer_id VARCHAR NOT NULL,
					sub_id VARCHAR,
					country VARCHAR NOT NULL,
					ip VARCHAR,
					user_agent VARCHAR,
					created_at TIMESTAMP NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS leads (
					id VARCHAR PRIMARY KEY,
					offer_id VARCHAR NOT NULL,
					network_id VARCHAR,
					external_id VARCHAR,
					sub_id VARCHAR,
					country VARCHAR NOT NULL,
					revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
					status VARCHAR NOT NULL DEFAULT 'approved',
					ip VARCHAR,
					user_agent VARCHAR,
					created_at TIMESTAMP NOT NULL,
					UNIQUE (network_id, external_id)
				)`,
			},
		},
		{
			Version:     2,
			Name:        "activity_indexes",
			Description: "Time indexes for windowed aggregates and change detection",
			Statements: []string{
				`CREATE INDEX IF NOT EXISTS idx_clicks_created_at ON clicks (created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads (created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_network_offers_lookup ON network_offers (network_id, external_id)`,
			},
		},
	}
}

// getAppliedMigrations returns a map of version -> Migration for all applied migrations.
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	history, err := queryAndScan(ctx, db.conn,
		`SELECT version, name, COALESCE(description, ''), applied_at FROM schema_migrations ORDER BY version`,
		nil, scanMigration)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	applied := make(map[int]Migration, len(history))
	for _, m := range history {
		applied[m.Version] = m
	}
	return applied, nil
}

func scanMigration(row rowScanner) (Migration, error) {
	var m Migration
	err := row.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt)
	return m, err
}

// runVersionedMigrations executes only the migrations that have not been
// applied yet. Each migration runs in its own transaction.
func (db *DB) runVersionedMigrations(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	newMigrations := 0
	for _, m := range migrations() {
		if _, exists := applied[m.Version]; exists {
			continue
		}

		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration v%d: %w", m.Version, err)
		}
		for _, stmt := range m.Statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES ($1, $2, $3, $4)`,
			m.Version, m.Name, m.Description, db.utcNow()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Msg("Applied database migrations")
	}
	return nil
}

// ensureDefaultCampaign inserts the campaign that receives offers created by
// postback ingestion.
func (db *DB) ensureDefaultCampaign(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO campaigns (id, name, description, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		models.DefaultCampaignID, "Default Campaign", "Offers imported from network postbacks",
		models.StatusActive, db.utcNow())
	return err
}

// GetCurrentSchemaVersion returns the highest applied migration version.
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// GetMigrationHistory returns all applied migrations in order.
func (db *DB) GetMigrationHistory(ctx context.Context) ([]Migration, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	history, err := queryAndScan(ctx, db.conn,
		`SELECT version, name, COALESCE(description, ''), applied_at FROM schema_migrations ORDER BY version`,
		nil, scanMigration)
	if err != nil {
		return nil, fmt.Errorf("failed to query migration history: %w", err)
	}
	return history, nil
}
