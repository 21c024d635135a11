// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/cpapulse/internal/metrics"
)

// Demo data shape.
const (
	SeedClicks   = 500
	SeedLeads    = 50
	DemoCampaign = "Main Campaign"
	seedPayout   = 2.50
	seedSpan     = 7 * 24 * time.Hour
)

var (
	seedCountries = []string{"US", "UK", "DE", "FR", "ID", "CA", "AU", "BR", "IN", "JP"}
	seedSubIDs    = []string{"sub1", "sub2", "sub3", "sub4", "sub5", "sub6", "sub7", "sub8", "sub9", "sub10"}
)

// SeedResult reports how many rows SeedDemoData inserted.
type SeedResult struct {
	Clicks int
	Leads  int
}

// SeedDemoData ensures the demo campaign and offer exist and inserts
// SeedClicks clicks and SeedLeads leads at random times over the past week.
// rng may be nil.
func (db *DB) SeedDemoData(ctx context.Context, rng *rand.Rand) (SeedResult, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}

	campaign, err := db.EnsureCampaign(ctx, DemoCampaign, "Primary CPA campaign")
	if err != nil {
		return SeedResult{}, err
	}
	offer, err := db.EnsureCampaignOffer(ctx, campaign.ID, "Email Submit Offer", "Simple email submit CPA offer", seedPayout)
	if err != nil {
		return SeedResult{}, err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := db.utcNow()
	from := now.Add(-seedSpan)
	randomTime := func() time.Time {
		return from.Add(time.Duration(rng.Int64N(int64(seedSpan)))).Truncate(time.Microsecond)
	}
	pick := func(values []string) string {
		return values[rng.IntN(len(values))]
	}

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		clickStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO clicks (id, offer_id, sub_id, country, ip, user_agent, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`)
		if err != nil {
			return fmt.Errorf("failed to prepare click insert: %w", err)
		}
		defer closeWithLog(clickStmt, "prepared statement")

		for i := 0; i < SeedClicks; i++ {
			ip := fmt.Sprintf("192.168.%d.%d", rng.IntN(255), rng.IntN(255))
			if _, err := clickStmt.ExecContext(ctx, uuid.New().String(), offer.ID, pick(seedSubIDs),
				pick(seedCountries), ip, "Mozilla/5.0", randomTime()); err != nil {
				return fmt.Errorf("failed to insert demo click: %w", err)
			}
		}

		leadStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO leads (id, offer_id, network_id, external_id, sub_id, country, revenue, status, ip, user_agent, created_at)
			 VALUES ($1, $2, NULL, NULL, $3, $4, $5, $6, NULL, NULL, $7)`)
		if err != nil {
			return fmt.Errorf("failed to prepare lead insert: %w", err)
		}
		defer closeWithLog(leadStmt, "prepared statement")

		for i := 0; i < SeedLeads; i++ {
			if _, err := leadStmt.ExecContext(ctx, uuid.New().String(), offer.ID, pick(seedSubIDs),
				pick(seedCountries), seedPayout, "approved", randomTime()); err != nil {
				return fmt.Errorf("failed to insert demo lead: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	metrics.RecordClicks("seed", SeedClicks)
	return SeedResult{Clicks: SeedClicks, Leads: SeedLeads}, nil
}
