// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/cpapulse/internal/models"
)

const offerColumns = `id, campaign_id, name, COALESCE(description, ''), payout, status, created_at`

func scanOffer(row rowScanner) (models.Offer, error) {
	var o models.Offer
	err := row.Scan(&o.ID, &o.CampaignID, &o.Name, &o.Description, &o.Payout, &o.Status, &o.CreatedAt)
	return o, err
}

// GetOffer returns an offer by id.
func (db *DB) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	o, err := scanOffer(db.conn.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("offer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return &o, nil
}

// FindOfferByNameContains returns the earliest created offer whose name
// contains fragment, breaking ties by id.
func (db *DB) FindOfferByNameContains(ctx context.Context, fragment string) (*models.Offer, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	o, err := scanOffer(db.conn.QueryRowContext(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE strpos(name, $1) > 0 ORDER BY created_at, id LIMIT 1`,
		fragment))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find offer: %w", err)
	}
	return &o, nil
}

// CreateOffer inserts an offer. ID, Status and CreatedAt are filled in when
// empty.
func (db *DB) CreateOffer(ctx context.Context, o models.Offer) (*models.Offer, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = models.StatusActive
	}
	if o.CampaignID == "" {
		o.CampaignID = models.DefaultCampaignID
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = db.utcNow()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO offers (id, campaign_id, name, description, payout, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.CampaignID, o.Name, nullString(o.Description), o.Payout, o.Status, o.CreatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	return &o, nil
}

// DeleteOfferIfUnused removes an offer that no lead and no network offer
// references. It reports whether a row was deleted.
func (db *DB) DeleteOfferIfUnused(ctx context.Context, id string) (deleted bool, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("delete_offer", start, err) }(time.Now())

	err = retryOnConflict(ctx, func() error {
		res, err := db.conn.ExecContext(ctx,
			`DELETE FROM offers WHERE id = $1
			 AND NOT EXISTS (SELECT 1 FROM leads WHERE offer_id = $1)
			 AND NOT EXISTS (SELECT 1 FROM network_offers WHERE offer_id = $1)`,
			id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete offer: %w", err)
	}
	return deleted, nil
}

// EnsureCampaign returns the campaign with the given name, creating it when
// missing.
func (db *DB) EnsureCampaign(ctx context.Context, name, description string) (*models.Campaign, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var c models.Campaign
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(description, ''), status, created_at FROM campaigns
		 WHERE name = $1 ORDER BY created_at, id LIMIT 1`, name).
		Scan(&c.ID, &c.Name, &c.Description, &c.Status, &c.CreatedAt)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}

	c = models.Campaign{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Status:      models.StatusActive,
		CreatedAt:   db.utcNow(),
	}
	if _, err := db.conn.ExecContext(ctx,
		`INSERT INTO campaigns (id, name, description, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, nullString(c.Description), c.Status, c.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return &c, nil
}

// EnsureCampaignOffer returns the earliest offer of a campaign, creating
// one from the given fields when the campaign has none.
func (db *DB) EnsureCampaignOffer(ctx context.Context, campaignID, name, description string, payout float64) (*models.Offer, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	o, err := scanOffer(db.conn.QueryRowContext(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE campaign_id = $1 ORDER BY created_at, id LIMIT 1`,
		campaignID))
	if err == nil {
		return &o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to find offer: %w", err)
	}
	return db.CreateOffer(ctx, models.Offer{
		CampaignID:  campaignID,
		Name:        name,
		Description: description,
		Payout:      payout,
	})
}
