// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/cpapulse/internal/models"
)

// InsertClick appends a click. ID and CreatedAt are filled in when empty.
func (db *DB) InsertClick(ctx context.Context, c *models.Click) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("insert_click", start, err) }(time.Now())

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = db.utcNow()
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO clicks (id, offer_id, sub_id, country, ip, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.OfferID, nullString(c.SubID), c.Country, nullString(c.IP), nullString(c.UserAgent), c.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert click: %w", err)
	}
	return nil
}

const clickActivityQuery = `SELECT c.id, COALESCE(c.sub_id, ''), c.country, COALESCE(o.name, ''), CAST(0 AS DOUBLE PRECISION), c.created_at
	FROM clicks c LEFT JOIN offers o ON o.id = c.offer_id`

func scanActivity(row rowScanner) (models.ActivityRow, error) {
	var r models.ActivityRow
	err := row.Scan(&r.ID, &r.SubID, &r.Country, &r.OfferName, &r.Revenue, &r.CreatedAt)
	return r, err
}

// RecentClicks returns the newest clicks with their offer names.
func (db *DB) RecentClicks(ctx context.Context, limit int) (rows []models.ActivityRow, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("recent_clicks", start, err) }(time.Now())

	rows, err = queryAndScan(ctx, db.conn,
		clickActivityQuery+` ORDER BY c.created_at DESC, c.id DESC LIMIT $1`,
		[]interface{}{limit}, scanActivity)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent clicks: %w", err)
	}
	return rows, nil
}

// ClicksSince returns clicks created at or after since, oldest first.
func (db *DB) ClicksSince(ctx context.Context, since time.Time) (rows []models.ActivityRow, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("clicks_since", start, err) }(time.Now())

	rows, err = queryAndScan(ctx, db.conn,
		clickActivityQuery+` WHERE c.created_at >= $1 ORDER BY c.created_at, c.id`,
		[]interface{}{since.UTC()}, scanActivity)
	if err != nil {
		return nil, fmt.Errorf("failed to query new clicks: %w", err)
	}
	return rows, nil
}
