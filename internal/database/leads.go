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

// InsertLead appends a lead unless one already exists for the same
// (network_id, external_id). It reports whether the row was inserted; false
// means another delivery of the same conversion won and the caller should
// read that lead with FindLeadByExternalID.
func (db *DB) InsertLead(ctx context.Context, l *models.Lead) (inserted bool, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("insert_lead", start, err) }(time.Now())

	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = db.utcNow()
	}
	if l.Status == "" {
		l.Status = "approved"
	}

	// DuckDB can report the losing side of a concurrent insert at commit
	// time instead of applying DO NOTHING; both outcomes mean "not inserted".
	err = retryOnConflict(ctx, func() error {
		res, err := db.conn.ExecContext(ctx,
			`INSERT INTO leads (id, offer_id, network_id, external_id, sub_id, country, revenue, status, ip, user_agent, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (network_id, external_id) DO NOTHING`,
			l.ID, l.OfferID, nullStringPtr(l.NetworkID), nullStringPtr(l.ExternalID), nullString(l.SubID),
			l.Country, l.Revenue, l.Status, nullString(l.IP), nullString(l.UserAgent), l.CreatedAt.UTC())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		inserted = n > 0
		return nil
	})
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert lead: %w", err)
	}
	return inserted, nil
}

// FindLeadByExternalID returns the lead recorded for a network's external id.
func (db *DB) FindLeadByExternalID(ctx context.Context, networkID, externalID string) (l *models.Lead, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("find_lead", start, err) }(time.Now())

	var (
		lead          models.Lead
		netID, extID  sql.NullString
		subID, ip, ua sql.NullString
	)
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, offer_id, network_id, external_id, sub_id, country, revenue, status, ip, user_agent, created_at
		 FROM leads WHERE network_id = $1 AND external_id = $2`,
		networkID, externalID).
		Scan(&lead.ID, &lead.OfferID, &netID, &extID, &subID, &lead.Country, &lead.Revenue,
			&lead.Status, &ip, &ua, &lead.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lead: %w", err)
	}
	lead.NetworkID = stringPtr(netID)
	lead.ExternalID = stringPtr(extID)
	lead.SubID = subID.String
	lead.IP = ip.String
	lead.UserAgent = ua.String
	return &lead, nil
}

const leadActivityQuery = `SELECT l.id, COALESCE(l.sub_id, ''), l.country, COALESCE(o.name, ''), l.revenue, l.created_at
	FROM leads l LEFT JOIN offers o ON o.id = l.offer_id`

// RecentLeads returns the newest leads with their offer names.
func (db *DB) RecentLeads(ctx context.Context, limit int) (rows []models.ActivityRow, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("recent_leads", start, err) }(time.Now())

	rows, err = queryAndScan(ctx, db.conn,
		leadActivityQuery+` ORDER BY l.created_at DESC, l.id DESC LIMIT $1`,
		[]interface{}{limit}, scanActivity)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent leads: %w", err)
	}
	return rows, nil
}

// LeadsSince returns leads created at or after since, oldest first.
func (db *DB) LeadsSince(ctx context.Context, since time.Time) (rows []models.ActivityRow, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("leads_since", start, err) }(time.Now())

	rows, err = queryAndScan(ctx, db.conn,
		leadActivityQuery+` WHERE l.created_at >= $1 ORDER BY l.created_at, l.id`,
		[]interface{}{since.UTC()}, scanActivity)
	if err != nil {
		return nil, fmt.Errorf("failed to query new leads: %w", err)
	}
	return rows, nil
}
