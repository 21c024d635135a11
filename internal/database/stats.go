// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cpapulse/internal/models"
)

// Range is a time range over created_at. Start is inclusive; End is
// inclusive when EndInclusive is set and exclusive otherwise.
type Range struct {
	Start        time.Time
	End          time.Time
	EndInclusive bool
}

// predicate returns the created_at filter for r using placeholders $1 and $2.
func (r Range) predicate(column string) string {
	op := "<"
	if r.EndInclusive {
		op = "<="
	}
	return fmt.Sprintf("%s >= $1 AND %s %s $2", column, column, op)
}

func (r Range) args() []interface{} {
	return []interface{}{r.Start.UTC(), r.End.UTC()}
}

// WindowTotals returns click count, lead count and lead revenue in r.
func (db *DB) WindowTotals(ctx context.Context, r Range) (totals models.WindowTotals, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("window_totals", start, err) }(time.Now())

	if err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clicks WHERE `+r.predicate("created_at"), r.args()...).
		Scan(&totals.Clicks); err != nil {
		return totals, fmt.Errorf("failed to count clicks: %w", err)
	}

	if err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(revenue), 0) FROM leads WHERE `+r.predicate("created_at"), r.args()...).
		Scan(&totals.Leads, &totals.Revenue); err != nil {
		return totals, fmt.Errorf("failed to sum leads: %w", err)
	}
	return totals, nil
}

// AllTimeCounts returns the total number of clicks and leads ever recorded.
func (db *DB) AllTimeCounts(ctx context.Context) (clicks, leads int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("all_time_counts", start, err) }(time.Now())

	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM clicks`).Scan(&clicks); err != nil {
		return 0, 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&leads); err != nil {
		return 0, 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return clicks, leads, nil
}

func scanSubIDCount(row rowScanner) (models.SubIDCount, error) {
	var c models.SubIDCount
	err := row.Scan(&c.SubID, &c.Count, &c.Revenue)
	return c, err
}

// SubIDClicks groups clicks in r by raw sub id ("" for missing).
func (db *DB) SubIDClicks(ctx context.Context, r Range) (counts []models.SubIDCount, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("subid_clicks", start, err) }(time.Now())

	counts, err = queryAndScan(ctx, db.conn,
		`SELECT COALESCE(sub_id, ''), COUNT(*), CAST(0 AS DOUBLE PRECISION) FROM clicks
		 WHERE `+r.predicate("created_at")+` GROUP BY COALESCE(sub_id, '')`,
		r.args(), scanSubIDCount)
	if err != nil {
		return nil, fmt.Errorf("failed to group clicks by sub id: %w", err)
	}
	return counts, nil
}

// SubIDLeads groups leads in r by raw sub id ("" for missing) with their
// revenue.
func (db *DB) SubIDLeads(ctx context.Context, r Range) (counts []models.SubIDCount, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("subid_leads", start, err) }(time.Now())

	counts, err = queryAndScan(ctx, db.conn,
		`SELECT COALESCE(sub_id, ''), COUNT(*), COALESCE(SUM(revenue), 0) FROM leads
		 WHERE `+r.predicate("created_at")+` GROUP BY COALESCE(sub_id, '')`,
		r.args(), scanSubIDCount)
	if err != nil {
		return nil, fmt.Errorf("failed to group leads by sub id: %w", err)
	}
	return counts, nil
}
