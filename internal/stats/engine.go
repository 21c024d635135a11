// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/cpapulse/internal/database"
	"github.com/tomtom215/cpapulse/internal/metrics"
	"github.com/tomtom215/cpapulse/internal/models"
)

// Store provides the aggregates the engine needs.
type Store interface {
	WindowTotals(ctx context.Context, r database.Range) (models.WindowTotals, error)
	AllTimeCounts(ctx context.Context) (clicks, leads int64, err error)
	SubIDClicks(ctx context.Context, r database.Range) ([]models.SubIDCount, error)
	SubIDLeads(ctx context.Context, r database.Range) ([]models.SubIDCount, error)
}

// Engine computes snapshots and reports.
type Engine struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

// NewEngine creates an Engine. Day boundaries are computed in loc.
func NewEngine(store Store, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{store: store, loc: loc, now: time.Now}
}

// Resolve resolves a window relative to the engine clock.
func (e *Engine) Resolve(period, startDate, endDate string) (Window, error) {
	return Resolve(period, startDate, endDate, e.now(), e.loc)
}

// Today returns the snapshot for the current day.
func (e *Engine) Today(ctx context.Context) (models.StatsSnapshot, error) {
	w, err := e.Resolve(PeriodToday, "", "")
	if err != nil {
		return models.StatsSnapshot{}, err
	}
	return e.Snapshot(ctx, w)
}

// Snapshot computes revenue, EPC and their change against the previous
// window. TotalLeads and TotalClicks are all-time counts.
func (e *Engine) Snapshot(ctx context.Context, w Window) (models.StatsSnapshot, error) {
	start := time.Now()
	defer func() { metrics.StatsSnapshotDuration.Observe(time.Since(start).Seconds()) }()

	cur, err := e.store.WindowTotals(ctx, w.Current)
	if err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("current window: %w", err)
	}
	prev, err := e.store.WindowTotals(ctx, w.Previous)
	if err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("previous window: %w", err)
	}
	totalClicks, totalLeads, err := e.store.AllTimeCounts(ctx)
	if err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("all-time counts: %w", err)
	}

	epc := ratio(cur.Revenue, float64(cur.Clicks))
	prevEPC := ratio(prev.Revenue, float64(prev.Clicks))

	return models.StatsSnapshot{
		TodayRevenue:   cur.Revenue,
		TodayEpc:       epc,
		TotalLeads:     totalLeads,
		TotalClicks:    totalClicks,
		RevenueChange:  round2(change(cur.Revenue, prev.Revenue)),
		EpcChange:      round2(change(epc, prevEPC)),
		Period:         w.Period,
		PeriodClicks:   cur.Clicks,
		PeriodLeads:    cur.Leads,
		ConversionRate: percent(cur.Leads, cur.Clicks),
		StartDate:      w.Current.Start.In(e.loc).Format(time.RFC3339),
		EndDate:        w.Current.End.In(e.loc).Format(time.RFC3339),
	}, nil
}

// SubIDReport groups the window's clicks and leads by sub id, sorted by
// revenue descending and then sub id ascending.
func (e *Engine) SubIDReport(ctx context.Context, w Window) ([]models.SubIDRow, error) {
	clicks, err := e.store.SubIDClicks(ctx, w.Current)
	if err != nil {
		return nil, fmt.Errorf("clicks by sub id: %w", err)
	}
	leads, err := e.store.SubIDLeads(ctx, w.Current)
	if err != nil {
		return nil, fmt.Errorf("leads by sub id: %w", err)
	}

	rows := make(map[string]*models.SubIDRow)
	row := func(raw string) *models.SubIDRow {
		label := models.SubIDLabel(raw)
		r, ok := rows[label]
		if !ok {
			r = &models.SubIDRow{SubID: label}
			rows[label] = r
		}
		return r
	}
	for _, c := range clicks {
		row(c.SubID).Clicks += c.Count
	}
	for _, l := range leads {
		r := row(l.SubID)
		r.Leads += l.Count
		r.Revenue += l.Revenue
	}

	report := make([]models.SubIDRow, 0, len(rows))
	for _, r := range rows {
		r.ConversionRate = percent(r.Leads, r.Clicks)
		report = append(report, *r)
	}
	sort.Slice(report, func(i, j int) bool {
		if report[i].Revenue != report[j].Revenue {
			return report[i].Revenue > report[j].Revenue
		}
		return report[i].SubID < report[j].SubID
	})
	return report, nil
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// percent is part as a percentage of whole, or 0 when whole is 0.
func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// change is the percentage change from prev to cur, or 0 without a base.
func change(cur, prev float64) float64 {
	if prev <= 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

// round2 rounds to two decimals with halves toward positive infinity.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
