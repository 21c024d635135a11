// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package stats

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/cpapulse/internal/database"
	"github.com/tomtom215/cpapulse/internal/models"
)

// fakeStore returns totals keyed by window start.
type fakeStore struct {
	totals     map[time.Time]models.WindowTotals
	allClicks  int64
	allLeads   int64
	subClicks  []models.SubIDCount
	subLeads   []models.SubIDCount
	err        error
	seenRanges []database.Range
}

func (f *fakeStore) WindowTotals(_ context.Context, r database.Range) (models.WindowTotals, error) {
	f.seenRanges = append(f.seenRanges, r)
	if f.err != nil {
		return models.WindowTotals{}, f.err
	}
	return f.totals[r.Start], nil
}

func (f *fakeStore) AllTimeCounts(context.Context) (int64, int64, error) {
	return f.allClicks, f.allLeads, f.err
}

func (f *fakeStore) SubIDClicks(context.Context, database.Range) ([]models.SubIDCount, error) {
	return f.subClicks, f.err
}

func (f *fakeStore) SubIDLeads(context.Context, database.Range) ([]models.SubIDCount, error) {
	return f.subLeads, f.err
}

func newTestEngine(store Store, now time.Time) *Engine {
	e := NewEngine(store, testLoc)
	e.now = func() time.Time { return now }
	return e
}

func TestSnapshot(t *testing.T) {
	now := date(2026, 3, 10, 15, 30)
	today := date(2026, 3, 10, 0, 0)
	yesterday := date(2026, 3, 9, 0, 0)

	tests := []struct {
		name          string
		cur, prev     models.WindowTotals
		wantRevenue   float64
		wantEPC       float64
		wantRevChange float64
		wantEPCChange float64
		wantConv      float64
	}{
		{
			name:        "growth",
			cur:         models.WindowTotals{Clicks: 100, Leads: 10, Revenue: 30},
			prev:        models.WindowTotals{Clicks: 100, Leads: 8, Revenue: 20},
			wantRevenue: 30, wantEPC: 0.3, wantRevChange: 50, wantEPCChange: 50, wantConv: 10,
		},
		{
			name:        "no previous revenue",
			cur:         models.WindowTotals{Clicks: 4, Leads: 1, Revenue: 2.5},
			prev:        models.WindowTotals{},
			wantRevenue: 2.5, wantEPC: 0.625, wantRevChange: 0, wantEPCChange: 0, wantConv: 25,
		},
		{
			name:        "no clicks",
			cur:         models.WindowTotals{Leads: 2, Revenue: 5},
			prev:        models.WindowTotals{Clicks: 10, Revenue: 10},
			wantRevenue: 5, wantEPC: 0, wantRevChange: -50, wantEPCChange: -100, wantConv: 0,
		},
		{
			name:        "rounded to two decimals",
			cur:         models.WindowTotals{Clicks: 3, Revenue: 10},
			prev:        models.WindowTotals{Clicks: 3, Revenue: 3},
			wantRevenue: 10, wantEPC: 10.0 / 3, wantRevChange: 233.33, wantEPCChange: 233.33,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{
				totals:    map[time.Time]models.WindowTotals{today: tt.cur, yesterday: tt.prev},
				allClicks: 1000,
				allLeads:  70,
			}
			snap, err := newTestEngine(store, now).Today(context.Background())
			if err != nil {
				t.Fatalf("Today() error = %v", err)
			}

			if snap.TodayRevenue != tt.wantRevenue {
				t.Errorf("TodayRevenue = %v, want %v", snap.TodayRevenue, tt.wantRevenue)
			}
			if math.Abs(snap.TodayEpc-tt.wantEPC) > 1e-9 {
				t.Errorf("TodayEpc = %v, want %v", snap.TodayEpc, tt.wantEPC)
			}
			if snap.RevenueChange != tt.wantRevChange || snap.EpcChange != tt.wantEPCChange {
				t.Errorf("changes = %v/%v, want %v/%v", snap.RevenueChange, snap.EpcChange, tt.wantRevChange, tt.wantEPCChange)
			}
			if math.Abs(snap.ConversionRate-tt.wantConv) > 1e-9 {
				t.Errorf("ConversionRate = %v, want %v", snap.ConversionRate, tt.wantConv)
			}
			if snap.TotalClicks != 1000 || snap.TotalLeads != 70 {
				t.Errorf("totals = %d/%d, want all-time 1000/70", snap.TotalClicks, snap.TotalLeads)
			}
			if snap.Period != PeriodToday || snap.PeriodClicks != tt.cur.Clicks || snap.PeriodLeads != tt.cur.Leads {
				t.Errorf("period fields = %+v", snap)
			}
			if len(store.seenRanges) != 2 || !store.seenRanges[0].EndInclusive || store.seenRanges[1].EndInclusive {
				t.Errorf("queried ranges = %+v, want inclusive current then half-open previous", store.seenRanges)
			}
			if snap.StartDate != "2026-03-10T00:00:00+07:00" {
				t.Errorf("StartDate = %q", snap.StartDate)
			}
		})
	}
}

func TestSnapshot_StorageError(t *testing.T) {
	store := &fakeStore{err: errors.New("database is closed")}
	_, err := newTestEngine(store, date(2026, 3, 10, 12, 0)).Today(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSubIDReport(t *testing.T) {
	store := &fakeStore{
		subClicks: []models.SubIDCount{
			{SubID: "a", Count: 10},
			{SubID: "b", Count: 4},
			{SubID: "", Count: 5},
			{SubID: "c", Count: 2},
		},
		subLeads: []models.SubIDCount{
			{SubID: "a", Count: 1, Revenue: 2.5},
			{SubID: "b", Count: 1, Revenue: 2.5},
			{SubID: "", Count: 2, Revenue: 9},
			{SubID: "orphan", Count: 1, Revenue: 1},
		},
	}
	e := newTestEngine(store, date(2026, 3, 10, 12, 0))
	w, err := e.Resolve(PeriodWeek, "", "")
	if err != nil {
		t.Fatal(err)
	}

	report, err := e.SubIDReport(context.Background(), w)
	if err != nil {
		t.Fatalf("SubIDReport() error = %v", err)
	}

	want := []models.SubIDRow{
		{SubID: models.NoSubIDLabel, Clicks: 5, Leads: 2, Revenue: 9, ConversionRate: 40},
		{SubID: "a", Clicks: 10, Leads: 1, Revenue: 2.5, ConversionRate: 10},
		{SubID: "b", Clicks: 4, Leads: 1, Revenue: 2.5, ConversionRate: 25},
		{SubID: "orphan", Clicks: 0, Leads: 1, Revenue: 1, ConversionRate: 0},
		{SubID: "c", Clicks: 2, Leads: 0, Revenue: 0, ConversionRate: 0},
	}
	if len(report) != len(want) {
		t.Fatalf("report has %d rows, want %d: %+v", len(report), len(want), report)
	}
	for i := range want {
		if report[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, report[i], want[i])
		}
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.125, 0.13},
		{-0.125, -0.12},
		{33.333333, 33.33},
		{0, 0},
	}
	for _, tt := range tests {
		if got := round2(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
