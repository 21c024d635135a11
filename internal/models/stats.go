// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package models

// StatsSnapshot is the aggregate for one window compared with the window
// before it.
//
// TodayRevenue and TodayEpc hold the figures for the requested window; the
// names are kept for dashboard compatibility. TotalLeads and TotalClicks are
// all-time counts.
type StatsSnapshot struct {
	TodayRevenue  float64 `json:"todayRevenue"`
	TodayEpc      float64 `json:"todayEpc"`
	TotalLeads    int64   `json:"totalLeads"`
	TotalClicks   int64   `json:"totalClicks"`
	RevenueChange float64 `json:"revenueChange"`
	EpcChange     float64 `json:"epcChange"`

	Period         string  `json:"period"`
	PeriodClicks   int64   `json:"periodClicks"`
	PeriodLeads    int64   `json:"periodLeads"`
	ConversionRate float64 `json:"conversionRate"`
	StartDate      string  `json:"startDate"`
	EndDate        string  `json:"endDate"`
}

// SubIDRow is one line of the sub-id report.
type SubIDRow struct {
	SubID          string  `json:"subId"`
	Clicks         int64   `json:"clicks"`
	Leads          int64   `json:"leads"`
	Revenue        float64 `json:"revenue"`
	ConversionRate float64 `json:"conversionRate"`
}

// WindowTotals are the raw sums for one window as read from storage.
type WindowTotals struct {
	Clicks  int64
	Leads   int64
	Revenue float64
}

// SubIDCount is a per-sub-id aggregate as read from storage. SubID is the
// raw value ("" for missing).
type SubIDCount struct {
	SubID   string
	Count   int64
	Revenue float64
}
