// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package stats

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/cpapulse/internal/database"
)

// ErrInvalidWindow is returned for unknown periods and bad custom dates.
var ErrInvalidWindow = errors.New("invalid stats window")

// Period tokens.
const (
	PeriodToday     = "today"
	PeriodYesterday = "yesterday"
	PeriodWeek      = "week"
	PeriodMonth     = "month"
	PeriodCustom    = "custom"
)

const dateLayout = "2006-01-02"

// Window is a resolved reporting window and the window it is compared with.
type Window struct {
	Period   string
	Current  database.Range
	Previous database.Range
}

// Resolve turns a period token and optional custom dates into a Window
// relative to now. An empty period means today.
func Resolve(period, startDate, endDate string, now time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	today := startOfDay(now, 0)

	switch strings.ToLower(strings.TrimSpace(period)) {
	case "", PeriodToday:
		return Window{
			Period:   PeriodToday,
			Current:  database.Range{Start: today, End: now, EndInclusive: true},
			Previous: database.Range{Start: startOfDay(now, -1), End: today},
		}, nil

	case PeriodYesterday:
		yesterday := startOfDay(now, -1)
		return Window{
			Period:   PeriodYesterday,
			Current:  database.Range{Start: yesterday, End: today},
			Previous: database.Range{Start: startOfDay(now, -2), End: yesterday},
		}, nil

	case PeriodWeek:
		return trailing(PeriodWeek, now, 7), nil

	case PeriodMonth:
		return trailing(PeriodMonth, now, 30), nil

	case PeriodCustom:
		return resolveCustom(startDate, endDate, loc)

	default:
		return Window{}, fmt.Errorf("%w: unknown period %q", ErrInvalidWindow, period)
	}
}

// trailing is the last n days up to now, compared with the n days before.
func trailing(period string, now time.Time, days int) Window {
	start := now.AddDate(0, 0, -days)
	return Window{
		Period:   period,
		Current:  database.Range{Start: start, End: now, EndInclusive: true},
		Previous: database.Range{Start: start.AddDate(0, 0, -days), End: start},
	}
}

func resolveCustom(startDate, endDate string, loc *time.Location) (Window, error) {
	if startDate == "" || endDate == "" {
		return Window{}, fmt.Errorf("%w: custom period requires startDate and endDate", ErrInvalidWindow)
	}
	from, err := parseDate(startDate, loc)
	if err != nil {
		return Window{}, fmt.Errorf("%w: startDate: %v", ErrInvalidWindow, err)
	}
	to, err := parseDate(endDate, loc)
	if err != nil {
		return Window{}, fmt.Errorf("%w: endDate: %v", ErrInvalidWindow, err)
	}
	if to.Before(from) {
		return Window{}, fmt.Errorf("%w: endDate is before startDate", ErrInvalidWindow)
	}

	days := 1
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		days++
	}
	end := to.AddDate(0, 0, 1).Add(-time.Millisecond)

	return Window{
		Period:   PeriodCustom,
		Current:  database.Range{Start: from, End: end, EndInclusive: true},
		Previous: database.Range{Start: from.AddDate(0, 0, -days), End: from},
	}, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339 and returns midnight of that
// calendar date in loc.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("unparseable date %q", raw)
		}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
}

// startOfDay returns midnight of the day offset by days from t, in t's
// location.
func startOfDay(t time.Time, days int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, t.Location())
}
