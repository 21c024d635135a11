// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package models

import "time"

// NoSubIDLabel replaces an empty sub-id in reports and activity feeds.
const NoSubIDLabel = "No Sub ID"

// TimestampLayout is the ISO 8601 layout used for createdAt on the wire
// (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// SubIDLabel returns subID or NoSubIDLabel when it is empty.
func SubIDLabel(subID string) string {
	if subID == "" {
		return NoSubIDLabel
	}
	return subID
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Click is one inbound visit. Clicks are never mutated after insert.
type Click struct {
	ID        string    `json:"id"`
	OfferID   string    `json:"offerId"`
	SubID     string    `json:"subId,omitempty"`
	Country   string    `json:"country"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Lead is one confirmed conversion. NetworkID and ExternalID are nil for
// leads that did not arrive through a postback.
type Lead struct {
	ID         string    `json:"id"`
	OfferID    string    `json:"offerId"`
	NetworkID  *string   `json:"networkId,omitempty"`
	ExternalID *string   `json:"externalId,omitempty"`
	SubID      string    `json:"subId,omitempty"`
	Country    string    `json:"country"`
	Revenue    float64   `json:"revenue"`
	Status     string    `json:"status"`
	IP         string    `json:"ip,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ActivityKind distinguishes click and lead activity.
type ActivityKind string

const (
	ActivityClick ActivityKind = "click"
	ActivityLead  ActivityKind = "lead"
)

// ActivityItem is the public shape of a click or lead in recent-activity
// lists and live events. Revenue is set for leads only.
type ActivityItem struct {
	ID        string   `json:"id"`
	SubID     string   `json:"subId"`
	Country   string   `json:"country"`
	OfferName string   `json:"offerName"`
	Revenue   *float64 `json:"revenue,omitempty"`
	CreatedAt string   `json:"createdAt"`
}

// ActivityRow is an activity row as read from storage, before the sub-id
// sentinel and timestamp formatting are applied.
type ActivityRow struct {
	ID        string
	SubID     string
	Country   string
	OfferName string
	Revenue   float64
	CreatedAt time.Time
}

// ClickItem converts a click row to its public shape.
func (r ActivityRow) ClickItem() ActivityItem {
	return ActivityItem{
		ID:        r.ID,
		SubID:     SubIDLabel(r.SubID),
		Country:   r.Country,
		OfferName: r.OfferName,
		CreatedAt: FormatTimestamp(r.CreatedAt),
	}
}

// LeadItem converts a lead row to its public shape.
func (r ActivityRow) LeadItem() ActivityItem {
	item := r.ClickItem()
	revenue := r.Revenue
	item.Revenue = &revenue
	return item
}

// ActivityEvent is a single new click or lead emitted by the change detector.
type ActivityEvent struct {
	Kind ActivityKind `json:"kind"`
	Item ActivityItem `json:"item"`
}
