// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package models

import "time"

// DefaultCampaignID is the campaign that receives offers created implicitly
// by postback ingestion. It is inserted by the initial migration.
const DefaultCampaignID = "default"

// Campaign groups offers.
type Campaign struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Offer is the local offer record that clicks and leads reference.
type Offer struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaignId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Payout      float64   `json:"payout"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}
