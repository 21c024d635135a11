// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package models

import "time"

// Status values shared by networks, offers and campaigns.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Network is a third-party CPA network allowed to post conversions.
// Postbacks authenticate with Name + APIKey and only while Status is active.
type Network struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	DisplayName string         `json:"displayName,omitempty"`
	APIKey      string         `json:"apiKey"`
	APISecret   string         `json:"apiSecret,omitempty"`
	PostbackURL string         `json:"postbackUrl,omitempty"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Offers      []NetworkOffer `json:"offers,omitempty"`
}

// Label returns the display name, falling back to the name.
func (n *Network) Label() string {
	if n.DisplayName != "" {
		return n.DisplayName
	}
	return n.Name
}

// NetworkOffer is a network's view of an offer, addressed by ExternalID in
// postbacks. OfferID links it to the local Offer that leads are booked
// against; it is nil until the link is established.
type NetworkOffer struct {
	ID         string    `json:"id"`
	NetworkID  string    `json:"networkId"`
	ExternalID string    `json:"externalId"`
	Name       string    `json:"name"`
	Payout     float64   `json:"payout"`
	Status     string    `json:"status"`
	OfferID    *string   `json:"offerId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Network    *Network  `json:"network,omitempty"`
}

// NetworkInput carries the mutable fields of a Network for create/update.
type NetworkInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	DisplayName string `json:"displayName" validate:"max=200"`
	APIKey      string `json:"apiKey" validate:"required,max=255"`
	APISecret   string `json:"apiSecret" validate:"max=255"`
	PostbackURL string `json:"postbackUrl" validate:"omitempty,url"`
	Status      string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// NetworkOfferInput carries the fields needed to create a NetworkOffer.
type NetworkOfferInput struct {
	NetworkID  string  `json:"networkId" validate:"required,uuid"`
	ExternalID string  `json:"externalId" validate:"required,max=255"`
	Name       string  `json:"name" validate:"required,max=255"`
	Payout     float64 `json:"payout" validate:"gte=0"`
}
