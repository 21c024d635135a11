// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/cpapulse/internal/database"
	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/metrics"
	"github.com/tomtom215/cpapulse/internal/models"
)

// Store is the storage needed to record postbacks. Lookups return
// database.ErrNotFound (possibly wrapped) for missing rows.
type Store interface {
	FindActiveNetwork(ctx context.Context, name, apiKey string) (*models.Network, error)
	FindActiveNetworkOffer(ctx context.Context, networkID, externalID string) (*models.NetworkOffer, error)
	FindLeadByExternalID(ctx context.Context, networkID, externalID string) (*models.Lead, error)
	FindOfferByNameContains(ctx context.Context, fragment string) (*models.Offer, error)
	CreateOffer(ctx context.Context, o models.Offer) (*models.Offer, error)
	LinkNetworkOffer(ctx context.Context, networkOfferID, offerID string) (bool, error)
	InsertLead(ctx context.Context, l *models.Lead) (bool, error)
	DeleteOfferIfUnused(ctx context.Context, id string) (bool, error)
}

// Result is the outcome of a processed postback.
type Result struct {
	LeadID    string
	Duplicate bool
}

// Message returns the client-facing success message.
func (r Result) Message() string {
	if r.Duplicate {
		return MsgDuplicate
	}
	return MsgRecorded
}

// Service records postbacks.
type Service struct {
	store   Store
	limiter *NetworkLimiter
}

// NewService creates a Service. limiter may be nil.
func NewService(store Store, limiter *NetworkLimiter) *Service {
	return &Service{store: store, limiter: limiter}
}

// Process authenticates and records one postback.
func (s *Service) Process(ctx context.Context, p Postback) (res Result, err error) {
	defer func() { metrics.RecordPostback(outcome(res, err)) }()

	if p.Network == "" || p.APIKey == "" {
		return Result{}, &ValidationError{Message: MsgMissingCredentials}
	}
	if p.ExternalID == "" {
		return Result{}, &ValidationError{Message: MsgMissingExternalID}
	}

	network, err := s.store.FindActiveNetwork(ctx, p.Network, p.APIKey)
	if errors.Is(err, database.ErrNotFound) {
		logging.Ctx(ctx).Warn().Str("network", p.Network).Msg("Postback rejected: invalid network or API key")
		return Result{}, ErrUnauthorized
	}
	if err != nil {
		return Result{}, wrapInternal("find network", err)
	}

	networkOffer, err := s.store.FindActiveNetworkOffer(ctx, network.ID, p.ExternalID)
	if errors.Is(err, database.ErrNotFound) {
		return Result{}, ErrNotFound
	}
	if err != nil {
		return Result{}, wrapInternal("find network offer", err)
	}

	if existing, err := s.existingLead(ctx, network.ID, p.ExternalID); err != nil {
		return Result{}, err
	} else if existing != nil {
		return Result{LeadID: existing.ID, Duplicate: true}, nil
	}

	// Replays of recorded conversions are answered above and never throttled.
	if !s.limiter.Allow(network.ID) {
		logging.Ctx(ctx).Warn().Str("network", network.Name).Msg("Postback rate limit exceeded")
		return Result{}, ErrRateLimited
	}

	offerID, err := s.resolveOffer(ctx, network, networkOffer, p.Revenue)
	if err != nil {
		return Result{}, err
	}

	revenue := networkOffer.Payout
	if p.Revenue != nil {
		revenue = *p.Revenue
	}
	externalID := p.ExternalID
	networkID := network.ID
	lead := &models.Lead{
		OfferID:    offerID,
		NetworkID:  &networkID,
		ExternalID: &externalID,
		SubID:      p.SubID,
		Country:    p.Country,
		Revenue:    revenue,
		Status:     p.Status,
		IP:         p.IP,
		UserAgent:  p.UserAgent,
	}
	if lead.Status == "" {
		lead.Status = DefaultStatus
	}
	if lead.Country == "" {
		lead.Country = DefaultCountry
	}

	inserted, err := s.store.InsertLead(ctx, lead)
	if err != nil {
		return Result{}, wrapInternal("insert lead", err)
	}
	if !inserted {
		existing, err := s.existingLead(ctx, network.ID, p.ExternalID)
		if err != nil {
			return Result{}, err
		}
		if existing == nil {
			return Result{}, wrapInternal("insert lead", errors.New("conflicting lead disappeared"))
		}
		return Result{LeadID: existing.ID, Duplicate: true}, nil
	}

	logging.Ctx(ctx).Info().
		Str("lead_id", lead.ID).
		Str("network", network.Name).
		Str("external_id", p.ExternalID).
		Float64("revenue", revenue).
		Msg("Conversion recorded")

	return Result{LeadID: lead.ID}, nil
}

// LinkOffer bridges a network offer to a local offer using the same rules
// as postback resolution and returns the linked offer id. It is called when
// a network offer is created so the bridge exists before the first postback.
func (s *Service) LinkOffer(ctx context.Context, network *models.Network, no *models.NetworkOffer) (string, error) {
	offerID, err := s.resolveOffer(ctx, network, no, nil)
	if err != nil {
		return "", err
	}
	no.OfferID = &offerID
	return offerID, nil
}

// existingLead returns the lead already recorded for the conversion, or nil.
func (s *Service) existingLead(ctx context.Context, networkID, externalID string) (*models.Lead, error) {
	lead, err := s.store.FindLeadByExternalID(ctx, networkID, externalID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapInternal("find lead", err)
	}
	return lead, nil
}

// resolveOffer returns the local offer id for a network offer, in order:
// the stored link, the earliest offer whose name contains the network
// offer's name, or a new offer in the default campaign. The result is linked
// back onto the network offer when it has no link yet.
func (s *Service) resolveOffer(ctx context.Context, network *models.Network, no *models.NetworkOffer, revenue *float64) (string, error) {
	if no.OfferID != nil && *no.OfferID != "" {
		return *no.OfferID, nil
	}

	var offerID string
	created := false
	offer, err := s.store.FindOfferByNameContains(ctx, no.Name)
	switch {
	case err == nil:
		offerID = offer.ID
	case errors.Is(err, database.ErrNotFound):
		payout := no.Payout
		if revenue != nil {
			payout = *revenue
		}
		newOffer, err := s.store.CreateOffer(ctx, models.Offer{
			CampaignID:  models.DefaultCampaignID,
			Name:        no.Name,
			Description: "Imported from " + network.Label(),
			Payout:      payout,
			Status:      models.StatusActive,
		})
		if err != nil {
			return "", wrapInternal("create offer", err)
		}
		offerID = newOffer.ID
		created = true
		logging.Ctx(ctx).Info().
			Str("offer_id", offerID).
			Str("offer", no.Name).
			Str("network", network.Name).
			Msg("Created offer from postback")
	default:
		return "", wrapInternal("find offer", err)
	}

	linked, err := s.store.LinkNetworkOffer(ctx, no.ID, offerID)
	if err != nil {
		return "", wrapInternal("link network offer", err)
	}
	if !linked {
		// A concurrent postback linked first; book against its offer.
		current, err := s.store.FindActiveNetworkOffer(ctx, no.NetworkID, no.ExternalID)
		if err != nil {
			return "", wrapInternal("reload network offer", err)
		}
		if current.OfferID != nil && *current.OfferID != "" {
			if created && *current.OfferID != offerID {
				s.discardOffer(ctx, offerID)
			}
			return *current.OfferID, nil
		}
	}
	return offerID, nil
}

// discardOffer removes an offer created for a link that another postback
// won. Failure leaves an unused offer row behind and is only logged.
func (s *Service) discardOffer(ctx context.Context, offerID string) {
	deleted, err := s.store.DeleteOfferIfUnused(ctx, offerID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("offer_id", offerID).Msg("Failed to discard unlinked offer")
		return
	}
	if deleted {
		logging.Ctx(ctx).Debug().Str("offer_id", offerID).Msg("Discarded offer after losing link race")
	}
}

func wrapInternal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

func outcome(res Result, err error) string {
	switch {
	case err == nil && res.Duplicate:
		return metrics.PostbackDuplicate
	case err == nil:
		return metrics.PostbackRecorded
	case errors.Is(err, ErrValidation):
		return metrics.PostbackInvalid
	case errors.Is(err, ErrUnauthorized):
		return metrics.PostbackUnauthorized
	case errors.Is(err, ErrNotFound):
		return metrics.PostbackNotFound
	case errors.Is(err, ErrRateLimited):
		return metrics.PostbackRateLimited
	default:
		return metrics.PostbackError
	}
}
