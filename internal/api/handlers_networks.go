// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cpapulse/internal/database"
	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/models"
	"github.com/tomtom215/cpapulse/internal/validation"
)

// ListNetworks returns every network, newest first, with its active offers.
// GET /api/networks
func (h *Handler) ListNetworks(w http.ResponseWriter, r *http.Request) {
	networks, err := h.db.ListNetworks(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to fetch networks", err)
		return
	}
	if networks == nil {
		networks = []models.Network{}
	}
	respondJSON(w, http.StatusOK, networks)
}

// CreateNetwork creates an active network.
// POST /api/networks
func (h *Handler) CreateNetwork(w http.ResponseWriter, r *http.Request) {
	var in models.NetworkInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if verr := validation.ValidateStruct(&in); verr != nil {
		respondValidationError(w, verr)
		return
	}

	network, err := h.db.CreateNetwork(r.Context(), in)
	if err != nil {
		respondStoreError(w, r, err, "Failed to create network")
		return
	}
	logging.Ctx(r.Context()).Info().Str("network_id", network.ID).Str("network", network.Name).Msg("Network created")
	respondJSON(w, http.StatusCreated, network)
}

// GetNetwork returns one network with all of its offers.
// GET /api/networks/{id}
func (h *Handler) GetNetwork(w http.ResponseWriter, r *http.Request) {
	network, err := h.db.GetNetwork(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, r, err, "Failed to fetch network")
		return
	}
	respondJSON(w, http.StatusOK, network)
}

// UpdateNetwork replaces the mutable fields of a network.
// PUT /api/networks/{id}
func (h *Handler) UpdateNetwork(w http.ResponseWriter, r *http.Request) {
	var in models.NetworkInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if verr := validation.ValidateStruct(&in); verr != nil {
		respondValidationError(w, verr)
		return
	}

	network, err := h.db.UpdateNetwork(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondStoreError(w, r, err, "Failed to update network")
		return
	}
	respondJSON(w, http.StatusOK, network)
}

// DeleteNetwork deletes a network without leads, together with its offers.
// DELETE /api/networks/{id}
func (h *Handler) DeleteNetwork(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.db.DeleteNetwork(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrConflict) {
			respondError(w, r, http.StatusConflict, "Network has recorded leads and cannot be deleted", nil)
			return
		}
		respondStoreError(w, r, err, "Failed to delete network")
		return
	}
	logging.Ctx(r.Context()).Info().Str("network_id", id).Msg("Network deleted")
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Network deleted successfully"})
}

// ListNetworkOffers returns every network offer, newest first, with its
// network.
// GET /api/networks/offers
func (h *Handler) ListNetworkOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.db.ListNetworkOffers(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to fetch network offers", err)
		return
	}
	if offers == nil {
		offers = []models.NetworkOffer{}
	}
	respondJSON(w, http.StatusOK, offers)
}

// CreateNetworkOffer creates an active network offer and links it to a
// local offer, creating one when nothing matches.
// POST /api/networks/offers
func (h *Handler) CreateNetworkOffer(w http.ResponseWriter, r *http.Request) {
	var in models.NetworkOfferInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if verr := validation.ValidateStruct(&in); verr != nil {
		respondValidationError(w, verr)
		return
	}

	offer, err := h.db.CreateNetworkOffer(r.Context(), in)
	if err != nil {
		respondStoreError(w, r, err, "Failed to create network offer")
		return
	}

	network, err := h.db.GetNetwork(r.Context(), offer.NetworkID)
	if err == nil {
		_, err = h.ingest.LinkOffer(r.Context(), network, offer)
	}
	if err != nil {
		// The offer exists; the first postback retries the link.
		logging.Ctx(r.Context()).Warn().Err(err).Str("network_offer_id", offer.ID).Msg("Failed to link network offer")
	}

	respondJSON(w, http.StatusCreated, offer)
}

// respondStoreError maps database sentinels to 404/409 and everything else
// to 500 with fallback as the message.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "Network not found", nil)
	case errors.Is(err, database.ErrConflict):
		respondError(w, r, http.StatusConflict, conflictMessage(err), nil)
	default:
		respondError(w, r, http.StatusInternalServerError, fallback, err)
	}
}

// conflictMessage strips the sentinel suffix, leaving e.g.
// `network "acme" already exists`.
func conflictMessage(err error) string {
	return strings.TrimSuffix(err.Error(), ": "+database.ErrConflict.Error())
}
