// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/cpapulse/internal/database"
	"github.com/tomtom215/cpapulse/internal/ingest"
	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/metrics"
	"github.com/tomtom215/cpapulse/internal/models"
)

// TrackClickResponse carries the id of the recorded click.
type TrackClickResponse struct {
	ClickID string `json:"clickId"`
}

// firstFormValue returns the first non-empty value among names.
func firstFormValue(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := r.FormValue(name); v != "" {
			return v
		}
	}
	return ""
}

// TrackClick records a click on a local offer.
// GET|POST /api/clicks/track?offer_id=&subid=&country=
func (h *Handler) TrackClick(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	offerID := firstFormValue(r, "offer_id")
	if offerID == "" {
		respondError(w, r, http.StatusBadRequest, "Missing required parameter: offer_id", nil)
		return
	}

	if _, err := h.db.GetOffer(r.Context(), offerID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "Offer not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "Failed to record click", err)
		return
	}

	click := &models.Click{
		OfferID:   offerID,
		SubID:     firstFormValue(r, "subid", "sub_id", "subid1"),
		Country:   firstFormValue(r, "country", "ctry"),
		IP:        ingest.ClientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	}
	if click.Country == "" {
		click.Country = ingest.DefaultCountry
	}
	if click.UserAgent == "" {
		click.UserAgent = ingest.DefaultUserAgent
	}

	if err := h.db.InsertClick(r.Context(), click); err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to record click", err)
		return
	}
	metrics.RecordClicks("track", 1)
	logging.Ctx(r.Context()).Debug().Str("click_id", click.ID).Str("offer_id", offerID).Msg("Click recorded")

	respondJSON(w, http.StatusCreated, TrackClickResponse{ClickID: click.ID})
}
