// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/cpapulse/internal/ingest"
)

// PostbackResponse is returned for recorded and duplicate conversions.
type PostbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	LeadID  string `json:"leadId"`
}

// Postback records a network conversion. Parameters come from the query
// string and, for POST, the form body.
// GET|POST /api/postback
func (h *Handler) Postback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	res, err := h.ingest.Process(r.Context(), ingest.FromRequest(r))
	if err != nil {
		respondPostbackError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, PostbackResponse{
		Success: true,
		Message: res.Message(),
		LeadID:  res.LeadID,
	})
}

func respondPostbackError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ingest.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, r, http.StatusBadRequest, verr.Message, nil)
	case errors.Is(err, ingest.ErrUnauthorized):
		respondError(w, r, http.StatusUnauthorized, ingest.MsgUnauthorized, nil)
	case errors.Is(err, ingest.ErrRateLimited):
		respondError(w, r, http.StatusTooManyRequests, ingest.MsgRateLimited, nil)
	case errors.Is(err, ingest.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ingest.MsgOfferNotFound, nil)
	default:
		respondError(w, r, http.StatusInternalServerError, ingest.MsgInternal, err)
	}
}
