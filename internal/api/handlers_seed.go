// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/cpapulse/internal/logging"
)

const seedTimeout = 2 * time.Minute

// Seed inserts a batch of randomized demo clicks and leads.
// POST /api/seed
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), seedTimeout)
	defer cancel()

	result, err := h.db.SeedDemoData(ctx, nil)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to seed demo data", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("clicks", result.Clicks).
		Int("leads", result.Leads).
		Msg("Demo data seeded")

	respondJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Successfully created %d clicks and %d leads", result.Clicks, result.Leads),
	})
}
