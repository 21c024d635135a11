// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/cpapulse/internal/models"
	"github.com/tomtom215/cpapulse/internal/stats"
)

// resolveWindow reads period, startDate and endDate from the query string.
func (h *Handler) resolveWindow(w http.ResponseWriter, r *http.Request) (stats.Window, bool) {
	q := r.URL.Query()
	window, err := h.stats.Resolve(q.Get("period"), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		if errors.Is(err, stats.ErrInvalidWindow) {
			respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		} else {
			respondError(w, r, http.StatusInternalServerError, "Failed to resolve period", err)
		}
		return stats.Window{}, false
	}
	return window, true
}

// Stats returns the snapshot for the requested period.
// GET /api/stats?period=today|yesterday|week|month|custom&startDate=&endDate=
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	window, ok := h.resolveWindow(w, r)
	if !ok {
		return
	}
	snapshot, err := h.stats.Snapshot(r.Context(), window)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to fetch stats", err)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// SubIDReport returns the per sub-id report for the requested period.
// GET /api/reports/subid
func (h *Handler) SubIDReport(w http.ResponseWriter, r *http.Request) {
	window, ok := h.resolveWindow(w, r)
	if !ok {
		return
	}
	rows, err := h.stats.SubIDReport(r.Context(), window)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to fetch sub ID report", err)
		return
	}
	if rows == nil {
		rows = []models.SubIDRow{}
	}
	respondJSON(w, http.StatusOK, rows)
}

// RecentLeads returns the 10 newest leads.
// GET /api/leads/recent
func (h *Handler) RecentLeads(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.RecentLeads(r.Context(), recentLimit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to fetch recent leads", err)
		return
	}
	items := make([]models.ActivityItem, len(rows))
	for i, row := range rows {
		items[i] = row.LeadItem()
	}
	respondJSON(w, http.StatusOK, items)
}

// RecentClicks returns the 10 newest clicks.
// GET /api/clicks/recent
func (h *Handler) RecentClicks(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.RecentClicks(r.Context(), recentLimit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "Failed to fetch recent clicks", err)
		return
	}
	items := make([]models.ActivityItem, len(rows))
	for i, row := range rows {
		items[i] = row.ClickItem()
	}
	respondJSON(w, http.StatusOK, items)
}
