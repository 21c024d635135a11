// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package api

import (
	"net/http"

	"github.com/tomtom215/cpapulse/internal/middleware"
)

const performanceRecent = 50

// PerformanceResponse summarizes the request latency window.
type PerformanceResponse struct {
	Endpoints []middleware.EndpointStats  `json:"endpoints"`
	Recent    []middleware.RequestMetrics `json:"recent"`
}

// Performance returns per-endpoint latency stats and the newest requests.
// GET /api/performance
func (h *Handler) Performance(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, PerformanceResponse{
		Endpoints: h.perfMon.GetStats(),
		Recent:    h.perfMon.GetRecentMetrics(performanceRecent),
	})
}
