// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package api

import (
	"context"
	"net/http"
	"time"
)

// LivenessResponse is the body of /health/live.
type LivenessResponse struct {
	Alive  bool    `json:"alive"`
	Uptime float64 `json:"uptime"`
}

// ReadinessResponse is the body of /health/ready.
type ReadinessResponse struct {
	Ready             bool    `json:"ready"`
	DatabaseConnected bool    `json:"databaseConnected"`
	Uptime            float64 `json:"uptime"`
}

// HealthLive reports that the process is serving requests.
// GET /health/live
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, LivenessResponse{
		Alive:  true,
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady reports whether the database answers. 503 when it does not.
// GET /health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	connected := h.db != nil && h.db.Ping(ctx) == nil
	status := http.StatusOK
	if !connected {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, ReadinessResponse{
		Ready:             connected,
		DatabaseConnected: connected,
		Uptime:            time.Since(h.startTime).Seconds(),
	})
}
