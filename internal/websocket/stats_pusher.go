// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package websocket

import (
	"context"
	"time"

	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/models"
)

// SnapshotSource computes the current day's stats.
type SnapshotSource interface {
	Today(ctx context.Context) (models.StatsSnapshot, error)
}

// StatsPusher periodically refreshes the hub's stats snapshot.
type StatsPusher struct {
	source   SnapshotSource
	hub      *Hub
	interval time.Duration
}

// NewStatsPusher creates a pusher. A non-positive interval defaults to 5s.
func NewStatsPusher(source SnapshotSource, hub *Hub, interval time.Duration) *StatsPusher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &StatsPusher{source: source, hub: hub, interval: interval}
}

// Serve pushes once immediately, so new clients have a snapshot to start
// from, then every interval until ctx is done.
func (p *StatsPusher) Serve(ctx context.Context) error {
	p.Push(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Push(ctx)
		}
	}
}

// String names the service in supervisor logs.
func (p *StatsPusher) String() string {
	return "stats-pusher"
}

// Push computes one snapshot and hands it to the hub. On error the previous
// snapshot stays cached and nothing is sent.
func (p *StatsPusher) Push(ctx context.Context) {
	snap, err := p.source.Today(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn().Err(err).Msg("Failed to compute stats snapshot")
		}
		return
	}
	p.hub.BroadcastStats(snap)
}
