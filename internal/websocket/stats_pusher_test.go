// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/cpapulse/internal/config"
	"github.com/tomtom215/cpapulse/internal/models"
)

type fakeSnapshots struct {
	mu    sync.Mutex
	snaps []models.StatsSnapshot
	err   error
	calls int
}

func (f *fakeSnapshots) Today(context.Context) (models.StatsSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return models.StatsSnapshot{}, f.err
	}
	snap := f.snaps[0]
	if len(f.snaps) > 1 {
		f.snaps = f.snaps[1:]
	}
	return snap, nil
}

func TestStatsPusher_Push(t *testing.T) {
	hub := setupHub(t, config.BroadcastConfig{})
	client := createTestClient(hub, 8)
	registerClient(hub, client)

	src := &fakeSnapshots{snaps: []models.StatsSnapshot{{TodayRevenue: 10, TotalLeads: 4}}}
	NewStatsPusher(src, hub, time.Second).Push(context.Background())

	msg := receive(t, client)
	if msg.Type != MessageTypeStatsUpdate {
		t.Fatalf("type = %q, want stats_update", msg.Type)
	}
	if snap := msg.Data.(models.StatsSnapshot); snap.TotalLeads != 4 {
		t.Errorf("TotalLeads = %d, want 4", snap.TotalLeads)
	}
}

func TestStatsPusher_ErrorKeepsLastSnapshot(t *testing.T) {
	hub := setupHub(t, config.BroadcastConfig{})
	src := &fakeSnapshots{snaps: []models.StatsSnapshot{{TodayRevenue: 7}}}
	pusher := NewStatsPusher(src, hub, time.Second)

	pusher.Push(context.Background())
	src.mu.Lock()
	src.err = errors.New("database is locked")
	src.mu.Unlock()
	pusher.Push(context.Background())

	client := createTestClient(hub, 8)
	registerClient(hub, client)

	msg := receive(t, client)
	if snap := msg.Data.(models.StatsSnapshot); snap.TodayRevenue != 7 {
		t.Errorf("cached revenue = %v, want 7", snap.TodayRevenue)
	}
	select {
	case extra := <-client.send:
		t.Errorf("unexpected message after failed push: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStatsPusher_ServeTicks(t *testing.T) {
	hub := setupHub(t, config.BroadcastConfig{})
	client := createTestClient(hub, 16)
	registerClient(hub, client)

	src := &fakeSnapshots{snaps: []models.StatsSnapshot{{TotalClicks: 1}, {TotalClicks: 2}, {TotalClicks: 3}}}
	pusher := NewStatsPusher(src, hub, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pusher.Serve(ctx) }()

	for want := int64(1); want <= 3; want++ {
		msg := receive(t, client)
		if snap := msg.Data.(models.StatsSnapshot); snap.TotalClicks != want {
			t.Errorf("TotalClicks = %d, want %d", snap.TotalClicks, want)
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestNewStatsPusher_DefaultInterval(t *testing.T) {
	p := NewStatsPusher(&fakeSnapshots{}, NewHub(config.BroadcastConfig{}), 0)
	if p.interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", p.interval)
	}
}
