// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package websocket

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cpapulse/internal/config"
	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Output: io.Discard})
}

// setupHub creates and starts a hub that stops with the test.
func setupHub(t *testing.T, cfg config.BroadcastConfig) *Hub {
	t.Helper()
	hub := NewHub(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

// createTestClient creates a client with no connection.
func createTestClient(hub *Hub, buffer int) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, buffer)}
}

func registerClient(hub *Hub, client *Client) {
	hub.Register <- client
	waitFor(func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.clients[client]
	})
}

func waitFor(cond func() bool) {
	deadline := time.Now().Add(time.Second)
	for !cond() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-client.send:
		if !ok {
			t.Fatal("client send channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestNewHub_Defaults(t *testing.T) {
	hub := NewHub(config.BroadcastConfig{})
	if cap(hub.broadcast) != defaultHubBuffer {
		t.Errorf("hub buffer = %d, want %d", cap(hub.broadcast), defaultHubBuffer)
	}
	if hub.clientBuffer != defaultClientBuffer {
		t.Errorf("client buffer = %d, want %d", hub.clientBuffer, defaultClientBuffer)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := setupHub(t, config.BroadcastConfig{})
	c1 := createTestClient(hub, 8)
	c2 := createTestClient(hub, 8)

	registerClient(hub, c1)
	registerClient(hub, c2)
	if hub.ClientCount() != 2 {
		t.Fatalf("ClientCount() = %d, want 2", hub.ClientCount())
	}

	hub.Unregister <- c1
	waitFor(func() bool { return hub.ClientCount() == 1 })
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}
	if _, ok := <-c1.send; ok {
		t.Error("unregistered client's send channel should be closed")
	}

	// Unregistering twice must not panic on a closed channel.
	hub.Unregister <- c1
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := setupHub(t, config.BroadcastConfig{})
	clients := []*Client{createTestClient(hub, 8), createTestClient(hub, 8), createTestClient(hub, 8)}
	for _, c := range clients {
		registerClient(hub, c)
	}

	item := models.ActivityItem{ID: "c1", SubID: "sub1", Country: "US", OfferName: "Offer"}
	hub.BroadcastJSON(MessageTypeNewClick, item)

	for i, c := range clients {
		msg := receive(t, c)
		if msg.Type != MessageTypeNewClick {
			t.Errorf("client %d type = %q, want %q", i, msg.Type, MessageTypeNewClick)
		}
		if got, ok := msg.Data.(models.ActivityItem); !ok || got.ID != "c1" {
			t.Errorf("client %d data = %#v", i, msg.Data)
		}
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := setupHub(t, config.BroadcastConfig{})
	slow := createTestClient(hub, 1)
	fast := createTestClient(hub, 8)
	registerClient(hub, slow)
	registerClient(hub, fast)

	hub.BroadcastJSON(MessageTypeNewClick, "one")
	hub.BroadcastJSON(MessageTypeNewClick, "two")

	receive(t, fast)
	receive(t, fast)
	waitFor(func() bool { return hub.ClientCount() == 1 })

	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1 after dropping the slow client", hub.ClientCount())
	}
	<-slow.send
	if _, ok := <-slow.send; ok {
		t.Error("slow client's send channel should be closed")
	}
}

func TestHub_BroadcastQueueFull(t *testing.T) {
	// Not running, so nothing drains the queue.
	hub := NewHub(config.BroadcastConfig{HubBuffer: 2})
	for i := 0; i < 5; i++ {
		hub.BroadcastJSON(MessageTypeNewLead, i)
	}
	if got := len(hub.broadcast); got != 2 {
		t.Errorf("queued = %d, want 2", got)
	}
}

func TestHub_NewClientGetsCachedSnapshot(t *testing.T) {
	hub := setupHub(t, config.BroadcastConfig{})

	snap := models.StatsSnapshot{TodayRevenue: 12.5, TotalLeads: 5, TotalClicks: 100}
	hub.BroadcastStats(snap)
	if len(hub.broadcast) != 0 {
		t.Error("stats should not be queued when no client is connected")
	}

	client := createTestClient(hub, 8)
	registerClient(hub, client)

	msg := receive(t, client)
	if msg.Type != MessageTypeStatsUpdate {
		t.Fatalf("first message type = %q, want %q", msg.Type, MessageTypeStatsUpdate)
	}
	got, ok := msg.Data.(models.StatsSnapshot)
	if !ok || got.TodayRevenue != 12.5 {
		t.Errorf("snapshot = %#v", msg.Data)
	}

	snap.TodayRevenue = 15
	hub.BroadcastStats(snap)
	msg = receive(t, client)
	if got := msg.Data.(models.StatsSnapshot); got.TodayRevenue != 15 {
		t.Errorf("updated revenue = %v, want 15", got.TodayRevenue)
	}
}

func TestHub_ServeStopsAndClosesClients(t *testing.T) {
	hub := NewHub(config.BroadcastConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.Serve(ctx) }()

	client := createTestClient(hub, 8)
	registerClient(hub, client)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}
	if _, ok := <-client.send; ok {
		t.Error("client send channel should be closed on shutdown")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

func TestMarshalMessage(t *testing.T) {
	revenue := 2.5
	msg := Message{
		Type: MessageTypeNewLead,
		Data: models.ActivityItem{ID: "l1", SubID: "No Sub ID", Country: "US", OfferName: "Offer", Revenue: &revenue, CreatedAt: "2026-03-01T12:00:00.000Z"},
	}
	data, err := MarshalMessage(msg)
	if err != nil {
		t.Fatalf("MarshalMessage() error = %v", err)
	}

	var decoded struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Type != "new_lead" {
		t.Errorf("type = %q", decoded.Type)
	}
	for _, key := range []string{"id", "subId", "country", "offerName", "revenue", "createdAt"} {
		if _, ok := decoded.Data[key]; !ok {
			t.Errorf("data missing %q", key)
		}
	}
}
