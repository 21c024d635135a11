// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/cpapulse/internal/config"
)

// newServedHub starts a hub and an httptest server that upgrades every
// request into a Client of that hub.
func newServedHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := setupHub(t, config.BroadcastConfig{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		NewClient(hub, conn).Start()
	}))
	t.Cleanup(server.Close)
	return hub, server
}

func dialWebSocket(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return msg
}

func TestClient_Constants(t *testing.T) {
	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"writeWait", writeWait, 10 * time.Second},
		{"pongWait", pongWait, 60 * time.Second},
		{"pingPeriod", pingPeriod, 54 * time.Second},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if maxMessageSize != 512 {
		t.Errorf("maxMessageSize = %d, want 512", maxMessageSize)
	}
}

func TestClient_ReceivesBroadcast(t *testing.T) {
	hub, server := newServedHub(t)
	conn := dialWebSocket(t, server)
	waitFor(func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastJSON(MessageTypeNewClick, map[string]string{"id": "c1"})

	msg := readMessage(t, conn)
	if msg["type"] != MessageTypeNewClick {
		t.Errorf("type = %v, want %s", msg["type"], MessageTypeNewClick)
	}
	data, _ := msg["data"].(map[string]any)
	if data["id"] != "c1" {
		t.Errorf("data = %v", msg["data"])
	}
}

func TestClient_MessagesFromClientAreDiscarded(t *testing.T) {
	hub, server := newServedHub(t)
	conn := dialWebSocket(t, server)
	waitFor(func() bool { return hub.ClientCount() == 1 })

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	hub.BroadcastJSON(MessageTypeNewLead, map[string]string{"id": "l1"})

	msg := readMessage(t, conn)
	if msg["type"] != MessageTypeNewLead {
		t.Errorf("type = %v, want only the broadcast", msg["type"])
	}
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, client should stay connected", hub.ClientCount())
	}
}

func TestClient_OversizedMessageDisconnects(t *testing.T) {
	hub, server := newServedHub(t)
	conn := dialWebSocket(t, server)
	waitFor(func() bool { return hub.ClientCount() == 1 })

	big := strings.Repeat("x", maxMessageSize*2)
	_ = conn.WriteMessage(websocket.TextMessage, []byte(big))

	waitFor(func() bool { return hub.ClientCount() == 0 })
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0 after oversized message", hub.ClientCount())
	}
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	hub, server := newServedHub(t)
	conn := dialWebSocket(t, server)
	waitFor(func() bool { return hub.ClientCount() == 1 })

	conn.Close()
	waitFor(func() bool { return hub.ClientCount() == 0 })
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

func TestClient_HubStopped(t *testing.T) {
	hub := NewHub(config.BroadcastConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan struct{})
	go func() {
		_ = hub.Serve(ctx)
		close(served)
	}()

	handlerDone := make(chan struct{}, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() { handlerDone <- struct{}{} }()
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(hub, conn).Start()
	}))
	t.Cleanup(server.Close)

	live := dialWebSocket(t, server)
	<-handlerDone
	waitFor(func() bool { return hub.ClientCount() == 1 })

	cancel()
	<-served

	// The live client is closed by the hub and its read pump must not hang
	// on unregistration.
	if err := live.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	for {
		if _, _, err := live.ReadMessage(); err != nil {
			var netErr interface{ Timeout() bool }
			if errors.As(err, &netErr) && netErr.Timeout() {
				t.Fatal("connection still open after hub stopped")
			}
			break
		}
	}

	stray := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 1)}
	unregistered := make(chan struct{})
	go func() {
		hub.unregister(stray)
		close(unregistered)
	}()
	select {
	case <-unregistered:
	case <-time.After(time.Second):
		t.Fatal("unregister blocked after hub stopped")
	}

	// A late connection is dropped without blocking its handler.
	late := dialWebSocket(t, server)
	select {
	case <-handlerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Start() blocked after hub stopped")
	}
	if err := late.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	if _, _, err := late.ReadMessage(); err == nil {
		t.Error("late connection should be closed")
	}
}
