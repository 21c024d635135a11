// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cpapulse/internal/config"
	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/metrics"
	"github.com/tomtom215/cpapulse/internal/models"
)

// Message types sent to clients.
const (
	MessageTypeStatsUpdate = "stats_update"
	MessageTypeNewClick    = "new_click"
	MessageTypeNewLead     = "new_lead"
)

const (
	defaultHubBuffer    = 256
	defaultClientBuffer = 256
)

// Message is the envelope for every message sent to clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	// done is closed when Serve returns; lifecycle sends select on it.
	done     chan struct{}
	doneOnce sync.Once

	clientBuffer int

	snapshotMu sync.RWMutex
	snapshot   *Message
}

// NewHub creates a hub sized from cfg.
func NewHub(cfg config.BroadcastConfig) *Hub {
	if cfg.HubBuffer <= 0 {
		cfg.HubBuffer = defaultHubBuffer
	}
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = defaultClientBuffer
	}
	return &Hub{
		clients:      make(map[*Client]bool),
		broadcast:    make(chan Message, cfg.HubBuffer),
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
		done:         make(chan struct{}),
		clientBuffer: cfg.ClientBuffer,
	}
}

// Serve runs the hub until ctx is done, then closes every client.
//
// Client lifecycle events are handled before queued broadcasts so a client
// registered before a broadcast was queued always receives it.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// String names the service in supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(count))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", count).Msg("websocket client connected")

	if snap := h.cachedSnapshot(); snap != nil {
		select {
		case client.send <- *snap:
		default:
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(count))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", count).Msg("websocket client disconnected")
}

// sortedClients returns the registry ordered by client id. Callers hold h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients sends message to every client without blocking. A
// client whose buffer is full is closed and removed.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var dropped []*Client
	for _, client := range h.sortedClients() {
		select {
		case client.send <- message:
		default:
			dropped = append(dropped, client)
		}
	}

	for _, client := range dropped {
		close(client.send)
		delete(h.clients, client)
		metrics.WebSocketDroppedClients.Inc()
		logging.Warn().Uint64("client_id", client.id).Msg("websocket client send buffer full, dropping client")
	}
	if len(dropped) > 0 {
		metrics.WebSocketClients.Set(float64(len(h.clients)))
	}
	metrics.RecordBroadcast(message.Type)
}

func (h *Hub) shutdown() {
	h.doneOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	clients := h.sortedClients()
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WebSocketClients.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// register hands client to the run loop. It reports false once the hub has
// stopped.
func (h *Hub) register(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// unregister hands client to the run loop, or returns once the hub has
// stopped; shutdown has already released every client then.
func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// BroadcastJSON queues a message for every connected client. It never
// blocks; when the queue is full the message is dropped.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := Message{Type: messageType, Data: data}
	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastStats caches snap for clients that connect later and, when any
// client is connected, broadcasts it as stats_update.
func (h *Hub) BroadcastStats(snap models.StatsSnapshot) {
	message := Message{Type: MessageTypeStatsUpdate, Data: snap}

	h.snapshotMu.Lock()
	h.snapshot = &message
	h.snapshotMu.Unlock()

	if h.ClientCount() == 0 {
		return
	}
	h.BroadcastJSON(MessageTypeStatsUpdate, snap)
}

func (h *Hub) cachedSnapshot() *Message {
	h.snapshotMu.RLock()
	defer h.snapshotMu.RUnlock()
	return h.snapshot
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
