// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package websocket

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/cpapulse/internal/eventprocessor"
	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/models"
)

// ActivitySource provides the activity event stream.
type ActivitySource interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// Relay forwards activity events from the bus to the hub.
type Relay struct {
	source ActivitySource
	hub    *Hub
}

// NewRelay creates a relay from source to hub.
func NewRelay(source ActivitySource, hub *Hub) *Relay {
	return &Relay{source: source, hub: hub}
}

// Serve relays until ctx is done or the source closes. Each message is
// acked once it is queued on the hub; undecodable messages are acked and
// dropped so they are not redelivered.
func (r *Relay) Serve(ctx context.Context) error {
	msgs, err := r.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			r.relay(msg)
			msg.Ack()
		}
	}
}

// String names the service in supervisor logs.
func (r *Relay) String() string {
	return "websocket-relay"
}

func (r *Relay) relay(msg *message.Message) {
	ev, err := eventprocessor.DecodeEvent(msg)
	if err != nil {
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping undecodable activity event")
		return
	}

	messageType := MessageTypeNewClick
	if ev.Kind == models.ActivityLead {
		messageType = MessageTypeNewLead
	}
	r.hub.BroadcastJSON(messageType, ev.Item)
}
