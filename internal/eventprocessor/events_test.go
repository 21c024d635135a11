// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package eventprocessor

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/cpapulse/internal/models"
)

func leadEvent(id string, revenue float64) models.ActivityEvent {
	return models.ActivityEvent{
		Kind: models.ActivityLead,
		Item: models.ActivityItem{
			ID:        id,
			SubID:     "sub1",
			Country:   "US",
			OfferName: "Email Submit Offer",
			Revenue:   &revenue,
			CreatedAt: "2026-03-01T12:00:00.000Z",
		},
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	ev := leadEvent("lead-1", 2.5)

	msg, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}
	if msg.UUID == "" {
		t.Error("message UUID should be set")
	}
	if got := msg.Metadata.Get(MetadataKind); got != "lead" {
		t.Errorf("kind metadata = %q, want lead", got)
	}

	got, err := DecodeEvent(msg)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	if got.Kind != ev.Kind || got.Item.ID != ev.Item.ID || got.Item.OfferName != ev.Item.OfferName {
		t.Errorf("DecodeEvent() = %+v, want %+v", got, ev)
	}
	if got.Item.Revenue == nil || *got.Item.Revenue != 2.5 {
		t.Errorf("revenue = %v, want 2.5", got.Item.Revenue)
	}
}

func TestEncodeEvent_Invalid(t *testing.T) {
	tests := []struct {
		name string
		ev   models.ActivityEvent
	}{
		{"unknown kind", models.ActivityEvent{Kind: "view", Item: models.ActivityItem{ID: "x"}}},
		{"empty kind", models.ActivityEvent{Item: models.ActivityItem{ID: "x"}}},
		{"missing id", models.ActivityEvent{Kind: models.ActivityClick}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EncodeEvent(tt.ev); !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("EncodeEvent() error = %v, want ErrInvalidEvent", err)
			}
		})
	}
}

func TestDecodeEvent_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "{"},
		{"bad kind", `{"kind":"view","item":{"id":"1"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := message.NewMessage("m1", []byte(tt.payload))
			if _, err := DecodeEvent(msg); err == nil {
				t.Error("DecodeEvent() should fail")
			}
		})
	}
}
