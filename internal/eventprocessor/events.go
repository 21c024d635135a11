// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package eventprocessor

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cpapulse/internal/models"
)

// TopicActivity is the bus topic for new clicks and leads.
const TopicActivity = "cpa.activity"

// MetadataKind is the message metadata key holding the event kind.
const MetadataKind = "kind"

// ValidateEvent checks that ev has a known kind and an item id.
func ValidateEvent(ev models.ActivityEvent) error {
	switch ev.Kind {
	case models.ActivityClick, models.ActivityLead:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, ev.Kind)
	}
	if ev.Item.ID == "" {
		return fmt.Errorf("%w: missing item id", ErrInvalidEvent)
	}
	return nil
}

// EncodeEvent converts ev to a Watermill message with a fresh UUID.
func EncodeEvent(ev models.ActivityEvent) (*message.Message, error) {
	if err := ValidateEvent(ev); err != nil {
		return nil, err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetadataKind, string(ev.Kind))
	return msg, nil
}

// DecodeEvent parses a message produced by EncodeEvent.
func DecodeEvent(msg *message.Message) (models.ActivityEvent, error) {
	var ev models.ActivityEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal event %s: %w", msg.UUID, err)
	}
	if err := ValidateEvent(ev); err != nil {
		return ev, err
	}
	return ev, nil
}
