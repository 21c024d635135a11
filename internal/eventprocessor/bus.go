// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/cpapulse/internal/models"
)

// Bus is the in-process activity event bus.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates a bus. A nil logger discards Watermill's own logging.
func NewBus(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			BlockPublishUntilSubscriberAck: true,
		}, logger),
	}
}

// PublishActivity publishes ev to TopicActivity and returns once every
// current subscriber has acked it. With no subscribers the event is dropped.
func (b *Bus) PublishActivity(ctx context.Context, ev models.ActivityEvent) error {
	msg, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)
	if err := b.pubsub.Publish(TopicActivity, msg); err != nil {
		return fmt.Errorf("publish %s event %s: %w", ev.Kind, ev.Item.ID, err)
	}
	return nil
}

// Subscribe returns a channel of activity messages. Each message must be
// acked (or nacked for redelivery). The subscription ends when ctx is done.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	msgs, err := b.pubsub.Subscribe(ctx, TopicActivity)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", TopicActivity, err)
	}
	return msgs, nil
}

// Close closes the bus and all subscription channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
