// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

//go:build nats

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cpapulse/internal/config"
	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/metrics"
)

// ActivityStream is the JetStream stream holding forwarded activity.
const ActivityStream = "CPA_ACTIVITY"

const activityRetention = 7 * 24 * time.Hour

// Forwarder mirrors every bus event to a NATS subject.
// It implements suture.Service.
type Forwarder struct {
	bus       *Bus
	publisher *NATSPublisher
	subject   string
}

// Serve subscribes to the bus and forwards until ctx is done or the bus
// closes. Every message is acked whether or not forwarding succeeded, so a
// broker outage never blocks the detector.
func (f *Forwarder) Serve(ctx context.Context) error {
	msgs, err := f.bus.Subscribe(ctx)
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
			f.forward(msg)
			msg.Ack()
		}
	}
}

func (f *Forwarder) forward(msg *message.Message) {
	err := f.publisher.Publish(f.subject, msg.Copy())
	metrics.RecordNATSForward(err)
	if err == nil || errors.Is(err, gobreaker.ErrOpenState) {
		return
	}
	logging.Warn().Err(err).
		Str("message_id", msg.UUID).
		Str("subject", f.subject).
		Msg("Failed to forward activity event to NATS")
}

// String names the service in supervisor logs.
func (f *Forwarder) String() string {
	return "nats-forwarder"
}

// NATSBridge owns the NATS side of event forwarding.
type NATSBridge struct {
	server    *EmbeddedServer
	publisher *NATSPublisher
	forwarder *Forwarder
}

// StartNATS starts the embedded server when configured, ensures the
// activity stream exists and prepares a Forwarder for bus.
func StartNATS(ctx context.Context, cfg config.NATSConfig, bus *Bus, logger watermill.LoggerAdapter) (*NATSBridge, error) {
	b := &NATSBridge{}

	url := cfg.URL
	if cfg.EmbeddedServer {
		srv, err := NewEmbeddedServer(cfg.StoreDir)
		if err != nil {
			return nil, err
		}
		b.server = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	if err := ensureStream(ctx, url, cfg.Subject); err != nil {
		b.Close(ctx)
		return nil, err
	}

	pub, err := NewNATSPublisher(cfg, url, logger)
	if err != nil {
		b.Close(ctx)
		return nil, err
	}
	b.publisher = pub
	b.forwarder = &Forwarder{bus: bus, publisher: pub, subject: cfg.Subject}
	return b, nil
}

// Forwarder returns the supervised forwarding service.
func (b *NATSBridge) Forwarder() *Forwarder {
	return b.forwarder
}

// Close stops the publisher and the embedded server.
func (b *NATSBridge) Close(ctx context.Context) {
	if b.publisher != nil {
		if err := b.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing NATS publisher")
		}
	}
	if b.server != nil {
		if err := b.server.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Error stopping embedded NATS server")
		}
	}
}

func ensureStream(ctx context.Context, url, subject string) error {
	nc, err := natsgo.Connect(url, natsgo.Timeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      ActivityStream,
		Subjects:  []string{subject},
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
		Discard:   jetstream.DiscardOld,
		MaxAge:    activityRetention,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", ActivityStream, err)
	}
	return nil
}
