// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

//go:build !nats

package eventprocessor

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/cpapulse/internal/config"
)

// Forwarder is a stub when NATS support is not compiled in.
type Forwarder struct{}

// Serve returns ErrNATSNotEnabled.
func (f *Forwarder) Serve(_ context.Context) error {
	return ErrNATSNotEnabled
}

// String names the service in supervisor logs.
func (f *Forwarder) String() string {
	return "nats-forwarder"
}

// NATSBridge is a stub when NATS support is not compiled in.
type NATSBridge struct{}

// StartNATS returns ErrNATSNotEnabled. Build with -tags nats.
func StartNATS(_ context.Context, _ config.NATSConfig, _ *Bus, _ watermill.LoggerAdapter) (*NATSBridge, error) {
	return nil, ErrNATSNotEnabled
}

// Forwarder returns nil.
func (b *NATSBridge) Forwarder() *Forwarder {
	return nil
}

// Close is a no-op.
func (b *NATSBridge) Close(_ context.Context) {}
