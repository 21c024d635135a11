// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

// Package eventprocessor carries activity events from the change detector to
// their consumers.
//
// The in-process Bus is a Watermill gochannel pub/sub on the topic
// "cpa.activity". Publish blocks until every subscriber has acked, so events
// published in sequence are delivered in sequence:
//
//	changefeed.Detector ──► Bus ──► websocket.Relay ──► Hub ──► clients
//	                         │
//	                         └────► Forwarder ──► NATS JetStream (-tags nats)
//
// Events are JSON encoded with goccy/go-json. The message metadata carries
// the event kind so consumers can route without decoding.
//
// # NATS
//
// Builds with -tags nats can mirror every event to a NATS subject, either on
// an external server or on an embedded JetStream server. The NATS publisher
// runs behind a circuit breaker so a broker outage fails fast instead of
// stalling the bus. Without the tag, the constructors return
// ErrNATSNotEnabled.
package eventprocessor
