// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package eventprocessor

import "errors"

// ErrNATSNotEnabled is returned when NATS features are used without the nats build tag.
var ErrNATSNotEnabled = errors.New("NATS event forwarding not enabled (build with -tags nats)")

// ErrInvalidEvent is returned for events with an unknown kind or no id.
var ErrInvalidEvent = errors.New("invalid activity event")
