// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

/*
Package websocket pushes live dashboard updates to connected clients.

Key Components:

  - Hub: owns the client registry and fans messages out to every client
  - Client: one connection with a read pump and a write pump
  - Relay: bus subscriber that turns activity events into new_click and
    new_lead messages
  - StatsPusher: periodically broadcasts the current day's stats snapshot

Architecture:

	changefeed ──► eventprocessor.Bus ──► Relay ──┐
	                                              ├──► Hub ──► Client ──► browser
	stats.Engine ◄── StatsPusher ─────────────────┘

Message Types:

Every message is {"type": ..., "data": ...}:

  - stats_update: a full models.StatsSnapshot replacing the client's copy
  - new_click: a models.ActivityItem for a click
  - new_lead: a models.ActivityItem for a lead, with revenue

A client that connects receives the most recent stats_update straight away,
then live messages. There is no backlog replay.

Backpressure:

BroadcastJSON never blocks. If the hub queue is full the message is dropped
with a warning. If a client's send buffer is full the client is closed and
removed; its browser reconnects and picks up the cached snapshot.

The Hub, Relay and StatsPusher implement suture.Service.
*/
package websocket
