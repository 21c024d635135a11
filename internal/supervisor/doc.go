// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

/*
Package supervisor runs the long-lived services under a suture v4 tree.

The tree has three layers under a root supervisor:

	cpapulse (root)
	├── data-layer       change detector, stats pusher
	├── messaging-layer  websocket hub, relay, NATS forwarder (-tags nats)
	└── api-layer        HTTP server

A service that returns an error or panics is restarted with backoff. A crash
in one layer does not stop the others: the API keeps serving while a failed
detector is restarted.

Supervisor events (restarts, backoff, timeouts) are logged through
sutureslog, fed by logging.NewSlogLogger so they share the zerolog output.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg.Supervisor)
	tree.AddDataService(detector)
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
	err = tree.Serve(ctx)
	tree.LogUnstoppedServices()
*/
package supervisor
