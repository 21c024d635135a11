// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

/*
Package services adapts components that do not already speak suture's
Serve(ctx) pattern.

The detector, hub, relay, stats pusher and NATS forwarder implement
suture.Service themselves and are added to the tree directly. The HTTP
server needs translating from ListenAndServe/Shutdown:

	server := &http.Server{Addr: cfg.Server.Addr(), Handler: router}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
*/
package services
