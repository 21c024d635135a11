// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

/*
Package ingest records conversions reported by CPA networks.

A postback arrives as an HTTP request whose parameter names vary between
networks. FromRequest resolves the aliases once into a Postback, and
Service.Process authenticates the network, resolves the offer and appends
the lead.

Processing is idempotent per (network, external id): a repeated delivery
returns the lead recorded by the first one. The guarantee comes from the
storage UNIQUE constraint, so it holds across concurrent deliveries and
across processes.

Errors are reported through sentinels (ErrValidation, ErrUnauthorized,
ErrRateLimited, ErrNotFound, ErrInternal) that the HTTP layer maps to status
codes.
*/
package ingest
