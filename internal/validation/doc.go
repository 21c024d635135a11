// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

/*
Package validation validates management request bodies with
go-playground/validator v10.

A single validator instance is shared (it caches struct metadata). Field
names in errors are taken from the json tag so that messages name the field
the client actually sent:

	type NetworkInput struct {
	    Name   string `json:"name" validate:"required,max=100"`
	    Status string `json:"status" validate:"omitempty,oneof=active inactive"`
	}

	if verr := validation.ValidateStruct(&in); verr != nil {
	    respondValidationError(w, verr) // 400 {"error": ..., "details": verr.Details()}
	}
*/
package validation
