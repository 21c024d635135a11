// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/cpapulse/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct_NetworkInput(t *testing.T) {
	valid := models.NetworkInput{Name: "acme", APIKey: "k", PostbackURL: "https://acme.example/pb", Status: "active"}

	tests := []struct {
		name      string
		mutate    func(*models.NetworkInput)
		wantField string
		wantTag   string
	}{
		{name: "valid", mutate: func(*models.NetworkInput) {}},
		{name: "empty optional fields", mutate: func(in *models.NetworkInput) { in.PostbackURL, in.Status = "", "" }},
		{name: "missing name", mutate: func(in *models.NetworkInput) { in.Name = "" }, wantField: "name", wantTag: "required"},
		{name: "long name", mutate: func(in *models.NetworkInput) { in.Name = strings.Repeat("n", 101) }, wantField: "name", wantTag: "max"},
		{name: "missing api key", mutate: func(in *models.NetworkInput) { in.APIKey = "" }, wantField: "apiKey", wantTag: "required"},
		{name: "bad url", mutate: func(in *models.NetworkInput) { in.PostbackURL = "not a url" }, wantField: "postbackUrl", wantTag: "url"},
		{name: "bad status", mutate: func(in *models.NetworkInput) { in.Status = "paused" }, wantField: "status", wantTag: "oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			verr := ValidateStruct(&in)

			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			details := verr.Details()
			if len(details) != 1 {
				t.Fatalf("details = %+v, want one entry", details)
			}
			if details[0].Field != tt.wantField || details[0].Tag != tt.wantTag {
				t.Errorf("detail = %s/%s, want %s/%s", details[0].Field, details[0].Tag, tt.wantField, tt.wantTag)
			}
			if !strings.HasPrefix(details[0].Message, tt.wantField) {
				t.Errorf("message %q should start with the field name", details[0].Message)
			}
		})
	}
}

func TestValidateStruct_NetworkOfferInput(t *testing.T) {
	tests := []struct {
		name     string
		in       models.NetworkOfferInput
		wantTags []string
	}{
		{
			name: "valid",
			in:   models.NetworkOfferInput{NetworkID: "5b0e8a8e-4c43-4c1c-9d0f-3f2b7f0c2a11", ExternalID: "ext-1", Name: "Email Submit", Payout: 2.5},
		},
		{
			name:     "bad network id and negative payout",
			in:       models.NetworkOfferInput{NetworkID: "net-1", ExternalID: "ext-1", Name: "Email Submit", Payout: -1},
			wantTags: []string{"uuid", "gte"},
		},
		{
			name:     "everything missing",
			in:       models.NetworkOfferInput{},
			wantTags: []string{"required", "required", "required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.in)
			if len(tt.wantTags) == 0 {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			var tags []string
			for _, d := range verr.Details() {
				tags = append(tags, d.Tag)
			}
			if strings.Join(tags, ",") != strings.Join(tt.wantTags, ",") {
				t.Errorf("tags = %v, want %v", tags, tt.wantTags)
			}
		})
	}
}

func TestRequestValidationError_Error(t *testing.T) {
	verr := &RequestValidationError{errors: []FieldError{
		{Message: "name is required"},
		{Message: "apiKey is required"},
	}}
	if got := verr.Error(); got != "name is required; apiKey is required" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&RequestValidationError{}).Error(); got != "validation failed" {
		t.Errorf("empty Error() = %q", got)
	}
}
