// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/tomtom215/cpapulse/internal/models"
)

func TestNetworks_CRUD(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/networks", `{"name":"acme","displayName":"Acme Ads","apiKey":"key-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[models.Network](t, rec)
	if created.ID == "" || created.Status != models.StatusActive {
		t.Fatalf("created = %+v", created)
	}

	rec = do(t, router, http.MethodGet, "/api/networks/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if got := decodeBody[models.Network](t, rec); got.DisplayName != "Acme Ads" {
		t.Errorf("displayName = %q", got.DisplayName)
	}

	rec = do(t, router, http.MethodPut, "/api/networks/"+created.ID, `{"name":"acme","apiKey":"key-2","status":"inactive"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[models.Network](t, rec); got.APIKey != "key-2" || got.Status != "inactive" {
		t.Errorf("updated = %+v", got)
	}

	list := decodeBody[[]models.Network](t, do(t, router, http.MethodGet, "/api/networks", ""))
	if len(list) != 1 {
		t.Errorf("list = %d networks, want 1", len(list))
	}

	rec = do(t, router, http.MethodDelete, "/api/networks/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[MessageResponse](t, rec); got.Message != "Network deleted successfully" {
		t.Errorf("delete message = %q", got.Message)
	}

	rec = do(t, router, http.MethodGet, "/api/networks/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
	if got := decodeBody[ErrorResponse](t, rec); got.Error != "Network not found" {
		t.Errorf("error = %q", got.Error)
	}
}

func TestNetworks_Errors(t *testing.T) {
	h, router := setupTestHandler(t)
	mustNetwork(t, h, "acme", "key-1")

	tests := []struct {
		name        string
		method      string
		target      string
		body        string
		wantStatus  int
		wantDetails []string
	}{
		{
			name:       "malformed body",
			method:     http.MethodPost,
			target:     "/api/networks",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "missing fields",
			method:      http.MethodPost,
			target:      "/api/networks",
			body:        `{"postbackUrl":"not a url"}`,
			wantStatus:  http.StatusBadRequest,
			wantDetails: []string{"name", "apiKey", "postbackUrl"},
		},
		{
			name:       "duplicate name",
			method:     http.MethodPost,
			target:     "/api/networks",
			body:       `{"name":"acme","apiKey":"other"}`,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "update unknown",
			method:     http.MethodPut,
			target:     "/api/networks/missing",
			body:       `{"name":"x","apiKey":"y"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "delete unknown",
			method:     http.MethodDelete,
			target:     "/api/networks/missing",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if len(tt.wantDetails) == 0 {
				return
			}
			body := decodeBody[ErrorResponse](t, rec)
			fields := map[string]bool{}
			for _, d := range body.Details {
				fields[d.Field] = true
			}
			for _, want := range tt.wantDetails {
				if !fields[want] {
					t.Errorf("details missing field %q: %+v", want, body.Details)
				}
			}
		})
	}
}

func TestDeleteNetwork_WithLeadsConflicts(t *testing.T) {
	h, router := setupTestHandler(t)
	network := mustNetwork(t, h, "acme", "key-1")
	mustNetworkOffer(t, h, network.ID, "ext-1", "Summer Promo", 10)

	rec := do(t, router, http.MethodGet, "/api/postback?network=acme&api_key=key-1&external_id=ext-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("postback status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodDelete, "/api/networks/"+network.ID, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("delete status = %d, want 409", rec.Code)
	}
}

func TestCreateNetworkOffer_LinksOffer(t *testing.T) {
	h, router := setupTestHandler(t)
	network := mustNetwork(t, h, "acme", "key-1")
	existing := mustOffer(t, h, "Summer Promo 2026")

	body := `{"networkId":"` + network.ID + `","externalId":"ext-1","name":"Summer Promo","payout":7.5}`
	rec := do(t, router, http.MethodPost, "/api/networks/offers", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[models.NetworkOffer](t, rec)
	if created.OfferID == nil || *created.OfferID != existing.ID {
		t.Errorf("offerId = %v, want %s", created.OfferID, existing.ID)
	}

	rec = do(t, router, http.MethodPost, "/api/networks/offers", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	offers := decodeBody[[]models.NetworkOffer](t, do(t, router, http.MethodGet, "/api/networks/offers", ""))
	if len(offers) != 1 {
		t.Fatalf("offers = %d, want 1", len(offers))
	}
	if offers[0].Network == nil || offers[0].Network.Name != "acme" {
		t.Errorf("offer network = %+v", offers[0].Network)
	}

	stored, err := h.db.FindActiveNetworkOffer(context.Background(), network.ID, "ext-1")
	if err != nil {
		t.Fatalf("FindActiveNetworkOffer() error = %v", err)
	}
	if stored.OfferID == nil || *stored.OfferID != existing.ID {
		t.Errorf("stored link = %v, want %s", stored.OfferID, existing.ID)
	}
}

func TestCreateNetworkOffer_UnknownNetwork(t *testing.T) {
	_, router := setupTestHandler(t)

	body := `{"networkId":"5f0c3c3e-8a47-4b0e-9b1a-2f6d7c8e9a01","externalId":"ext-1","name":"Promo","payout":1}`
	rec := do(t, router, http.MethodPost, "/api/networks/offers", body)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 (body %s)", rec.Code, rec.Body.String())
	}
}
