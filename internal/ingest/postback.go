// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package ingest

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Defaults applied when a postback omits a field.
const (
	DefaultCountry   = "US"
	DefaultStatus    = "approved"
	DefaultUserAgent = "unknown"
)

// Parameter aliases, first match wins.
var (
	networkAliases    = []string{"network", "net"}
	apiKeyAliases     = []string{"api_key"}
	externalIDAliases = []string{"external_id", "offer_id"}
	subIDAliases      = []string{"subid", "sub_id", "subid1"}
	revenueAliases    = []string{"revenue", "payout"}
	countryAliases    = []string{"country", "ctry"}
	statusAliases     = []string{"status"}
	ipAliases         = []string{"ip"}
)

// Postback is a conversion report with its parameter aliases resolved.
type Postback struct {
	Network    string
	APIKey     string
	ExternalID string
	SubID      string
	// Revenue is nil when absent or malformed.
	Revenue   *float64
	Country   string
	Status    string
	IP        string
	UserAgent string
}

// lookup returns the first non-empty value among names.
type lookup func(name string) string

func firstOf(get lookup, names []string) string {
	for _, name := range names {
		if v := get(name); v != "" {
			return v
		}
	}
	return ""
}

// FromRequest resolves a postback from the query string and, for POST
// requests, the form body. Query parameters take precedence.
func FromRequest(r *http.Request) Postback {
	query := r.URL.Query()
	get := func(name string) string {
		if v := query.Get(name); v != "" {
			return v
		}
		if r.Method != http.MethodPost {
			return ""
		}
		if r.PostForm == nil {
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				_ = r.ParseMultipartForm(1 << 20)
			} else {
				_ = r.ParseForm()
			}
		}
		return r.PostForm.Get(name)
	}

	p := Postback{
		Network:    firstOf(get, networkAliases),
		APIKey:     firstOf(get, apiKeyAliases),
		ExternalID: firstOf(get, externalIDAliases),
		SubID:      firstOf(get, subIDAliases),
		Revenue:    ParseRevenue(firstOf(get, revenueAliases)),
		Country:    firstOf(get, countryAliases),
		Status:     firstOf(get, statusAliases),
		IP:         firstOf(get, ipAliases),
		UserAgent:  r.Header.Get("User-Agent"),
	}

	if p.Country == "" {
		p.Country = DefaultCountry
	}
	if p.Status == "" {
		p.Status = DefaultStatus
	}
	if p.UserAgent == "" {
		p.UserAgent = DefaultUserAgent
	}
	if p.IP == "" {
		p.IP = ClientIP(r)
	}
	return p
}

// ClientIP returns the first X-Forwarded-For entry or the remote address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ParseRevenue parses a revenue value. Empty, non-numeric, NaN, infinite
// and negative values yield nil.
func ParseRevenue(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return &v
}
