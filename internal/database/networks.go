// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/cpapulse/internal/logging"
	"github.com/tomtom215/cpapulse/internal/models"
)

const networkColumns = `id, name, COALESCE(display_name, ''), api_key, COALESCE(api_secret, ''),
	COALESCE(postback_url, ''), status, created_at, updated_at`

const networkOfferColumns = `id, network_id, external_id, name, payout, status, offer_id, created_at, updated_at`

func scanNetwork(row rowScanner) (models.Network, error) {
	var n models.Network
	err := row.Scan(&n.ID, &n.Name, &n.DisplayName, &n.APIKey, &n.APISecret,
		&n.PostbackURL, &n.Status, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func scanNetworkOffer(row rowScanner) (models.NetworkOffer, error) {
	var (
		o       models.NetworkOffer
		offerID sql.NullString
	)
	err := row.Scan(&o.ID, &o.NetworkID, &o.ExternalID, &o.Name, &o.Payout,
		&o.Status, &offerID, &o.CreatedAt, &o.UpdatedAt)
	o.OfferID = stringPtr(offerID)
	return o, err
}

// ListNetworks returns all networks newest first, each with its active
// offers.
func (db *DB) ListNetworks(ctx context.Context) (networks []models.Network, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("list_networks", start, err) }(time.Now())

	networks, err = queryAndScan(ctx, db.conn,
		`SELECT `+networkColumns+` FROM networks ORDER BY created_at DESC, id`,
		nil, scanNetwork)
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}

	offers, err := queryAndScan(ctx, db.conn,
		`SELECT `+networkOfferColumns+` FROM network_offers WHERE status = $1 ORDER BY created_at DESC, id`,
		[]interface{}{models.StatusActive}, scanNetworkOffer)
	if err != nil {
		return nil, fmt.Errorf("failed to list network offers: %w", err)
	}

	byNetwork := make(map[string][]models.NetworkOffer, len(networks))
	for _, o := range offers {
		byNetwork[o.NetworkID] = append(byNetwork[o.NetworkID], o)
	}
	for i := range networks {
		networks[i].Offers = byNetwork[networks[i].ID]
		if networks[i].Offers == nil {
			networks[i].Offers = []models.NetworkOffer{}
		}
	}
	return networks, nil
}

// GetNetwork returns one network with all of its offers.
func (db *DB) GetNetwork(ctx context.Context, id string) (*models.Network, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	n, err := scanNetwork(db.conn.QueryRowContext(ctx,
		`SELECT `+networkColumns+` FROM networks WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("network %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get network: %w", err)
	}

	n.Offers, err = queryAndScan(ctx, db.conn,
		`SELECT `+networkOfferColumns+` FROM network_offers WHERE network_id = $1 ORDER BY created_at DESC, id`,
		[]interface{}{id}, scanNetworkOffer)
	if err != nil {
		return nil, fmt.Errorf("failed to get network offers: %w", err)
	}
	return &n, nil
}

// FindActiveNetwork returns the active network matching name and apiKey.
func (db *DB) FindActiveNetwork(ctx context.Context, name, apiKey string) (n *models.Network, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("find_network", start, err) }(time.Now())

	found, err := scanNetwork(db.conn.QueryRowContext(ctx,
		`SELECT `+networkColumns+` FROM networks WHERE name = $1 AND api_key = $2 AND status = $3`,
		name, apiKey, models.StatusActive))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find network: %w", err)
	}
	return &found, nil
}

// CreateNetwork inserts an active network. A duplicate name is ErrConflict.
func (db *DB) CreateNetwork(ctx context.Context, in models.NetworkInput) (*models.Network, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := db.utcNow()
	n := models.Network{
		ID:          uuid.New().String(),
		Name:        in.Name,
		DisplayName: in.DisplayName,
		APIKey:      in.APIKey,
		APISecret:   in.APISecret,
		PostbackURL: in.PostbackURL,
		Status:      models.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		Offers:      []models.NetworkOffer{},
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO networks (id, name, display_name, api_key, api_secret, postback_url, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.Name, nullString(n.DisplayName), n.APIKey, nullString(n.APISecret),
		nullString(n.PostbackURL), n.Status, n.CreatedAt, n.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("network %q already exists: %w", in.Name, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}
	return &n, nil
}

// UpdateNetwork replaces the mutable fields of a network. An empty status
// keeps the current one.
func (db *DB) UpdateNetwork(ctx context.Context, id string, in models.NetworkInput) (*models.Network, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	current, err := db.GetNetwork(ctx, id)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = current.Status
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE networks SET name = $1, display_name = $2, api_key = $3, api_secret = $4,
		 postback_url = $5, status = $6, updated_at = $7 WHERE id = $8`,
		in.Name, nullString(in.DisplayName), in.APIKey, nullString(in.APISecret),
		nullString(in.PostbackURL), status, db.utcNow(), id)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("network %q already exists: %w", in.Name, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update network: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("network %s: %w", id, ErrNotFound)
	}
	return db.GetNetwork(ctx, id)
}

// DeleteNetwork removes a network and its offers. A network that already
// has leads cannot be deleted and yields ErrConflict.
func (db *DB) DeleteNetwork(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM networks WHERE id = $1`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check network: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("network %s: %w", id, ErrNotFound)
		}

		var leads int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE network_id = $1`, id).Scan(&leads); err != nil {
			return fmt.Errorf("failed to count network leads: %w", err)
		}
		if leads > 0 {
			return fmt.Errorf("network %s has %d leads: %w", id, leads, ErrConflict)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM network_offers WHERE network_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete network offers: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM networks WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete network: %w", err)
		}
		return nil
	})
}

// ListNetworkOffers returns every network offer newest first with its
// network attached.
func (db *DB) ListNetworkOffers(ctx context.Context) ([]models.NetworkOffer, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	offers, err := queryAndScan(ctx, db.conn,
		`SELECT `+networkOfferColumns+` FROM network_offers ORDER BY created_at DESC, id`,
		nil, scanNetworkOffer)
	if err != nil {
		return nil, fmt.Errorf("failed to list network offers: %w", err)
	}

	networks, err := queryAndScan(ctx, db.conn, `SELECT `+networkColumns+` FROM networks`, nil, scanNetwork)
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", err)
	}
	byID := make(map[string]*models.Network, len(networks))
	for i := range networks {
		byID[networks[i].ID] = &networks[i]
	}
	for i := range offers {
		offers[i].Network = byID[offers[i].NetworkID]
	}
	return offers, nil
}

// CreateNetworkOffer inserts an active network offer. It returns ErrNotFound
// when the network does not exist and ErrConflict when the network already
// has an offer with the same external id.
func (db *DB) CreateNetworkOffer(ctx context.Context, in models.NetworkOfferInput) (*models.NetworkOffer, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := db.utcNow()
	o := models.NetworkOffer{
		ID:         uuid.New().String(),
		NetworkID:  in.NetworkID,
		ExternalID: in.ExternalID,
		Name:       in.Name,
		Payout:     in.Payout,
		Status:     models.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var networks, dupes int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM networks WHERE id = $1`, in.NetworkID).Scan(&networks); err != nil {
			return fmt.Errorf("failed to check network: %w", err)
		}
		if networks == 0 {
			return fmt.Errorf("network %s: %w", in.NetworkID, ErrNotFound)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM network_offers WHERE network_id = $1 AND external_id = $2`,
			in.NetworkID, in.ExternalID).Scan(&dupes); err != nil {
			return fmt.Errorf("failed to check network offer: %w", err)
		}
		if dupes > 0 {
			return fmt.Errorf("offer %q already exists for network: %w", in.ExternalID, ErrConflict)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO network_offers (id, network_id, external_id, name, payout, status, offer_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NULL, $7, $8)`,
			o.ID, o.NetworkID, o.ExternalID, o.Name, o.Payout, o.Status, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create network offer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// FindActiveNetworkOffer returns the earliest created active offer of a
// network with the given external id.
func (db *DB) FindActiveNetworkOffer(ctx context.Context, networkID, externalID string) (o *models.NetworkOffer, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("find_network_offer", start, err) }(time.Now())

	found, err := scanNetworkOffer(db.conn.QueryRowContext(ctx,
		`SELECT `+networkOfferColumns+` FROM network_offers
		 WHERE network_id = $1 AND external_id = $2 AND status = $3
		 ORDER BY created_at, id LIMIT 1`,
		networkID, externalID, models.StatusActive))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find network offer: %w", err)
	}
	return &found, nil
}

// LinkNetworkOffer sets offer_id on a network offer that has none. It
// reports whether the link was written; an existing link is never replaced.
// A link that keeps losing write conflicts reports false so the caller
// re-reads the row.
func (db *DB) LinkNetworkOffer(ctx context.Context, networkOfferID, offerID string) (linked bool, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer func(start time.Time) { observe("link_network_offer", start, err) }(time.Now())

	err = retryOnConflict(ctx, func() error {
		res, err := db.conn.ExecContext(ctx,
			`UPDATE network_offers SET offer_id = $1, updated_at = $2 WHERE id = $3 AND offer_id IS NULL`,
			offerID, db.utcNow(), networkOfferID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		linked = n > 0
		return nil
	})
	if isWriteConflict(err) {
		logging.Ctx(ctx).Warn().Err(err).Str("network_offer_id", networkOfferID).Msg("Network offer link kept conflicting")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to link network offer: %w", err)
	}
	return linked, nil
}
