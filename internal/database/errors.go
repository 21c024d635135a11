// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package database

import (
	"errors"
	"io"
	"strings"

	"github.com/duckdb/duckdb-go/v2"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tomtom215/cpapulse/internal/logging"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would violate a uniqueness rule or
	// remove a row that other rows still depend on.
	ErrConflict = errors.New("conflict")
)

// isUniqueViolation reports whether err is a unique constraint violation on
// either driver. DuckDB reports a violation found at commit time as a
// transaction error, so both error types are inspected.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	var duckErr *duckdb.Error
	if errors.As(err, &duckErr) {
		switch duckErr.Type {
		case duckdb.ErrorTypeConstraint, duckdb.ErrorTypeTransaction:
			return strings.Contains(msg, "duplicate key") ||
				strings.Contains(msg, "unique constraint")
		}
		return false
	}
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "violates primary key constraint")
}

// isWriteConflict reports whether err is a write-write conflict between
// concurrent transactions (DuckDB "Conflict on update", PostgreSQL
// serialization failure). The statement can be retried.
func isWriteConflict(err error) bool {
	if err == nil || isUniqueViolation(err) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := err.Error()
	var duckErr *duckdb.Error
	if errors.As(err, &duckErr) && duckErr.Type != duckdb.ErrorTypeTransaction {
		return false
	}
	return strings.Contains(msg, "Conflict on update") ||
		strings.Contains(msg, "Conflict on tuple deletion") ||
		strings.Contains(msg, "Transaction conflict")
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
