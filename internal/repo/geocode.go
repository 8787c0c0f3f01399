// Package repo contains all database access logic for the match results service.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/match-results/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GeocodeRepo persists reverse geocode answers keyed by exact coordinates.
// It satisfies geocode.Cache.
type GeocodeRepo interface {
	// Get returns the stored answer for (lat, lng) if it was resolved within
	// maxAge. maxAge <= 0 accepts any age.
	// Returns domain.ErrNotFound on a miss or an expired entry.
	Get(ctx context.Context, lat, lng float64, maxAge time.Duration) (domain.GeocodeResult, error)

	// Put inserts or replaces the answer for (lat, lng) and stamps it with now().
	Put(ctx context.Context, lat, lng float64, res domain.GeocodeResult) error

	// Prune deletes entries resolved before cutoff and returns how many went.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// pgGeocodeRepo is the Postgres implementation of GeocodeRepo.
type pgGeocodeRepo struct {
	db db
}

// NewGeocodeRepo constructs a GeocodeRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewGeocodeRepo(db db) GeocodeRepo {
	return &pgGeocodeRepo{db: db}
}

// Get looks up a cached answer.
func (r *pgGeocodeRepo) Get(ctx context.Context, lat, lng float64, maxAge time.Duration) (domain.GeocodeResult, error) {
	const q = `
		SELECT status, formatted_address, resolved_at
		FROM geocodes
		WHERE lat = @lat AND lng = @lng`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"lat": lat, "lng": lng})
	res, resolvedAt, err := scanGeocode(row)
	if err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("repo.GeocodeRepo.Get: %w", err)
	}
	if maxAge > 0 && time.Since(resolvedAt) > maxAge {
		return domain.GeocodeResult{}, fmt.Errorf("repo.GeocodeRepo.Get: expired: %w", domain.ErrNotFound)
	}
	return res, nil
}

// Put upserts an answer. A re-resolved coordinate refreshes resolved_at.
func (r *pgGeocodeRepo) Put(ctx context.Context, lat, lng float64, res domain.GeocodeResult) error {
	const q = `
		INSERT INTO geocodes (lat, lng, status, formatted_address)
		VALUES (@lat, @lng, @status, @formatted_address)
		ON CONFLICT (lat, lng) DO UPDATE
		SET status            = EXCLUDED.status,
		    formatted_address = EXCLUDED.formatted_address,
		    resolved_at       = now()`

	args := pgx.NamedArgs{
		"lat":               lat,
		"lng":               lng,
		"status":            string(res.Status),
		"formatted_address": res.FormattedAddress,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.GeocodeRepo.Put: %w", err)
	}
	return nil
}

// Prune removes stale entries.
func (r *pgGeocodeRepo) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM geocodes WHERE resolved_at < @cutoff`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"cutoff": cutoff})
	if err != nil {
		return 0, fmt.Errorf("repo.GeocodeRepo.Prune: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanGeocode maps a single row into a domain.GeocodeResult and its timestamp.
func scanGeocode(s scanner) (domain.GeocodeResult, time.Time, error) {
	var (
		status     string
		address    pgtype.Text
		resolvedAt pgtype.Timestamptz
	)

	if err := s.Scan(&status, &address, &resolvedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.GeocodeResult{}, time.Time{}, domain.ErrNotFound
		}
		return domain.GeocodeResult{}, time.Time{}, err
	}

	return domain.GeocodeResult{
		Status:           domain.GeocodeStatus(status),
		FormattedAddress: address.String,
	}, resolvedAt.Time, nil
}
