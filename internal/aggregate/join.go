// Package aggregate turns raw match records into the deduplicated rows shown
// to the user: it joins each record with its geocode answer, drops records
// without a usable address, normalizes the rest and merges duplicates.
package aggregate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pkordes/match-results/backend/internal/domain"
)

// Resolver resolves one coordinate pair to an address.
// A non-OK Status is a normal answer; an error means the call itself failed.
type Resolver interface {
	Resolve(ctx context.Context, lat, lng float64) (domain.GeocodeResult, error)
}

// Join geocodes every match concurrently and pairs each answer with its
// source record by index. It waits for every call to settle; the first
// resolver error cancels the rest and fails the join with
// domain.ErrResolution. limit bounds the number of in-flight calls; zero
// or less means unbounded.
//
// The returned slice has one entry per input record, in input order.
func Join(ctx context.Context, r Resolver, matches []domain.MatchRecord, limit int) ([]domain.JoinedEntry, error) {
	results := make([]domain.GeocodeResult, len(matches))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, m := range matches {
		i, m := i, m
		g.Go(func() error {
			res, err := r.Resolve(gctx, m.Lat, m.Lng)
			if err != nil {
				return fmt.Errorf("match %d (%f,%f): %w", i, m.Lat, m.Lng, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate.Join: %w: %w", domain.ErrResolution, err)
	}

	entries := make([]domain.JoinedEntry, len(matches))
	for i, m := range matches {
		entries[i] = domain.JoinedEntry{Index: i, Match: m, Geocode: results[i]}
	}
	return entries, nil
}
