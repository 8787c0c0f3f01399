// Package service contains the business logic of the match results service.
// Pipeline runs fetch → geocode → aggregate for one user; ResultsService owns
// the per-session state machine around it.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkordes/match-results/backend/internal/aggregate"
	"github.com/pkordes/match-results/backend/internal/domain"
)

// MatchFetcher returns the raw matches for a user.
type MatchFetcher interface {
	FindMatches(ctx context.Context, userID string) ([]domain.MatchRecord, error)
}

// Pipeline produces the display rows for one user.
type Pipeline struct {
	fetcher     MatchFetcher
	resolver    aggregate.Resolver
	normalizer  *aggregate.Normalizer
	concurrency int
	logger      *slog.Logger
}

// NewPipeline constructs a Pipeline. concurrency bounds in-flight geocode
// calls per run; zero or less means one goroutine per match.
func NewPipeline(fetcher MatchFetcher, resolver aggregate.Resolver, normalizer *aggregate.Normalizer, concurrency int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetcher:     fetcher,
		resolver:    resolver,
		normalizer:  normalizer,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run fetches, geocodes and aggregates the matches of userID.
//
// When the user has no matches it returns nil rows and no error: nothing is
// geocoded and the rows stay unset. Returns an error wrapping
// domain.ErrFetch or domain.ErrResolution when a stage fails as a whole.
func (p *Pipeline) Run(ctx context.Context, userID string) ([]domain.DisplayRow, error) {
	matches, err := p.fetcher.FindMatches(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.Pipeline.Run: %w: %w", domain.ErrFetch, err)
	}
	if len(matches) == 0 {
		p.logger.DebugContext(ctx, "no matches", "user_id", userID)
		return nil, nil
	}

	entries, err := aggregate.Join(ctx, p.resolver, matches, p.concurrency)
	if err != nil {
		return nil, fmt.Errorf("service.Pipeline.Run: %w", err)
	}

	rows := p.normalizer.Aggregate(entries)
	p.logger.DebugContext(ctx, "matches aggregated",
		"user_id", userID,
		"matches", len(matches),
		"rows", len(rows),
	)
	return rows, nil
}
