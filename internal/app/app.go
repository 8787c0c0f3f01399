// Package app assembles the runtime object graph from a config.Config.
// Both the API server and matchctl build their pipeline here so the two
// can never drift apart.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkordes/match-results/backend/internal/aggregate"
	"github.com/pkordes/match-results/backend/internal/config"
	"github.com/pkordes/match-results/backend/internal/enclave"
	"github.com/pkordes/match-results/backend/internal/geocode"
	"github.com/pkordes/match-results/backend/internal/httpx"
	"github.com/pkordes/match-results/backend/internal/service"
	"github.com/pkordes/match-results/backend/internal/session"
)

// redisConnectRetries is how many times OpenRedis pings before giving up.
const redisConnectRetries = 5

// NewPipeline wires fetcher, resolver chain and normalizer into a Pipeline.
//
// The resolver chain is cache → rate limiter → HTTP client, so cache hits
// never spend rate budget.
func NewPipeline(cfg config.Config, cache geocode.Cache, logger *slog.Logger) (*service.Pipeline, error) {
	httpClient := httpx.NewClient(cfg.HTTPTimeout)

	matches, err := enclave.New(cfg.MatchServiceURL, cfg.MatchServiceToken, httpClient)
	if err != nil {
		return nil, fmt.Errorf("app.NewPipeline: %w", err)
	}
	client, err := geocode.NewClient(cfg.GeocodeURL, cfg.GeocodeAPIKey, httpClient)
	if err != nil {
		return nil, fmt.Errorf("app.NewPipeline: %w", err)
	}

	var resolver geocode.Resolver = geocode.NewRateLimited(client, cfg.GeocodeRate, cfg.GeocodeConcurrency)
	if cache != nil {
		resolver = geocode.NewCached(resolver, cache, cfg.GeocodeCacheTTL, logger)
	}

	normalizer := aggregate.NewNormalizer(time.Now, cfg.Location)
	return service.NewPipeline(matches, resolver, normalizer, cfg.GeocodeConcurrency, logger), nil
}

// NewSessionStore returns the Redis store when cfg.RedisURL is set and the
// in-memory store otherwise. The returned close func is never nil.
func NewSessionStore(ctx context.Context, cfg config.Config) (session.Store, func() error, error) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(cfg.SessionTTL, time.Now), func() error { return nil }, nil
	}
	client, err := session.OpenRedis(ctx, cfg.RedisURL, redisConnectRetries)
	if err != nil {
		return nil, nil, fmt.Errorf("app.NewSessionStore: %w", err)
	}
	store := session.NewRedisStore(client, cfg.SessionTTL, time.Now)
	return store, store.Close, nil
}
