package geocode

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pkordes/match-results/backend/internal/domain"
)

// Cache stores geocode answers by exact coordinates.
// Get returns domain.ErrNotFound on a miss or when the stored answer is older
// than maxAge.
type Cache interface {
	Get(ctx context.Context, lat, lng float64, maxAge time.Duration) (domain.GeocodeResult, error)
	Put(ctx context.Context, lat, lng float64, res domain.GeocodeResult) error
}

// Cached answers from Cache when it can and remembers cacheable answers from
// the wrapped Resolver. Cache failures are logged and never fail a lookup.
type Cached struct {
	next   Resolver
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps next with cache. Entries older than ttl are ignored.
func NewCached(next Resolver, cache Cache, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Resolve implements Resolver.
func (c *Cached) Resolve(ctx context.Context, lat, lng float64) (domain.GeocodeResult, error) {
	hit, err := c.cache.Get(ctx, lat, lng, c.ttl)
	switch {
	case err == nil:
		return hit, nil
	case !errors.Is(err, domain.ErrNotFound):
		c.logger.WarnContext(ctx, "geocode cache read failed", "lat", lat, "lng", lng, "error", err)
	}

	res, err := c.next.Resolve(ctx, lat, lng)
	if err != nil {
		return domain.GeocodeResult{}, err
	}

	if res.Status.Cacheable() {
		if err := c.cache.Put(ctx, lat, lng, res); err != nil {
			c.logger.WarnContext(ctx, "geocode cache write failed", "lat", lat, "lng", lng, "error", err)
		}
	}
	return res, nil
}
