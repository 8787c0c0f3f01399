package geocode

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/pkordes/match-results/backend/internal/domain"
)

// RateLimited throttles calls to the wrapped Resolver with a token bucket
// shared by every goroutine in the fan-out.
type RateLimited struct {
	next    Resolver
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond calls per second with bursts of burst.
// perSecond <= 0 disables throttling.
func NewRateLimited(next Resolver, perSecond float64, burst int) *RateLimited {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Resolve waits for a token, then delegates.
func (r *RateLimited) Resolve(ctx context.Context, lat, lng float64) (domain.GeocodeResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("geocode.RateLimited.Resolve: %w", err)
	}
	return r.next.Resolve(ctx, lat, lng)
}
