package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/match-results/backend/internal/domain"
)

// TestRedisStore_PollingKeepsSessionAlive relies on the real key TTL, so it
// uses a short one and polls across several multiples of it.
func TestRedisStore_PollingKeepsSessionAlive(t *testing.T) {
	const ttl = 2 * time.Second
	s := newRedisStoreForTest(t, ttl)
	ctx := context.Background()

	run, started, err := s.Begin(ctx, "s-poll", "alice")
	require.NoError(t, err)
	require.True(t, started)
	run.State = domain.StateResolved
	ok, err := s.Commit(ctx, run)
	require.NoError(t, err)
	require.True(t, ok)

	deadline := time.Now().Add(3 * ttl)
	for time.Now().Before(deadline) {
		time.Sleep(ttl / 3)
		snap, started, err := s.Begin(ctx, "s-poll", "alice")
		require.NoError(t, err)
		require.False(t, started, "polling a resolved session must not start a new run")
		assert.Equal(t, domain.StateResolved, snap.State)
	}

	// Untouched, the session does expire.
	time.Sleep(ttl + 500*time.Millisecond)
	snap, err := s.Get(ctx, "s-poll")
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, snap.State)
}
