package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/match-results/backend/internal/domain"
	"github.com/pkordes/match-results/backend/internal/session"
)

// TestMemoryStoreContract and TestRedisStoreContract run the same transition
// checks against each Store. They are separate so a missing Docker daemon
// only skips the Redis half.
func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, session.NewMemoryStore(time.Hour, nil))
}

func TestRedisStoreContract(t *testing.T) {
	runStoreContract(t, newRedisStoreForTest(t, time.Hour))
}

func runStoreContract(t *testing.T, s session.Store) {
	t.Helper()
	t.Run("unknown session is idle", func(t *testing.T) { contractUnknownIsIdle(t, s) })
	t.Run("begin once per identity", func(t *testing.T) { contractBeginOnce(t, s) })
	t.Run("commit current generation", func(t *testing.T) { contractCommit(t, s) })
	t.Run("identity change supersedes run", func(t *testing.T) { contractIdentityChange(t, s) })
	t.Run("reset discards in-flight run", func(t *testing.T) { contractReset(t, s) })
	t.Run("rows unset survives round trip", func(t *testing.T) { contractRowsUnset(t, s) })
	t.Run("concurrent begin starts one run", func(t *testing.T) { contractConcurrentBegin(t, s) })
	t.Run("run ids never repeat", func(t *testing.T) { contractRunIDUnique(t, s) })
}

func contractUnknownIsIdle(t *testing.T, s session.Store) {
	snap, err := s.Get(context.Background(), "never-seen")

	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, snap.State)
	assert.Equal(t, "never-seen", snap.SessionID)
	assert.Nil(t, snap.Rows)
}

func contractBeginOnce(t *testing.T, s session.Store) {
	ctx := context.Background()

	first, started, err := s.Begin(ctx, "s-once", "u1")
	require.NoError(t, err)
	require.True(t, started)
	assert.Equal(t, domain.StateFetching, first.State)
	assert.Equal(t, "u1", first.UserID)

	again, started, err := s.Begin(ctx, "s-once", "u1")
	require.NoError(t, err)
	assert.False(t, started, "re-fetch must be suppressed while fetching")
	assert.Equal(t, first.Generation, again.Generation)
}

func contractCommit(t *testing.T, s session.Store) {
	ctx := context.Background()

	run, _, err := s.Begin(ctx, "s-commit", "u1")
	require.NoError(t, err)

	run.State = domain.StateResolved
	run.Rows = []domain.DisplayRow{{Location: "A", Address: "A", Date: "01/01", Time: "1 hour ago", NumberOfMatches: 2}}
	ok, err := s.Commit(ctx, run)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.Get(ctx, "s-commit")
	require.NoError(t, err)
	assert.Equal(t, domain.StateResolved, got.State)
	assert.Equal(t, run.Rows, got.Rows)

	_, started, err := s.Begin(ctx, "s-commit", "u1")
	require.NoError(t, err)
	assert.False(t, started, "re-fetch must be suppressed once resolved")

	ok, err = s.Commit(ctx, run)
	require.NoError(t, err)
	assert.False(t, ok, "a settled run cannot be committed twice")
}

func contractIdentityChange(t *testing.T, s session.Store) {
	ctx := context.Background()

	old, _, err := s.Begin(ctx, "s-switch", "u1")
	require.NoError(t, err)

	fresh, started, err := s.Begin(ctx, "s-switch", "u2")
	require.NoError(t, err)
	require.True(t, started)
	assert.Greater(t, fresh.Generation, old.Generation)

	old.State = domain.StateResolved
	ok, err := s.Commit(ctx, old)
	require.NoError(t, err)
	assert.False(t, ok, "stale run must not overwrite the new identity")

	got, err := s.Get(ctx, "s-switch")
	require.NoError(t, err)
	assert.Equal(t, "u2", got.UserID)
	assert.Equal(t, domain.StateFetching, got.State)
}

func contractReset(t *testing.T, s session.Store) {
	ctx := context.Background()

	run, _, err := s.Begin(ctx, "s-reset", "u1")
	require.NoError(t, err)

	idle, err := s.Reset(ctx, "s-reset")
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, idle.State)
	assert.Empty(t, idle.UserID)

	run.State = domain.StateResolved
	ok, err := s.Commit(ctx, run)
	require.NoError(t, err)
	assert.False(t, ok)

	next, started, err := s.Begin(ctx, "s-reset", "u1")
	require.NoError(t, err)
	assert.True(t, started, "same user may run again after reset")
	assert.Greater(t, next.Generation, run.Generation)
}

func contractRowsUnset(t *testing.T, s session.Store) {
	ctx := context.Background()

	run, _, err := s.Begin(ctx, "s-unset", "u1")
	require.NoError(t, err)
	run.State = domain.StateResolved
	run.Rows = nil
	ok, err := s.Commit(ctx, run)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.Get(ctx, "s-unset")
	require.NoError(t, err)
	assert.Nil(t, got.Rows)

	run2, _, err := s.Begin(ctx, "s-empty", "u1")
	require.NoError(t, err)
	run2.State = domain.StateResolved
	run2.Rows = []domain.DisplayRow{}
	_, err = s.Commit(ctx, run2)
	require.NoError(t, err)

	got, err = s.Get(ctx, "s-empty")
	require.NoError(t, err)
	assert.NotNil(t, got.Rows)
	assert.Empty(t, got.Rows)
}

func contractConcurrentBegin(t *testing.T, s session.Store) {
	var (
		wg      sync.WaitGroup
		started atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := s.Begin(context.Background(), "s-race", "u1")
			assert.NoError(t, err)
			if ok {
				started.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, started.Load())
}

func contractRunIDUnique(t *testing.T, s session.Store) {
	ctx := context.Background()

	first, _, err := s.Begin(ctx, "s-runid", "u1")
	require.NoError(t, err)
	require.NotEmpty(t, first.RunID)

	_, err = s.Reset(ctx, "s-runid")
	require.NoError(t, err)

	second, started, err := s.Begin(ctx, "s-runid", "u1")
	require.NoError(t, err)
	require.True(t, started)
	assert.NotEqual(t, first.RunID, second.RunID)

	// Same generation but a foreign run id is still rejected.
	forged := second
	forged.RunID = first.RunID
	forged.State = domain.StateResolved
	ok, err := s.Commit(ctx, forged)
	require.NoError(t, err)
	assert.False(t, ok)
}

// fakeClock is a settable time source for TTL tests.
type fakeClock struct{ now time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// TestMemoryStore_PollingKeepsSessionAlive polls a resolved session well past
// the TTL; because each poll slides the expiry, no second run starts.
func TestMemoryStore_PollingKeepsSessionAlive(t *testing.T) {
	clock := newFakeClock()
	s := session.NewMemoryStore(time.Hour, clock.Now)
	ctx := context.Background()

	run, started, err := s.Begin(ctx, "s", "alice")
	require.NoError(t, err)
	require.True(t, started)
	run.State = domain.StateResolved
	ok, err := s.Commit(ctx, run)
	require.NoError(t, err)
	require.True(t, ok)

	restarts := 0
	for i := 0; i < 8; i++ {
		clock.Advance(15 * time.Minute)
		snap, started, err := s.Begin(ctx, "s", "alice")
		require.NoError(t, err)
		if started {
			restarts++
		}
		assert.Equal(t, domain.StateResolved, snap.State)
	}
	assert.Zero(t, restarts)

	// Reads slide the expiry too.
	clock.Advance(45 * time.Minute)
	_, err = s.Get(ctx, "s")
	require.NoError(t, err)
	clock.Advance(45 * time.Minute)
	_, started, err = s.Begin(ctx, "s", "alice")
	require.NoError(t, err)
	assert.False(t, started)
}

// TestMemoryStore_ExpiredRunCannotCommit covers a run that outlives its
// session: after expiry the next run restarts at the same generation, yet the
// old run's commit is still refused.
func TestMemoryStore_ExpiredRunCannotCommit(t *testing.T) {
	clock := newFakeClock()
	s := session.NewMemoryStore(time.Hour, clock.Now)
	ctx := context.Background()

	old, _, err := s.Begin(ctx, "s", "alice")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	fresh, started, err := s.Begin(ctx, "s", "alice")
	require.NoError(t, err)
	require.True(t, started)
	require.Equal(t, old.Generation, fresh.Generation)

	old.State = domain.StateResolved
	ok, err := s.Commit(ctx, old)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, domain.StateFetching, got.State)
	assert.Equal(t, fresh.RunID, got.RunID)
}

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := session.NewMemoryStore(time.Hour, func() time.Time { return now })
	ctx := context.Background()

	_, _, err := s.Begin(ctx, "s", "u1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)

	snap, err := s.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, snap.State)

	_, started, err := s.Begin(ctx, "s", "u1")
	require.NoError(t, err)
	assert.True(t, started)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := session.NewMemoryStore(0, nil)
	ctx := context.Background()

	run, _, _ := s.Begin(ctx, "s", "u1")
	run.State = domain.StateResolved
	run.Rows = []domain.DisplayRow{{Location: "A"}}
	_, _ = s.Commit(ctx, run)

	got, _ := s.Get(ctx, "s")
	got.Rows[0].Location = "mutated"

	again, _ := s.Get(ctx, "s")
	assert.Equal(t, "A", again.Rows[0].Location)
}
