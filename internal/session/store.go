// Package session stores the per-session state of the results pipeline.
//
// A session moves Idle → Fetching → Resolved|Failed. Begin is the guard: it
// atomically claims the Fetching state for one identity, so at most one run is
// started per session and identity. Every claim bumps the session generation
// and mints a fresh run id; Commit refuses snapshots from any other run, which
// is how results from a superseded run are discarded.
//
// Session lifetime slides: every Get and Begin, including a Begin that starts
// nothing, pushes expiry out by the store TTL.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/match-results/backend/internal/domain"
)

// Store persists session snapshots. Implementations must make Begin, Commit
// and Reset atomic with respect to each other for the same session.
type Store interface {
	// Get returns the snapshot for sessionID, or an Idle snapshot with
	// generation 0 when none exists. Reading keeps the session alive.
	Get(ctx context.Context, sessionID string) (domain.Snapshot, error)

	// Begin moves the session into Fetching for userID unless a run for the
	// same user is already in flight or finished. started reports whether the
	// caller now owns a new run; snap is the state after the call. A
	// suppressed Begin still keeps the session alive.
	Begin(ctx context.Context, sessionID, userID string) (snap domain.Snapshot, started bool, err error)

	// Commit stores the outcome of a run. It reports false, without writing,
	// when the session has moved on to another generation.
	Commit(ctx context.Context, snap domain.Snapshot) (bool, error)

	// Reset returns the session to Idle and invalidates any in-flight run.
	Reset(ctx context.Context, sessionID string) (domain.Snapshot, error)
}

// idle is the snapshot of a session nobody has touched yet.
func idle(sessionID string) domain.Snapshot {
	return domain.Snapshot{SessionID: sessionID, State: domain.StateIdle}
}

// begin applies the Begin transition to cur.
func begin(cur domain.Snapshot, userID string, now time.Time) (domain.Snapshot, bool) {
	if cur.UserID == userID && cur.State != domain.StateIdle {
		return cur, false
	}
	return domain.Snapshot{
		SessionID:  cur.SessionID,
		UserID:     userID,
		State:      domain.StateFetching,
		Generation: cur.Generation + 1,
		RunID:      uuid.NewString(),
		UpdatedAt:  now,
	}, true
}

// committable reports whether next may replace cur.
func committable(cur, next domain.Snapshot) bool {
	return cur.State == domain.StateFetching &&
		cur.RunID != "" &&
		cur.RunID == next.RunID &&
		cur.Generation == next.Generation &&
		cur.UserID == next.UserID
}

// reset applies the Reset transition to cur.
func reset(cur domain.Snapshot, now time.Time) domain.Snapshot {
	return domain.Snapshot{
		SessionID:  cur.SessionID,
		State:      domain.StateIdle,
		Generation: cur.Generation + 1,
		UpdatedAt:  now,
	}
}
