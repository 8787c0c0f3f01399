package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkordes/match-results/backend/internal/domain"
)

// memoryEntry is a stored snapshot plus the last time anyone looked at it.
type memoryEntry struct {
	snap     domain.Snapshot
	lastSeen time.Time
}

// MemoryStore keeps snapshots in process memory. Suitable for a single
// instance; use RedisStore when several API instances share sessions.
// Thread-safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore returns a MemoryStore that forgets sessions nobody has
// touched for ttl. ttl <= 0 keeps sessions forever.
func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.load(sessionID)
	s.touch(sessionID)
	return cloneSnapshot(snap), nil
}

// Begin implements Store.
func (s *MemoryStore) Begin(_ context.Context, sessionID, userID string) (domain.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	next, started := begin(s.load(sessionID), userID, s.now())
	if started {
		s.store(next)
	} else {
		s.touch(sessionID)
	}
	return cloneSnapshot(next), started, nil
}

// Commit implements Store.
func (s *MemoryStore) Commit(_ context.Context, snap domain.Snapshot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !committable(s.load(snap.SessionID), snap) {
		return false, nil
	}
	snap.UpdatedAt = s.now()
	s.store(cloneSnapshot(snap))
	return true, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(_ context.Context, sessionID string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := reset(s.load(sessionID), s.now())
	s.store(next)
	return next, nil
}

// load returns the live snapshot for sessionID. Caller holds mu.
func (s *MemoryStore) load(sessionID string) domain.Snapshot {
	e, ok := s.sessions[sessionID]
	if !ok || s.expired(e) {
		return idle(sessionID)
	}
	return e.snap
}

// store writes snap and marks it seen now. Caller holds mu.
func (s *MemoryStore) store(snap domain.Snapshot) {
	s.sessions[snap.SessionID] = memoryEntry{snap: snap, lastSeen: s.now()}
}

// touch extends the lifetime of a live session. Caller holds mu.
func (s *MemoryStore) touch(sessionID string) {
	e, ok := s.sessions[sessionID]
	if !ok || s.expired(e) {
		return
	}
	e.lastSeen = s.now()
	s.sessions[sessionID] = e
}

// sweep drops expired sessions. Caller holds mu.
func (s *MemoryStore) sweep() {
	if s.ttl <= 0 {
		return
	}
	for id, e := range s.sessions {
		if s.expired(e) {
			delete(s.sessions, id)
		}
	}
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return s.ttl > 0 && s.now().Sub(e.lastSeen) > s.ttl
}

// cloneSnapshot copies Rows so callers cannot mutate stored state.
func cloneSnapshot(s domain.Snapshot) domain.Snapshot {
	if s.Rows != nil {
		s.Rows = append(make([]domain.DisplayRow, 0, len(s.Rows)), s.Rows...)
	}
	return s
}
