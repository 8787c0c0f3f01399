package domain

import "time"

// AuthContext is the authentication state supplied by the surrounding system.
// The service reads it and never mutates it.
type AuthContext struct {
	IsLoggedIn bool
	UserID     string
}

// Identified reports whether the context names a logged-in user.
func (a AuthContext) Identified() bool {
	return a.IsLoggedIn && a.UserID != ""
}

// RunState is the tagged state of a session's results pipeline.
type RunState string

const (
	StateIdle     RunState = "idle"
	StateFetching RunState = "fetching"
	StateResolved RunState = "resolved"
	StateFailed   RunState = "failed"
)

// Snapshot is the persisted view state of one session.
//
// RunID names the run that owns a Fetching session. Generation only orders
// runs within the lifetime of a stored session and restarts when the session
// expires; RunID never repeats.
//
// Rows is nil until a run produces results. A resolved run whose match list
// was empty also leaves Rows nil, which is distinct from a non-nil empty slice
// (every match failed to geocode).
type Snapshot struct {
	SessionID  string       `json:"session_id"`
	UserID     string       `json:"user_id,omitempty"`
	State      RunState     `json:"state"`
	Generation int64        `json:"generation"`
	RunID      string       `json:"run_id,omitempty"`
	Rows       []DisplayRow `json:"rows"`
	Error      string       `json:"error,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Settled reports whether the run for the current identity has finished,
// successfully or not.
func (s Snapshot) Settled() bool {
	return s.State == StateResolved || s.State == StateFailed
}
