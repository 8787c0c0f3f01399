package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/match-results/backend/internal/domain"
	"github.com/pkordes/match-results/backend/internal/session"
)

// User-visible failure messages stored on Failed snapshots.
const (
	msgFetchFailed      = "We could not load your matches. Please try again later."
	msgResolutionFailed = "We could not look up where your matches happened. Please try again later."
	msgInternal         = "Something went wrong while loading your matches."
)

// Runner produces the rows for one user. *Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, userID string) ([]domain.DisplayRow, error)
}

// ResultsService drives the per-session results state machine.
//
// Observe is called whenever the presentation layer looks at a session. The
// first observation by an identified user claims the session through
// session.Store.Begin and starts one background run; later observations only
// read state. Runs are never cancelled; a run whose session has since been
// reset or taken over by another identity has its outcome discarded.
type ResultsService struct {
	runner Runner
	store  session.Store
	logger *slog.Logger

	wg sync.WaitGroup
}

// NewResultsService constructs a ResultsService.
func NewResultsService(runner Runner, store session.Store, logger *slog.Logger) *ResultsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsService{runner: runner, store: store, logger: logger}
}

// Observe returns the session snapshot, starting a run first if the session
// is Idle or belongs to a different user.
// Returns domain.ErrUnauthenticated when auth does not identify a user and
// domain.ErrValidation when sessionID is empty.
func (s *ResultsService) Observe(ctx context.Context, sessionID string, auth domain.AuthContext) (domain.Snapshot, error) {
	if sessionID == "" {
		return domain.Snapshot{}, fmt.Errorf("%w: session id is required", domain.ErrValidation)
	}
	if !auth.Identified() {
		return domain.Snapshot{}, domain.ErrUnauthenticated
	}

	snap, started, err := s.store.Begin(ctx, sessionID, auth.UserID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("service.ResultsService.Observe: %w", err)
	}
	if started {
		s.launch(context.WithoutCancel(ctx), snap)
	}
	return snap, nil
}

// Reset returns the session to Idle. It is the explicit identity-change
// notification: logout or user switch. An in-flight run keeps going but its
// outcome is discarded.
func (s *ResultsService) Reset(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	if sessionID == "" {
		return domain.Snapshot{}, fmt.Errorf("%w: session id is required", domain.ErrValidation)
	}
	snap, err := s.store.Reset(ctx, sessionID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("service.ResultsService.Reset: %w", err)
	}
	return snap, nil
}

// Wait blocks until every background run has committed or ctx is done.
func (s *ResultsService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ResultsService) launch(ctx context.Context, snap domain.Snapshot) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, snap)
	}()
}

// run executes one pipeline run for snap and commits its outcome.
func (s *ResultsService) run(ctx context.Context, snap domain.Snapshot) {
	log := s.logger.With(
		"run_id", snap.RunID,
		"session_id", snap.SessionID,
		"user_id", snap.UserID,
		"generation", snap.Generation,
	)
	start := time.Now()

	next := snap
	rows, err := s.runSafely(ctx, snap.UserID)
	if err != nil {
		next.State = domain.StateFailed
		next.Error = failureMessage(err)
		log.ErrorContext(ctx, "results run failed", "error", err)
	} else {
		next.State = domain.StateResolved
		next.Rows = rows
	}

	ok, err := s.store.Commit(ctx, next)
	switch {
	case err != nil:
		log.ErrorContext(ctx, "commit results", "error", err)
	case !ok:
		log.InfoContext(ctx, "discarding results of superseded run")
	default:
		log.InfoContext(ctx, "results run finished",
			"state", next.State,
			"rows", len(next.Rows),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// runSafely turns a panic in the runner into an error so the session never
// stays in Fetching.
func (s *ResultsService) runSafely(ctx context.Context, userID string) (rows []domain.DisplayRow, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("service.ResultsService: panic: %v", r)
		}
	}()
	return s.runner.Run(ctx, userID)
}

// failureMessage maps a run error to the message shown to the user.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrFetch):
		return msgFetchFailed
	case errors.Is(err, domain.ErrResolution):
		return msgResolutionFailed
	default:
		return msgInternal
	}
}
