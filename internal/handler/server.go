// Package handler implements the HTTP handlers for the match results API.
// All handlers are methods on Server. Methods are split into topic files
// (health.go, results.go) but share the same Server struct so they can
// access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/match-results/backend/internal/domain"
)

// ResultsServicer defines the operations the results handlers depend on.
// Defined here, in the consumer package, so handler tests can inject a mock
// without a session store or pipeline behind it.
type ResultsServicer interface {
	Observe(ctx context.Context, sessionID string, auth domain.AuthContext) (domain.Snapshot, error)
	Reset(ctx context.Context, sessionID string) (domain.Snapshot, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	results ResultsServicer
	logger  *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(results ResultsServicer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{results: results, logger: logger}
}

// Handler returns a chi router with every API route registered.
// Request-scoped middleware (identity, session, logging) is applied by the
// caller; see cmd/api.
func Handler(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/results", s.GetResults)
	r.Delete("/session", s.DeleteSession)
	return r
}
