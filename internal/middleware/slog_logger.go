// Package middleware provides HTTP middleware for the match results API.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewSlogLogger returns a middleware that logs one structured line per
// request: method, path, status, duration, chi request ID, and the session
// and user the request carried.
//
// Wire it after chimiddleware.RequestID, NewIdentity and NewSession so their
// values are in the context.
func NewSlogLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			ctx := r.Context()
			log.InfoContext(ctx, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(ctx),
				"session_id", SessionIDFromContext(ctx),
				"user_id", AuthFromContext(ctx).UserID,
			)
		})
	}
}
