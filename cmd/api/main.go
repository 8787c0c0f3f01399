// Package main is the entry point for the match results API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkordes/match-results/backend/internal/app"
	"github.com/pkordes/match-results/backend/internal/config"
	"github.com/pkordes/match-results/backend/internal/handler"
	"github.com/pkordes/match-results/backend/internal/middleware"
	"github.com/pkordes/match-results/backend/internal/repo"
	"github.com/pkordes/match-results/backend/internal/service"
)

const sessionCookie = "match_session"

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Database ---------------------------------------------------------
	// Postgres only backs the geocode cache.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Session store ----------------------------------------------------
	store, closeStore, err := app.NewSessionStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open session store", "error", err)
		os.Exit(1)
	}
	defer closeStore()
	slog.Info("session store ready", "redis", cfg.RedisURL != "")

	// --- Services ---------------------------------------------------------
	pipeline, err := app.NewPipeline(cfg, repo.NewGeocodeRepo(pool), logger)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	results := service.NewResultsService(pipeline, store, logger)

	// --- Router -----------------------------------------------------------
	// Order matters: identity and session must run before the request logger
	// so it can record who made the request.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.NewIdentity(cfg.UserHeader))
	r.Use(middleware.NewSession(sessionCookie, cfg.SessionCookieSecure))
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Mount("/", handler.Handler(handler.NewServer(results, logger)))

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	// Let background runs commit so sessions are not left in Fetching.
	if err := results.Wait(shutdownCtx); err != nil {
		slog.Warn("pipeline runs still in flight at shutdown", "error", err)
	}
	slog.Info("server stopped")
}
