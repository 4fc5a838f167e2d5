// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

// Command server runs the Vinescope trending API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openvine/vinescope/internal/api"
	"github.com/openvine/vinescope/internal/cache"
	"github.com/openvine/vinescope/internal/config"
	"github.com/openvine/vinescope/internal/counterstore"
	"github.com/openvine/vinescope/internal/database"
	"github.com/openvine/vinescope/internal/logging"
	"github.com/openvine/vinescope/internal/trending"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().Str("version", Version).Msg("Starting Vinescope")

	store, err := counterstore.NewBadgerStore(counterstore.Options{
		Path:     cfg.Store.Path,
		InMemory: cfg.Store.InMemory,
	})
	if err != nil {
		return fmt.Errorf("failed to open counter store: %w", err)
	}
	defer closeWithLog(store.Close, "counter store")

	// The analytics store is optional: if it cannot be opened the server
	// runs degraded on the counter store alone.
	var primary trending.PrimarySource
	var analytics api.AnalyticsSink
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Warn().Err(err).Msg("Analytics store unavailable, running on counter store only")
	} else {
		defer closeWithLog(db.Close, "analytics store")
		primary = db
		analytics = db
	}

	engine := trending.NewEngine(store, &cfg.Trending)
	resultCache := cache.New(cfg.Trending.CacheTTL)
	service := trending.NewService(engine, primary, resultCache, &cfg.Trending)

	handler := api.NewHandler(service, store, analytics, Version)
	router := api.NewRouter(handler, &cfg.Server)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logging.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// closeWithLog closes a resource at shutdown, logging instead of failing.
func closeWithLog(closeFn func() error, name string) {
	if err := closeFn(); err != nil {
		logging.Warn().Err(err).Str("resource", name).Msg("Failed to close resource")
	}
}
