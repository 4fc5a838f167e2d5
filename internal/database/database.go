// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

// Package database provides the DuckDB-backed analytics store.
//
// This is the authoritative, queryable store for view events and the
// primary source for query-style reads (popular videos, realtime metrics).
// The trending service treats it as fallible: any failure here is absorbed
// by the counter-store fallback and never surfaced to callers.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/openvine/vinescope/internal/config"
	"github.com/openvine/vinescope/internal/logging"
	"github.com/openvine/vinescope/internal/models"
)

// defaultQueryTimeout bounds queries whose context carries no deadline.
const defaultQueryTimeout = 30 * time.Second

// DB wraps the DuckDB connection and provides analytics query methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens (or creates) the DuckDB analytics database and initializes its
// schema.
//
// Connection string options follow DuckDB conventions: thread count,
// memory limit. Threads=0 uses runtime.NumCPU().
func New(cfg *config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close() // cleanup is best-effort on the error path
		return nil, fmt.Errorf("failed to ping analytics database: %w", err)
	}

	conn.SetMaxOpenConns(threads)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logging.Info().Str("path", cfg.Path).Int("threads", threads).Msg("Analytics database ready")
	return db, nil
}

// initSchema creates the view_events table if it does not exist.
// Hashtags are stored comma-joined in normalized form; the column is only
// read back for display, never filtered on (hashtag scoping lives in the
// counter store's secondary index).
func (db *DB) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS view_events (
		video_id          VARCHAR NOT NULL,
		viewer_id         VARCHAR,
		viewed_at         TIMESTAMP NOT NULL,
		watch_duration_ms BIGINT DEFAULT 0,
		total_duration_ms BIGINT DEFAULT 0,
		loop_count        INTEGER DEFAULT 0,
		source            VARCHAR,
		title             VARCHAR,
		hashtags          VARCHAR
	)`)
	if err != nil {
		return fmt.Errorf("failed to create view_events table: %w", err)
	}
	return nil
}

// InsertViewEvent appends one view event. This is the analytics side of the
// ingestion dual write; it is independent of the counter-store write and
// carries no ordering or atomicity relationship to it.
func (db *DB) InsertViewEvent(ctx context.Context, event *models.ViewEvent) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tags := make([]string, 0, len(event.Hashtags))
	for _, raw := range event.Hashtags {
		if t := normalizeTag(raw); t != "" {
			tags = append(tags, t)
		}
	}

	_, err := db.conn.ExecContext(ctx, `
	INSERT INTO view_events (video_id, viewer_id, viewed_at, watch_duration_ms,
		total_duration_ms, loop_count, source, title, hashtags)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.VideoID,
		event.ViewerID,
		event.Timestamp,
		event.WatchDurationMS,
		event.TotalDurationMS,
		event.LoopCount,
		event.Source,
		event.Title,
		strings.Join(tags, ","),
	)
	if err != nil {
		return fmt.Errorf("failed to insert view event: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close analytics database: %w", err)
	}
	return nil
}

// ensureContext guarantees queries run with a deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), defaultQueryTimeout)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, defaultQueryTimeout)
	}
	return ctx, func() {}
}

// normalizeTag mirrors the counter store's hashtag normalization without
// importing it (the two stores are peers, not dependents).
func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}
