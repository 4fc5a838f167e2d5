// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openvine/vinescope/internal/models"
)

// This file contains the query-style primary reads served by DuckDB:
// popular videos over a trailing window and coarse realtime metrics. Both
// have counter-store fallbacks in the trending service, so every error
// returned here is recoverable from the caller's point of view.

// GetPopularVideos returns per-video aggregates over the trailing window,
// ordered by view count descending (videoID ascending on ties). The caller
// applies scoring; this query only aggregates, so the same score function
// governs the primary and fallback paths.
//
// An empty result is returned as an empty slice, not an error; the caller
// decides whether empty means "fall back".
func (db *DB) GetPopularVideos(ctx context.Context, window time.Duration, minViews int64, limit int, now time.Time) ([]models.ViewData, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	since := now.Add(-window)

	rows, err := db.conn.QueryContext(ctx, `
	SELECT
		video_id,
		COUNT(*) AS views,
		MAX(viewed_at) AS last_update,
		ANY_VALUE(title) AS title,
		ANY_VALUE(hashtags) AS hashtags
	FROM view_events
	WHERE viewed_at >= ? AND viewed_at <= ?
	GROUP BY video_id
	HAVING COUNT(*) >= ?
	ORDER BY views DESC, video_id ASC
	LIMIT ?`, since, now, minViews, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query popular videos: %w", err)
	}
	defer rows.Close()

	var out []models.ViewData
	for rows.Next() {
		var (
			vd    models.ViewData
			title *string
			tags  *string
		)
		if err := rows.Scan(&vd.VideoID, &vd.Count, &vd.LastUpdate, &title, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan popular video row: %w", err)
		}
		if title != nil {
			vd.Title = *title
		}
		if tags != nil && *tags != "" {
			vd.Hashtags = strings.Split(*tags, ",")
		}
		out = append(out, vd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating popular videos: %w", err)
	}
	if out == nil {
		out = []models.ViewData{}
	}
	return out, nil
}

// GetRealtimeMetrics returns coarse catalog liveness numbers: views in the
// trailing hour and day, and the count of videos with any view in the
// trailing day.
func (db *DB) GetRealtimeMetrics(ctx context.Context, now time.Time) (*models.RealtimeMetrics, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var m models.RealtimeMetrics
	m.ComputedAt = now

	err := db.conn.QueryRowContext(ctx, `
	SELECT
		COUNT(*) FILTER (WHERE viewed_at >= ?) AS views_last_hour,
		COUNT(*) AS views_last_day,
		COUNT(DISTINCT video_id) AS active_videos
	FROM view_events
	WHERE viewed_at >= ? AND viewed_at <= ?`,
		now.Add(-time.Hour), now.Add(-24*time.Hour), now,
	).Scan(&m.ViewsLastHour, &m.ViewsLastDay, &m.ActiveVideos)
	if err != nil {
		return nil, fmt.Errorf("failed to query realtime metrics: %w", err)
	}
	return &m, nil
}
