// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

// Package models defines the shared data structures for the trending engine.
//
// The core types mirror the two sides of the engine:
//
//   - Ingestion-side state: ViewEvent (immutable, append-only) and the
//     denormalized ViewData current-state record per video.
//   - Derived, ephemeral rankings: TrendingEntry, TrendingResult,
//     HashtagTrending, TimeWindowStats. These are recomputed on demand and
//     never persisted as a source of truth; their lifetime is bounded by the
//     result cache TTL.
package models

import "time"

// ViewEvent is a single view/interaction event produced by ingestion.
// Events are immutable and append-only; the engine only ever reads the
// aggregates derived from them.
type ViewEvent struct {
	VideoID         string    `json:"video_id" validate:"required"`
	ViewerID        string    `json:"viewer_id,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	WatchDurationMS int64     `json:"watch_duration_ms,omitempty"`
	TotalDurationMS int64     `json:"total_duration_ms,omitempty"`
	LoopCount       int       `json:"loop_count,omitempty"`
	Source          string    `json:"source,omitempty"`
	Title           string    `json:"title,omitempty"`
	Hashtags        []string  `json:"hashtags,omitempty"`
}

// HourlyCount is one entry of a reconstructed per-hour view series.
// Bucket is a wall-clock Unix hour (unix seconds / 3600), not a sequence
// number, so series from different processes always align.
type HourlyCount struct {
	Bucket int64 `json:"bucket"`
	Count  int64 `json:"count"`
}

// ViewData is the denormalized current-state record per video and the
// primary input to trending score computation. Count and LastUpdate are
// monotonically non-decreasing.
type ViewData struct {
	VideoID    string    `json:"video_id"`
	Count      int64     `json:"count"`
	LastUpdate time.Time `json:"last_update"`
	Title      string    `json:"title,omitempty"`
	Hashtags   []string  `json:"hashtags,omitempty"`
}

// TrendingEntry is a derived ranking row. Velocity is only populated by the
// velocity-trending path.
type TrendingEntry struct {
	VideoID  string   `json:"video_id"`
	Views    int64    `json:"views"`
	Score    float64  `json:"score"`
	Velocity float64  `json:"velocity,omitempty"`
	Title    string   `json:"title,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
}

// TrendingResult is the full output of one trending computation pass.
// ComputedAt is the single captured "now" of the pass; given frozen inputs
// and a fixed ComputedAt the result is deterministic.
type TrendingResult struct {
	Videos     []TrendingEntry `json:"videos"`
	ComputedAt time.Time       `json:"computed_at"`
}

// HashtagTrending is the ranking for a single normalized hashtag within a
// timeframe window. TopVideos is capped at 20 entries.
type HashtagTrending struct {
	Hashtag    string          `json:"hashtag"`
	Timeframe  string          `json:"timeframe"`
	VideoCount int             `json:"video_count"`
	TotalViews int64           `json:"total_views"`
	TopVideos  []TrendingEntry `json:"top_videos"`
	ComputedAt time.Time       `json:"computed_at"`
}

// HashtagViews pairs a normalized hashtag with its externally maintained
// total view counter.
type HashtagViews struct {
	Hashtag string `json:"hashtag"`
	Views   int64  `json:"views"`
}

// TimeWindowStats summarizes a video's views over trailing windows plus its
// current velocity score. Window membership is half-open on age
// (age < window, not <=).
type TimeWindowStats struct {
	VideoID       string  `json:"video_id"`
	Views1H       int64   `json:"views_1h"`
	Views6H       int64   `json:"views_6h"`
	Views24H      int64   `json:"views_24h"`
	Views7D       int64   `json:"views_7d"`
	Views30D      int64   `json:"views_30d"`
	VelocityScore float64 `json:"velocity_score"`
}

// RealtimeMetrics is a coarse liveness snapshot of the catalog, served by
// the primary analytics store with counter-store fallback.
type RealtimeMetrics struct {
	ViewsLastHour int64     `json:"views_last_hour"`
	ViewsLastDay  int64     `json:"views_last_day"`
	ActiveVideos  int64     `json:"active_videos"`
	ComputedAt    time.Time `json:"computed_at"`
}
