// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

// Package counterstore provides the durable per-video view counter store.
//
// The trending engine only touches counters through the narrow Store
// interface: per-hour buckets, denormalized per-video state, a hashtag
// secondary index, and per-hashtag totals. Counter increments are
// read-modify-write with no cross-request locking; concurrent increments to
// the same (video, hour) bucket may interleave. That approximation is part
// of the contract, not a bug to fix here.
//
// Two implementations exist behind the interface:
//
//   - BadgerStore: persistent production store on BadgerDB
//   - MemoryStore: deterministic in-memory store for tests
package counterstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openvine/vinescope/internal/models"
)

// ErrStoreClosed indicates an operation on a closed store.
var ErrStoreClosed = errors.New("counter store is closed")

// Store is the narrow read/write contract the engine consumes.
//
// Read semantics:
//   - A missing hourly bucket reads as 0, never an error.
//   - A missing ViewData record reads as (nil, nil); absence is data.
//   - List operations are capped enumerations; hitting the cap yields a
//     truncated but valid answer.
type Store interface {
	// RecordView applies one view event: bumps the (video, hour) counter,
	// the denormalized ViewData record, and the hashtag index/totals.
	RecordView(ctx context.Context, event *models.ViewEvent) error

	// GetHourlyCount returns the view count for one wall-clock hour bucket.
	GetHourlyCount(ctx context.Context, videoID string, bucket int64) (int64, error)

	// GetViewData returns the current-state record for a video, or
	// (nil, nil) if the video has never been seen.
	GetViewData(ctx context.Context, videoID string) (*models.ViewData, error)

	// ListViewData enumerates up to limit current-state records in
	// ascending videoID order.
	ListViewData(ctx context.Context, limit int) ([]models.ViewData, error)

	// ListVideosForHashtag enumerates up to limit videoIDs tagged with the
	// normalized hashtag.
	ListVideosForHashtag(ctx context.Context, hashtag string, limit int) ([]string, error)

	// GetHashtagTotalViews returns the total view counter for a hashtag.
	GetHashtagTotalViews(ctx context.Context, hashtag string) (int64, error)

	// ListHashtagTotals enumerates up to limit (hashtag, views) pairs.
	ListHashtagTotals(ctx context.Context, limit int) ([]models.HashtagViews, error)

	// Close releases store resources.
	Close() error
}

// HourBucket converts a timestamp to its wall-clock Unix hour bucket.
// Buckets are addressed by hour, not sequence number, so series from
// different processes always align.
func HourBucket(t time.Time) int64 {
	return t.Unix() / 3600
}

// NormalizeHashtag canonicalizes a hashtag key: lowercase with any leading
// '#' stripped. Every lookup, index key, and cache key uses the normalized
// form.
func NormalizeHashtag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}
