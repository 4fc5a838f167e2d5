// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package trending

import (
	"context"
	"time"

	"github.com/openvine/vinescope/internal/counterstore"
	"github.com/openvine/vinescope/internal/logging"
	"github.com/openvine/vinescope/internal/models"
)

// HourlySeries reconstructs a video's per-hour view counts over the
// trailing lookback window.
//
// The result has length exactly hours, ordered oldest to newest, with the
// final entry covering the hour containing now. Missing or unreadable
// buckets are filled with 0 and never propagated as errors: callers depend
// on fixed-length alignment for acceleration math, and the series is a
// best-effort reconstruction of history, not an authoritative ledger.
func HourlySeries(ctx context.Context, store counterstore.Store, videoID string, hours int, now time.Time) []models.HourlyCount {
	if hours <= 0 {
		return []models.HourlyCount{}
	}

	nowBucket := counterstore.HourBucket(now)
	series := make([]models.HourlyCount, hours)
	for i := 0; i < hours; i++ {
		bucket := nowBucket - int64(hours-1-i)
		series[i].Bucket = bucket

		count, err := store.GetHourlyCount(ctx, videoID, bucket)
		if err != nil {
			logging.Debug().Err(err).Str("video", videoID).Int64("bucket", bucket).Msg("Unreadable hourly bucket, treating as 0")
			continue
		}
		series[i].Count = count
	}
	return series
}
