// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package trending

import (
	"context"
	"testing"
	"time"

	"github.com/openvine/vinescope/internal/counterstore"
	"github.com/openvine/vinescope/internal/models"
)

func recordViewAt(t *testing.T, store counterstore.Store, videoID string, ts time.Time) {
	t.Helper()
	err := store.RecordView(context.Background(), &models.ViewEvent{
		VideoID:   videoID,
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("RecordView(%s, %s): %v", videoID, ts, err)
	}
}

func TestHourlySeriesFixedLengthWithGaps(t *testing.T) {
	store := counterstore.NewMemoryStore()
	now := time.Date(2026, 8, 31, 12, 30, 0, 0, time.UTC)

	// Views in the current hour and 3 hours ago; hours 1, 2, 4 are gaps.
	recordViewAt(t, store, "v1", now)
	recordViewAt(t, store, "v1", now)
	recordViewAt(t, store, "v1", now.Add(-3*time.Hour))

	series := HourlySeries(context.Background(), store, "v1", 5, now)

	if len(series) != 5 {
		t.Fatalf("series length = %d, want exactly 5", len(series))
	}

	want := []int64{0, 1, 0, 0, 2} // oldest to newest
	for i, entry := range series {
		if entry.Count != want[i] {
			t.Errorf("series[%d].Count = %d, want %d", i, entry.Count, want[i])
		}
	}

	// Buckets are consecutive wall-clock hours ending at now's bucket.
	lastBucket := counterstore.HourBucket(now)
	for i, entry := range series {
		wantBucket := lastBucket - int64(len(series)-1-i)
		if entry.Bucket != wantBucket {
			t.Errorf("series[%d].Bucket = %d, want %d", i, entry.Bucket, wantBucket)
		}
	}
}

func TestHourlySeriesUnknownVideoAllZeros(t *testing.T) {
	store := counterstore.NewMemoryStore()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	series := HourlySeries(context.Background(), store, "never-seen", 24, now)
	if len(series) != 24 {
		t.Fatalf("series length = %d, want 24", len(series))
	}
	for i, entry := range series {
		if entry.Count != 0 {
			t.Errorf("series[%d].Count = %d, want 0", i, entry.Count)
		}
	}
}

func TestHourlySeriesNonPositiveHours(t *testing.T) {
	store := counterstore.NewMemoryStore()
	now := time.Now()

	if got := HourlySeries(context.Background(), store, "v1", 0, now); len(got) != 0 {
		t.Errorf("hours=0 should yield an empty series, got %d entries", len(got))
	}
}
