// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package trending

import (
	"math"
	"testing"
	"time"

	"github.com/openvine/vinescope/internal/models"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestScore(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		count      int64
		lastUpdate time.Time
		want       float64
	}{
		{
			name:       "100 views 2 hours ago",
			count:      100,
			lastUpdate: now.Add(-2 * time.Hour),
			want:       100.0 / 3.0,
		},
		{
			name:       "just viewed scores full count",
			count:      100,
			lastUpdate: now,
			want:       100,
		},
		{
			name:       "half decay after one hour",
			count:      100,
			lastUpdate: now.Add(-time.Hour),
			want:       50,
		},
		{
			name:       "future timestamp clamps to age zero",
			count:      100,
			lastUpdate: now.Add(30 * time.Minute),
			want:       100,
		},
		{
			name:       "zero views scores zero",
			count:      0,
			lastUpdate: now,
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.count, tt.lastUpdate, now)
			if !almostEqual(got, tt.want) {
				t.Errorf("Score(%d, age %s) = %v, want %v", tt.count, now.Sub(tt.lastUpdate), got, tt.want)
			}
		})
	}
}

func TestScoreRecentBurstBeatsStaleVolume(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	burst := Score(40, now, now)                   // 40 views just now
	stale := Score(50, now.Add(-time.Hour), now)   // 50 views an hour ago
	older := Score(500, now.Add(-48*time.Hour), now)

	if burst <= stale {
		t.Errorf("recent burst (%v) should outrank stale volume (%v)", burst, stale)
	}
	if burst <= older {
		t.Errorf("recent burst (%v) should outrank 2-day-old volume (%v)", burst, older)
	}
}

func TestRankByScoreMinViewsThreshold(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	candidates := []models.ViewData{
		{VideoID: "below", Count: 9, LastUpdate: now},
		{VideoID: "exact", Count: 10, LastUpdate: now},
		{VideoID: "above", Count: 11, LastUpdate: now},
	}

	result := RankByScore(candidates, 10, now, 20)

	if len(result.Videos) != 2 {
		t.Fatalf("expected 2 videos above threshold, got %d", len(result.Videos))
	}
	for _, v := range result.Videos {
		if v.VideoID == "below" {
			t.Errorf("video below minViews must be excluded, not down-ranked")
		}
		if v.VideoID == "exact" && v.Views != 10 {
			t.Errorf("video at exactly minViews must be included")
		}
	}
}

func TestRankByScoreDeterministicTieBreak(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	// Identical counts and timestamps produce identical scores.
	candidates := []models.ViewData{
		{VideoID: "video-c", Count: 50, LastUpdate: now},
		{VideoID: "video-a", Count: 50, LastUpdate: now},
		{VideoID: "video-b", Count: 50, LastUpdate: now},
	}

	first := RankByScore(candidates, 0, now, 20)
	second := RankByScore(candidates, 0, now, 20)

	wantOrder := []string{"video-a", "video-b", "video-c"}
	for i, want := range wantOrder {
		if first.Videos[i].VideoID != want {
			t.Errorf("position %d: got %s, want %s (ascending videoID tie-break)", i, first.Videos[i].VideoID, want)
		}
		if first.Videos[i].VideoID != second.Videos[i].VideoID {
			t.Errorf("position %d differs between identical passes", i)
		}
	}
}

func TestRankByScoreTruncatesToTopN(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	candidates := make([]models.ViewData, 30)
	for i := range candidates {
		candidates[i] = models.ViewData{
			VideoID:    string(rune('a' + i%26)),
			Count:      int64(i + 1),
			LastUpdate: now,
		}
	}

	result := RankByScore(candidates, 0, now, 5)
	if len(result.Videos) != 5 {
		t.Errorf("expected topN=5 truncation, got %d entries", len(result.Videos))
	}
}

func TestRankByScoreEmptyInput(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	result := RankByScore(nil, 10, now, 20)
	if result == nil {
		t.Fatal("empty input must yield an empty result, not nil")
	}
	if len(result.Videos) != 0 {
		t.Errorf("expected empty video list, got %d", len(result.Videos))
	}
	if !result.ComputedAt.Equal(now) {
		t.Errorf("ComputedAt = %v, want the captured now %v", result.ComputedAt, now)
	}
}
