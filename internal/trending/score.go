// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package trending

import (
	"sort"
	"time"

	"github.com/openvine/vinescope/internal/models"
)

// Score computes the time-decayed popularity score for a video:
//
//	score = count / (ageHours + 1)
//
// where ageHours is the time since the video's last view, clamped to >= 0.
// This is a harmonic decay: rank falls continuously as a video goes
// unwatched, so a recent burst can outrank a stale high-count video
// (count=40 at age 0h scores 40; count=50 at age 1h scores 25).
func Score(count int64, lastUpdate, now time.Time) float64 {
	ageHours := now.Sub(lastUpdate).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return float64(count) / (ageHours + 1)
}

// RankByScore filters, scores, and ranks candidates into a TrendingResult.
//
// Candidates with count < minViews are excluded entirely (hard filter,
// inclusive at exactly minViews). Survivors are sorted by score descending
// with ascending videoID as the deterministic tie-break, then truncated to
// topN. An empty candidate set yields an empty result, not an error.
func RankByScore(candidates []models.ViewData, minViews int64, now time.Time, topN int) *models.TrendingResult {
	entries := make([]models.TrendingEntry, 0, len(candidates))
	for _, vd := range candidates {
		if vd.Count < minViews {
			continue
		}
		entries = append(entries, models.TrendingEntry{
			VideoID:  vd.VideoID,
			Views:    vd.Count,
			Score:    Score(vd.Count, vd.LastUpdate, now),
			Title:    vd.Title,
			Hashtags: vd.Hashtags,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].VideoID < entries[j].VideoID
	})

	if len(entries) > topN {
		entries = entries[:topN]
	}

	return &models.TrendingResult{
		Videos:     entries,
		ComputedAt: now,
	}
}
