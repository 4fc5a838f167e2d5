// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package trending

import (
	"math"
	"testing"

	"github.com/openvine/vinescope/internal/models"
)

// seriesFromCounts builds an hourly series oldest to newest; bucket values
// are irrelevant to velocity math.
func seriesFromCounts(counts ...int64) []models.HourlyCount {
	series := make([]models.HourlyCount, len(counts))
	for i, c := range counts {
		series[i] = models.HourlyCount{Bucket: int64(i), Count: c}
	}
	return series
}

func TestVelocityScoreInsufficientHistory(t *testing.T) {
	if got := VelocityScore(nil, 12); got != 0 {
		t.Errorf("empty series = %v, want 0", got)
	}
	if got := VelocityScore(seriesFromCounts(100), 12); got != 0 {
		t.Errorf("single-entry series = %v, want 0", got)
	}
}

func TestVelocityScoreFlatSeries(t *testing.T) {
	series := seriesFromCounts(50, 50, 50, 50, 50, 50)
	if got := VelocityScore(series, 12); got != 0 {
		t.Errorf("flat series = %v, want 0", got)
	}
}

func TestVelocityScoreDeceleration(t *testing.T) {
	series := seriesFromCounts(100, 80, 60, 40, 20, 10)
	if got := VelocityScore(series, 12); got != 0 {
		t.Errorf("decelerating series = %v, want 0 (never negative)", got)
	}
}

func TestVelocityScoreConstantAcceleration(t *testing.T) {
	// Constant +5/hour deltas: the decay weights cancel and rawVelocity
	// is exactly 5, so the score is log10(6)*100 regardless of length.
	counts := make([]int64, 24)
	for i := range counts {
		counts[i] = int64(i * 5)
	}
	want := math.Log10(6) * 100

	got := VelocityScore(seriesFromCounts(counts...), 12)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("constant +5/hour = %v, want %v", got, want)
	}
}

func TestVelocityScoreRewardsRecentAcceleration(t *testing.T) {
	// Same total views and same single +60 jump, placed early vs late.
	early := seriesFromCounts(0, 60, 60, 60, 60, 60, 60, 60, 60, 60, 60, 60)
	late := seriesFromCounts(0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 60)

	earlyScore := VelocityScore(early, 12)
	lateScore := VelocityScore(late, 12)

	if lateScore <= earlyScore {
		t.Errorf("recent jump (%v) should outscore the same jump 11 hours ago (%v)", lateScore, earlyScore)
	}
}

func TestVelocityScoreLogCompression(t *testing.T) {
	// A 10x larger raw velocity gains only +100 on the score scale
	// (approximately, since log10(10d+1) - log10(d+1) -> 100 for large d).
	small := VelocityScore(seriesFromCounts(0, 100, 200, 300), 12)
	large := VelocityScore(seriesFromCounts(0, 1000, 2000, 3000), 12)

	if large <= small {
		t.Fatalf("larger acceleration must score higher: %v vs %v", large, small)
	}
	if gap := large - small; gap > 110 {
		t.Errorf("log compression should cap a 10x raw gap near 100 points, got %v", gap)
	}
}

func TestSumWindows(t *testing.T) {
	// One view every hour for 30 days: each window sums to its size.
	counts := make([]int64, 30*24)
	for i := range counts {
		counts[i] = 1
	}

	sums := sumWindows(seriesFromCounts(counts...))
	want := [5]int64{1, 6, 24, 7 * 24, 30 * 24}
	if sums != want {
		t.Errorf("sumWindows = %v, want %v", sums, want)
	}
}

func TestSumWindowsShortSeries(t *testing.T) {
	// A 3-hour series contributes what it has to every window.
	sums := sumWindows(seriesFromCounts(10, 20, 30))
	want := [5]int64{30, 60, 60, 60, 60}
	if sums != want {
		t.Errorf("sumWindows = %v, want %v", sums, want)
	}
}
