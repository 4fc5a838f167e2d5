// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package trending

import (
	"math"

	"github.com/openvine/vinescope/internal/models"
)

// VelocityScore computes the momentum score for an hourly view series
// (oldest to newest). Momentum rewards acceleration, not level:
//
//  1. acceleration[i] = series[i] - series[i-1] for i in 1..H-1
//  2. weight[i] = e^(-(H-i)/decayHours), largest for the newest deltas
//     (decayHours=12 gives a recency half-life of ~8.3 hours)
//  3. rawVelocity = sum(acceleration*weight) / sum(weight)
//  4. rawVelocity <= 0 returns 0: decelerating or flat content scores
//     zero, it does not rank below "no data"
//  5. otherwise log10(rawVelocity+1) * 100, so a handful of outlier
//     videos cannot dominate the scale
//
// Fewer than 2 entries is insufficient history and returns 0, not an error.
// A constant delta of +d/hour yields rawVelocity == d exactly (the weights
// cancel).
func VelocityScore(series []models.HourlyCount, decayHours float64) float64 {
	h := len(series)
	if h < 2 {
		return 0
	}

	var sumWeight, sumWeighted float64
	for i := 1; i < h; i++ {
		accel := float64(series[i].Count - series[i-1].Count)
		hoursAgo := float64(h - i)
		weight := math.Exp(-hoursAgo / decayHours)
		sumWeight += weight
		sumWeighted += accel * weight
	}

	rawVelocity := sumWeighted / sumWeight
	if rawVelocity <= 0 {
		return 0
	}
	return math.Log10(rawVelocity+1) * 100
}

// windowHours defines the trailing windows summarized by TimeWindowStats,
// ordered smallest first. Membership is half-open: an entry counts toward a
// window when its age in hours is strictly less than the window size (the
// current hour has age 0 and counts toward every window).
var windowHours = []int{1, 6, 24, 7 * 24, 30 * 24}

// sumWindows sums a series (oldest to newest, newest = current hour) over
// each trailing window. The series should be at least as long as the
// largest window; shorter series simply contribute what they have.
func sumWindows(series []models.HourlyCount) [5]int64 {
	var sums [5]int64
	h := len(series)
	for i, entry := range series {
		age := h - 1 - i
		for w, window := range windowHours {
			if age < window {
				sums[w] += entry.Count
			}
		}
	}
	return sums
}
