// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package trending

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openvine/vinescope/internal/config"
	"github.com/openvine/vinescope/internal/counterstore"
	"github.com/openvine/vinescope/internal/logging"
	"github.com/openvine/vinescope/internal/metrics"
	"github.com/openvine/vinescope/internal/models"
)

// Engine computes rankings directly from the counter store. It is the
// approximate aggregation path: always available as long as the counter
// store is, and used both for on-demand trending and as the fallback behind
// the primary analytics store.
//
// Candidate enumeration is capped (cfg.MaxCandidates); very large catalogs
// are never exhaustively scanned. A capped enumeration produces a
// truncated but valid ranking, which is a deliberate latency/cost trade.
type Engine struct {
	store counterstore.Store
	cfg   *config.TrendingConfig
}

// NewEngine creates a scoring engine over a counter store.
func NewEngine(store counterstore.Store, cfg *config.TrendingConfig) *Engine {
	return &Engine{store: store, cfg: cfg}
}

// ComputeTrending produces the time-decay popularity ranking.
//
// window > 0 additionally restricts candidates to those last viewed within
// the trailing window (used by the popular-videos fallback path); window 0
// considers every enumerated candidate.
func (e *Engine) ComputeTrending(ctx context.Context, minViews int64, topN int, window time.Duration, now time.Time) (*models.TrendingResult, error) {
	start := time.Now()
	defer func() {
		metrics.ComputeDuration.WithLabelValues("trending").Observe(time.Since(start).Seconds())
	}()

	candidates, err := e.store.ListViewData(ctx, e.cfg.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate trending candidates: %w", err)
	}

	if window > 0 {
		filtered := candidates[:0]
		for _, vd := range candidates {
			if now.Sub(vd.LastUpdate) < window {
				filtered = append(filtered, vd)
			}
		}
		candidates = filtered
	}

	return RankByScore(candidates, minViews, now, topN), nil
}

// VelocityScore computes the momentum score for a single video from its
// trailing hourly series.
func (e *Engine) VelocityScore(ctx context.Context, videoID string, now time.Time) float64 {
	series := HourlySeries(ctx, e.store, videoID, e.cfg.VelocityWindowHours, now)
	return VelocityScore(series, e.cfg.VelocityDecayHours)
}

// VelocityTrending ranks candidates by momentum. Scoring fans out over a
// bounded worker group; each candidate's series reads are bounded by the
// configured fetch timeout, and a timed-out candidate scores like one with
// no history (excluded by the > 0 filter) rather than failing the batch.
func (e *Engine) VelocityTrending(ctx context.Context, topN int, now time.Time) ([]models.TrendingEntry, error) {
	start := time.Now()
	defer func() {
		metrics.ComputeDuration.WithLabelValues("velocity").Observe(time.Since(start).Seconds())
	}()

	candidates, err := e.store.ListViewData(ctx, e.cfg.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate velocity candidates: %w", err)
	}

	entries := make([]models.TrendingEntry, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.FanOutWidth)

	for i, vd := range candidates {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, e.cfg.FetchTimeout)
			defer cancel()

			velocity := e.VelocityScore(fetchCtx, vd.VideoID, now)
			entries[i] = models.TrendingEntry{
				VideoID:  vd.VideoID,
				Views:    vd.Count,
				Score:    Score(vd.Count, vd.LastUpdate, now),
				Velocity: velocity,
				Title:    vd.Title,
				Hashtags: vd.Hashtags,
			}
			return nil
		})
	}
	// Workers only record results, they never fail the group.
	_ = g.Wait()

	rising := entries[:0]
	for _, entry := range entries {
		if entry.Velocity > 0 {
			rising = append(rising, entry)
		}
	}

	sort.Slice(rising, func(i, j int) bool {
		if rising[i].Velocity != rising[j].Velocity {
			return rising[i].Velocity > rising[j].Velocity
		}
		return rising[i].VideoID < rising[j].VideoID
	})

	if len(rising) > topN {
		rising = rising[:topN]
	}
	return rising, nil
}

// TimeWindowStats sums a video's views over the trailing 1h/6h/24h/7d/30d
// windows and attaches its velocity score. Series reconstruction never
// fails, so neither does this; an unknown video reports all zeros.
func (e *Engine) TimeWindowStats(ctx context.Context, videoID string, now time.Time) *models.TimeWindowStats {
	start := time.Now()
	defer func() {
		metrics.ComputeDuration.WithLabelValues("stats").Observe(time.Since(start).Seconds())
	}()

	// One 30-day series serves every window sum.
	series := HourlySeries(ctx, e.store, videoID, 30*24, now)
	sums := sumWindows(series)

	// Velocity uses the configured (shorter) lookback over the same tail.
	tail := series
	if len(tail) > e.cfg.VelocityWindowHours {
		tail = tail[len(tail)-e.cfg.VelocityWindowHours:]
	}

	return &models.TimeWindowStats{
		VideoID:       videoID,
		Views1H:       sums[0],
		Views6H:       sums[1],
		Views24H:      sums[2],
		Views7D:       sums[3],
		Views30D:      sums[4],
		VelocityScore: VelocityScore(tail, e.cfg.VelocityDecayHours),
	}
}

// RealtimeSnapshot approximates catalog liveness from the counter store.
// This is the fallback behind the primary analytics store's realtime
// metrics: bounded by the candidate cap and coarser than the primary, but
// always available.
func (e *Engine) RealtimeSnapshot(ctx context.Context, now time.Time) (*models.RealtimeMetrics, error) {
	candidates, err := e.store.ListViewData(ctx, e.cfg.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate realtime candidates: %w", err)
	}

	m := &models.RealtimeMetrics{ComputedAt: now}
	nowBucket := counterstore.HourBucket(now)

	for _, vd := range candidates {
		if now.Sub(vd.LastUpdate) >= 24*time.Hour {
			continue
		}
		m.ActiveVideos++

		hourCount, err := e.store.GetHourlyCount(ctx, vd.VideoID, nowBucket)
		if err != nil {
			logging.Debug().Err(err).Str("video", vd.VideoID).Msg("Unreadable current-hour bucket in realtime snapshot")
			continue
		}
		m.ViewsLastHour += hourCount

		for _, entry := range HourlySeries(ctx, e.store, vd.VideoID, 24, now) {
			m.ViewsLastDay += entry.Count
		}
	}
	return m, nil
}
