// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package trending

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openvine/vinescope/internal/counterstore"
	"github.com/openvine/vinescope/internal/logging"
	"github.com/openvine/vinescope/internal/metrics"
	"github.com/openvine/vinescope/internal/models"
)

// TimeframeWindow maps an API timeframe label to a trailing duration.
// "all" (and a zero return) means no cutoff; unrecognized labels fall back
// to 24h so a typo degrades to the default view instead of erroring.
func TimeframeWindow(timeframe string) time.Duration {
	switch timeframe {
	case "1h":
		return time.Hour
	case "6h":
		return 6 * time.Hour
	case "24h":
		return 24 * time.Hour
	case "7d":
		return 7 * 24 * time.Hour
	case "30d":
		return 30 * 24 * time.Hour
	case "all":
		return 0
	default:
		return 24 * time.Hour
	}
}

// HashtagTrending ranks the videos carrying a hashtag. The tag is
// normalized before any store access, so "#Comedy" and "comedy" resolve to
// the same index. Candidates whose view data cannot be fetched are logged
// and excluded; a partially readable index still produces a ranking.
func (e *Engine) HashtagTrending(ctx context.Context, tag, timeframe string, now time.Time) (*models.HashtagTrending, error) {
	start := time.Now()
	defer func() {
		metrics.ComputeDuration.WithLabelValues("hashtag").Observe(time.Since(start).Seconds())
	}()

	normalized := counterstore.NormalizeHashtag(tag)

	videoIDs, err := e.store.ListVideosForHashtag(ctx, normalized, e.cfg.HashtagCandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate videos for hashtag %q: %w", normalized, err)
	}

	candidates := make([]*models.ViewData, len(videoIDs))
	var failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.FanOutWidth)
	for i, videoID := range videoIDs {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, e.cfg.FetchTimeout)
			defer cancel()

			vd, err := e.store.GetViewData(fetchCtx, videoID)
			if err != nil {
				logging.Warn().Err(err).Str("video", videoID).Str("hashtag", normalized).
					Msg("Excluding unreadable candidate from hashtag ranking")
				metrics.CandidateFailures.WithLabelValues("hashtag").Inc()
				failures.Add(1)
				return nil
			}
			candidates[i] = vd
			return nil
		})
	}
	_ = g.Wait()
	if n := failures.Load(); n > 0 {
		logging.Debug().Int64("failures", n).Str("hashtag", normalized).
			Msg("Hashtag ranking computed from partial candidate set")
	}

	window := TimeframeWindow(timeframe)
	scored := make([]models.ViewData, 0, len(candidates))
	for _, vd := range candidates {
		if vd == nil {
			continue
		}
		if window > 0 && now.Sub(vd.LastUpdate) >= window {
			continue
		}
		scored = append(scored, *vd)
	}

	// Hashtag rankings keep every in-window candidate; the global minViews
	// floor applies only to the catalog-wide trending feed.
	ranked := RankByScore(scored, 0, now, e.cfg.HashtagTopVideos)

	totalViews, err := e.store.GetHashtagTotalViews(ctx, normalized)
	if err != nil {
		logging.Warn().Err(err).Str("hashtag", normalized).Msg("Unreadable hashtag total, reporting zero")
		totalViews = 0
	}

	// VideoCount reports every candidate that survived the timeframe
	// filter, not just the truncated top list.
	return &models.HashtagTrending{
		Hashtag:    normalized,
		Timeframe:  timeframe,
		VideoCount: len(scored),
		TotalViews: totalViews,
		TopVideos:  ranked.Videos,
		ComputedAt: now,
	}, nil
}

// TrendingHashtags ranks hashtags by lifetime view totals. Tags with zero
// recorded views are dropped; ties order lexicographically for stable
// output.
func (e *Engine) TrendingHashtags(ctx context.Context, topN int) ([]models.HashtagViews, error) {
	totals, err := e.store.ListHashtagTotals(ctx, e.cfg.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate hashtag totals: %w", err)
	}

	ranked := totals[:0]
	for _, ht := range totals {
		if ht.Views > 0 {
			ranked = append(ranked, ht)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Views != ranked[j].Views {
			return ranked[i].Views > ranked[j].Views
		}
		return ranked[i].Hashtag < ranked[j].Hashtag
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}
