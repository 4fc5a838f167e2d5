// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package trending

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/openvine/vinescope/internal/cache"
	"github.com/openvine/vinescope/internal/config"
	"github.com/openvine/vinescope/internal/counterstore"
	"github.com/openvine/vinescope/internal/logging"
	"github.com/openvine/vinescope/internal/metrics"
	"github.com/openvine/vinescope/internal/models"
)

// ErrNoData indicates both the primary analytics store and the counter
// store fallback failed to produce a result.
var ErrNoData = errors.New("no data available from primary or fallback")

// PrimarySource is the columnar analytics store behind the popular-videos
// and realtime endpoints. It may be slow or down; the Service treats it as
// optional and falls back to the counter store.
type PrimarySource interface {
	GetPopularVideos(ctx context.Context, window time.Duration, minViews int64, limit int, now time.Time) ([]models.ViewData, error)
	GetRealtimeMetrics(ctx context.Context, now time.Time) (*models.RealtimeMetrics, error)
	Ping(ctx context.Context) error
}

// Service fronts the Engine with a TTL cache and routes primary-backed
// reads through a circuit breaker with counter-store fallback. All
// rankings inside a single request share one captured timestamp so decay
// arithmetic stays consistent across candidates.
type Service struct {
	engine  *Engine
	primary PrimarySource
	cache   *cache.Cache
	cfg     *config.TrendingConfig

	breaker     *gobreaker.CircuitBreaker[any]
	refreshRate *rate.Limiter

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewService wires the cached, fault-tolerant trending surface. primary
// may be nil, in which case every primary-backed read serves from the
// counter store directly.
func NewService(engine *Engine, primary PrimarySource, c *cache.Cache, cfg *config.TrendingConfig) *Service {
	cbName := "primary-analytics"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit to primary analytics store")
			}
			return shouldTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	perMinute := cfg.RefreshPerMinute
	if perMinute <= 0 {
		perMinute = 1
	}

	return &Service{
		engine:      engine,
		primary:     primary,
		cache:       c,
		cfg:         cfg,
		breaker:     breaker,
		refreshRate: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		now:         time.Now,
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// cached runs compute through the read-through cache. The cached value is
// reused verbatim until its TTL lapses, so repeated requests within the
// window observe identical rankings.
func cached[T any](s *Service, namespace string, params map[string]interface{}, ttl time.Duration, compute func(now time.Time) (T, error)) (T, bool, error) {
	var zero T
	key := cache.GenerateKey(namespace, params)
	now := s.now()

	if rec, ok := s.cache.Get(key, now); ok {
		metrics.CacheHits.WithLabelValues(namespace).Inc()
		value, ok := rec.Value.(T)
		if !ok {
			// A namespace collision would be a programming error; recompute
			// rather than serve the wrong shape.
			logging.Error().Str("key", key).Msgf("Cache entry has unexpected type %T", rec.Value)
		} else {
			return value, true, nil
		}
	}
	metrics.CacheMisses.WithLabelValues(namespace).Inc()

	value, err := compute(now)
	if err != nil {
		return zero, false, err
	}
	s.cache.SetWithTTL(key, value, now, ttl)
	return value, false, nil
}

// GetTrending returns the cached time-decay ranking. The cached flag
// reports whether the result was served from cache.
func (s *Service) GetTrending(ctx context.Context) (*models.TrendingResult, bool, error) {
	return cached(s, "trending", map[string]interface{}{
		"min_views": s.cfg.MinViews,
		"top_n":     s.cfg.TopN,
	}, s.cfg.CacheTTL, func(now time.Time) (*models.TrendingResult, error) {
		return s.engine.ComputeTrending(ctx, s.cfg.MinViews, s.cfg.TopN, 0, now)
	})
}

// GetVelocityTrending returns the cached momentum ranking.
func (s *Service) GetVelocityTrending(ctx context.Context) ([]models.TrendingEntry, bool, error) {
	return cached(s, "velocity", map[string]interface{}{
		"top_n": s.cfg.TopN,
	}, s.cfg.CacheTTL, func(now time.Time) ([]models.TrendingEntry, error) {
		return s.engine.VelocityTrending(ctx, s.cfg.TopN, now)
	})
}

// GetHashtagTrending returns the cached per-hashtag ranking. The tag is
// normalized before keying, so case and "#" variants share one entry.
func (s *Service) GetHashtagTrending(ctx context.Context, tag, timeframe string) (*models.HashtagTrending, bool, error) {
	normalized := counterstore.NormalizeHashtag(tag)
	return cached(s, "hashtag", map[string]interface{}{
		"tag":       normalized,
		"timeframe": timeframe,
	}, s.cfg.CacheTTL, func(now time.Time) (*models.HashtagTrending, error) {
		return s.engine.HashtagTrending(ctx, normalized, timeframe, now)
	})
}

// GetTrendingHashtags returns the cached hashtag leaderboard.
func (s *Service) GetTrendingHashtags(ctx context.Context) ([]models.HashtagViews, bool, error) {
	return cached(s, "hashtags", map[string]interface{}{
		"top_n": s.cfg.TopN,
	}, s.cfg.CacheTTL, func(time.Time) ([]models.HashtagViews, error) {
		return s.engine.TrendingHashtags(ctx, s.cfg.TopN)
	})
}

// GetTimeWindowStats returns cached per-video window sums and velocity.
func (s *Service) GetTimeWindowStats(ctx context.Context, videoID string) (*models.TimeWindowStats, bool, error) {
	return cached(s, "stats", map[string]interface{}{
		"video_id": videoID,
	}, s.cfg.CacheTTL, func(now time.Time) (*models.TimeWindowStats, error) {
		return s.engine.TimeWindowStats(ctx, videoID, now), nil
	})
}

// GetPopularVideos serves the most-viewed ranking from the primary
// analytics store, falling back to the counter store when the primary
// errors, trips the breaker, or returns nothing. The degraded flag reports
// a fallback-served result.
func (s *Service) GetPopularVideos(ctx context.Context, window time.Duration, limit int) (*models.TrendingResult, bool, bool, error) {
	type popResult struct {
		result   *models.TrendingResult
		degraded bool
	}

	res, wasCached, err := cached(s, "popular", map[string]interface{}{
		"window": window.String(),
		"limit":  limit,
	}, s.cfg.CacheTTL, func(now time.Time) (popResult, error) {
		result, degraded, err := s.popularVideos(ctx, window, limit, now)
		if err != nil {
			return popResult{}, err
		}
		return popResult{result: result, degraded: degraded}, nil
	})
	if err != nil {
		return nil, false, false, err
	}
	return res.result, wasCached, res.degraded, nil
}

func (s *Service) popularVideos(ctx context.Context, window time.Duration, limit int, now time.Time) (*models.TrendingResult, bool, error) {
	if s.primary != nil {
		result, err := s.breaker.Execute(func() (any, error) {
			return s.primary.GetPopularVideos(ctx, window, s.cfg.MinViews, s.engineCandidateCap(limit), now)
		})
		if err == nil {
			candidates := result.([]models.ViewData)
			if len(candidates) > 0 {
				return RankByScore(candidates, s.cfg.MinViews, now, limit), false, nil
			}
			metrics.FallbackTotal.WithLabelValues("popular", "empty").Inc()
			logging.Debug().Msg("Primary returned no popular videos, serving counter store fallback")
		} else {
			metrics.FallbackTotal.WithLabelValues("popular", fallbackReason(err)).Inc()
			logging.Warn().Err(err).Msg("Primary popular-videos query failed, serving counter store fallback")
		}
	}

	result, err := s.engine.ComputeTrending(ctx, s.cfg.MinViews, limit, window, now)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrNoData, err)
	}
	return result, true, nil
}

// GetRealtimeMetrics serves liveness counters from the primary store with
// counter-store fallback, under the same degraded contract as
// GetPopularVideos.
func (s *Service) GetRealtimeMetrics(ctx context.Context) (*models.RealtimeMetrics, bool, error) {
	now := s.now()

	if s.primary != nil {
		result, err := s.breaker.Execute(func() (any, error) {
			return s.primary.GetRealtimeMetrics(ctx, now)
		})
		if err == nil {
			if m := result.(*models.RealtimeMetrics); m != nil {
				return m, false, nil
			}
		} else {
			metrics.FallbackTotal.WithLabelValues("realtime", fallbackReason(err)).Inc()
			logging.Warn().Err(err).Msg("Primary realtime query failed, serving counter store fallback")
		}
	}

	m, err := s.engine.RealtimeSnapshot(ctx, now)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrNoData, err)
	}
	return m, true, nil
}

// RefreshTrending recomputes the main trending ranking in the background
// and caches it under the longer refresh TTL. Calls beyond the configured
// per-minute budget are dropped, and the caller never waits on the
// recompute.
func (s *Service) RefreshTrending() bool {
	if !s.refreshRate.Allow() {
		metrics.RefreshTriggers.WithLabelValues("throttled").Inc()
		logging.Debug().Msg("Trending refresh throttled")
		return false
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		now := s.now()
		result, err := s.engine.ComputeTrending(ctx, s.cfg.MinViews, s.cfg.TopN, 0, now)
		if err != nil {
			metrics.RefreshTriggers.WithLabelValues("failure").Inc()
			logging.Warn().Err(err).Msg("Background trending refresh failed, keeping previous cache entry")
			return
		}

		key := cache.GenerateKey("trending", map[string]interface{}{
			"min_views": s.cfg.MinViews,
			"top_n":     s.cfg.TopN,
		})
		s.cache.SetWithTTL(key, result, now, s.cfg.RefreshTTL)
		metrics.RefreshTriggers.WithLabelValues("success").Inc()
		logging.Info().Int("videos", len(result.Videos)).Msg("Background trending refresh complete")
	}()
	return true
}

// PrimaryHealthy reports reachability of the primary analytics store.
func (s *Service) PrimaryHealthy(ctx context.Context) bool {
	if s.primary == nil {
		return false
	}
	return s.primary.Ping(ctx) == nil
}

// CacheStats exposes cache hit counters for the health surface.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.GetStats()
}

func (s *Service) engineCandidateCap(limit int) int {
	if limit > s.cfg.MaxCandidates {
		return limit
	}
	return s.cfg.MaxCandidates
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
