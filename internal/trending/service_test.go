// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package trending

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openvine/vinescope/internal/cache"
	"github.com/openvine/vinescope/internal/counterstore"
	"github.com/openvine/vinescope/internal/models"
)

// countingStore counts ListViewData calls to observe cache behavior.
type countingStore struct {
	*counterstore.MemoryStore
	listCalls atomic.Int64
}

func (s *countingStore) ListViewData(ctx context.Context, limit int) ([]models.ViewData, error) {
	s.listCalls.Add(1)
	return s.MemoryStore.ListViewData(ctx, limit)
}

// failingPrimary simulates a down or empty analytics store.
type failingPrimary struct {
	err   error
	empty bool
	pings atomic.Int64
}

func (p *failingPrimary) GetPopularVideos(ctx context.Context, window time.Duration, minViews int64, limit int, now time.Time) ([]models.ViewData, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.empty {
		return []models.ViewData{}, nil
	}
	return []models.ViewData{{VideoID: "from-primary", Count: 100, LastUpdate: now}}, nil
}

func (p *failingPrimary) GetRealtimeMetrics(ctx context.Context, now time.Time) (*models.RealtimeMetrics, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &models.RealtimeMetrics{ViewsLastHour: 7, ComputedAt: now}, nil
}

func (p *failingPrimary) Ping(ctx context.Context) error {
	p.pings.Add(1)
	return p.err
}

func newTestService(t *testing.T, store counterstore.Store, primary PrimarySource) *Service {
	t.Helper()
	cfg := testTrendingConfig()
	engine := NewEngine(store, cfg)
	svc := NewService(engine, primary, cache.New(cfg.CacheTTL), cfg)

	frozen := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }
	return svc
}

func TestGetTrendingCachesWithinTTL(t *testing.T) {
	store := &countingStore{MemoryStore: counterstore.NewMemoryStore()}
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	seedViews(t, store.MemoryStore, "v1", 20, now.Add(-time.Hour))
	seedViews(t, store.MemoryStore, "v2", 40, now)

	svc := newTestService(t, store, nil)

	first, cached, err := svc.GetTrending(context.Background())
	if err != nil {
		t.Fatalf("GetTrending: %v", err)
	}
	if cached {
		t.Error("first call must be a cache miss")
	}

	second, cached, err := svc.GetTrending(context.Background())
	if err != nil {
		t.Fatalf("GetTrending (cached): %v", err)
	}
	if !cached {
		t.Error("second call within TTL must be a cache hit")
	}

	if store.listCalls.Load() != 1 {
		t.Errorf("store enumerated %d times, want 1 (second call served from cache)", store.listCalls.Load())
	}

	if len(first.Videos) != len(second.Videos) {
		t.Fatalf("cached result differs in size")
	}
	for i := range first.Videos {
		if !reflect.DeepEqual(first.Videos[i], second.Videos[i]) {
			t.Errorf("entry %d differs between call and cached replay", i)
		}
	}
	if !first.ComputedAt.Equal(second.ComputedAt) {
		t.Errorf("cached result must keep the original ComputedAt")
	}
}

func TestGetTrendingRecomputesAfterTTL(t *testing.T) {
	store := &countingStore{MemoryStore: counterstore.NewMemoryStore()}
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	seedViews(t, store.MemoryStore, "v1", 20, base)

	svc := newTestService(t, store, nil)

	if _, _, err := svc.GetTrending(context.Background()); err != nil {
		t.Fatalf("GetTrending: %v", err)
	}

	// Advance past the 300s TTL.
	svc.now = func() time.Time { return base.Add(301 * time.Second) }

	_, cached, err := svc.GetTrending(context.Background())
	if err != nil {
		t.Fatalf("GetTrending after TTL: %v", err)
	}
	if cached {
		t.Error("call after TTL expiry must recompute")
	}
	if store.listCalls.Load() != 2 {
		t.Errorf("store enumerated %d times, want 2", store.listCalls.Load())
	}
}

func TestGetHashtagTrendingCacheKeyNormalization(t *testing.T) {
	store := counterstore.NewMemoryStore()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	seedViews(t, store, "v1", 5, now, "dance")

	svc := newTestService(t, store, nil)

	if _, cached, err := svc.GetHashtagTrending(context.Background(), "#Dance", "24h"); err != nil || cached {
		t.Fatalf("first lookup: cached=%v err=%v", cached, err)
	}

	// Different spelling, same normalized tag: must hit the same entry.
	_, cached, err := svc.GetHashtagTrending(context.Background(), "DANCE", "24h")
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if !cached {
		t.Error("tag spellings normalizing to the same hashtag must share a cache entry")
	}

	// A different timeframe is a different entry.
	if _, cached, err := svc.GetHashtagTrending(context.Background(), "dance", "7d"); err != nil || cached {
		t.Errorf("different timeframe must not share the cache entry: cached=%v err=%v", cached, err)
	}
}

func TestGetPopularVideosFallsBackOnPrimaryError(t *testing.T) {
	store := counterstore.NewMemoryStore()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	seedViews(t, store, "fallback-video", 30, now.Add(-time.Hour))

	primary := &failingPrimary{err: errors.New("connection refused")}
	svc := newTestService(t, store, primary)

	result, _, degraded, err := svc.GetPopularVideos(context.Background(), 24*time.Hour, 10)
	if err != nil {
		t.Fatalf("fallback must serve the request: %v", err)
	}
	if !degraded {
		t.Error("fallback-served result must be flagged degraded")
	}
	if len(result.Videos) != 1 || result.Videos[0].VideoID != "fallback-video" {
		t.Errorf("expected counter store ranking, got %+v", result.Videos)
	}
}

func TestGetPopularVideosFallsBackOnEmptyPrimary(t *testing.T) {
	store := counterstore.NewMemoryStore()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	seedViews(t, store, "fallback-video", 30, now.Add(-time.Hour))

	primary := &failingPrimary{empty: true}
	svc := newTestService(t, store, primary)

	result, _, degraded, err := svc.GetPopularVideos(context.Background(), 24*time.Hour, 10)
	if err != nil {
		t.Fatalf("empty primary must fall back, not fail: %v", err)
	}
	if !degraded {
		t.Error("empty-primary fallback must be flagged degraded")
	}
	if len(result.Videos) == 0 {
		t.Error("fallback should produce the counter store ranking")
	}
}

func TestGetPopularVideosPrefersPrimary(t *testing.T) {
	store := counterstore.NewMemoryStore()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	seedViews(t, store, "counter-video", 5, now)

	primary := &failingPrimary{}
	svc := newTestService(t, store, primary)

	result, _, degraded, err := svc.GetPopularVideos(context.Background(), 24*time.Hour, 10)
	if err != nil {
		t.Fatalf("GetPopularVideos: %v", err)
	}
	if degraded {
		t.Error("healthy primary must not be flagged degraded")
	}
	if len(result.Videos) != 1 || result.Videos[0].VideoID != "from-primary" {
		t.Errorf("expected primary-backed ranking, got %+v", result.Videos)
	}
}

func TestGetRealtimeMetricsFallback(t *testing.T) {
	store := counterstore.NewMemoryStore()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	seedViews(t, store, "v1", 3, now)

	primary := &failingPrimary{err: errors.New("io timeout")}
	svc := newTestService(t, store, primary)

	m, degraded, err := svc.GetRealtimeMetrics(context.Background())
	if err != nil {
		t.Fatalf("fallback must serve realtime metrics: %v", err)
	}
	if !degraded {
		t.Error("fallback-served metrics must be flagged degraded")
	}
	if m.ViewsLastHour != 3 {
		t.Errorf("ViewsLastHour = %d, want 3 from the counter store", m.ViewsLastHour)
	}
}

func TestGetPopularVideosBothPathsFail(t *testing.T) {
	mem := counterstore.NewMemoryStore()
	if err := mem.Close(); err != nil {
		t.Fatal(err)
	}

	primary := &failingPrimary{err: errors.New("primary down")}
	svc := newTestService(t, mem, primary)

	_, _, _, err := svc.GetPopularVideos(context.Background(), 24*time.Hour, 10)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("both paths failing must return ErrNoData, got %v", err)
	}
}

func TestRefreshTrendingThrottled(t *testing.T) {
	store := counterstore.NewMemoryStore()
	cfg := testTrendingConfig()
	cfg.RefreshPerMinute = 1

	engine := NewEngine(store, cfg)
	svc := NewService(engine, nil, cache.New(cfg.CacheTTL), cfg)

	if !svc.RefreshTrending() {
		t.Error("first refresh trigger should be accepted")
	}
	if svc.RefreshTrending() {
		t.Error("second immediate trigger should be throttled at 1/minute")
	}
}
