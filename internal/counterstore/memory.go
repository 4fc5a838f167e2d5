// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package counterstore

import (
	"context"
	"sort"
	"sync"

	"github.com/openvine/vinescope/internal/models"
)

// MemoryStore is an in-memory Store for tests and ephemeral deployments.
// Entries are lost on restart. Enumeration order is ascending key order so
// test runs are deterministic.
type MemoryStore struct {
	mu       sync.RWMutex
	hourly   map[string]map[int64]int64 // videoID -> bucket -> count
	viewData map[string]*models.ViewData
	tagIndex map[string]map[string]struct{} // hashtag -> set of videoIDs
	tagTotal map[string]int64
	closed   bool
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hourly:   make(map[string]map[int64]int64),
		viewData: make(map[string]*models.ViewData),
		tagIndex: make(map[string]map[string]struct{}),
		tagTotal: make(map[string]int64),
	}
}

// RecordView applies one view event to all derived counters.
func (s *MemoryStore) RecordView(ctx context.Context, event *models.ViewEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	ts := event.Timestamp
	bucket := HourBucket(ts)

	if s.hourly[event.VideoID] == nil {
		s.hourly[event.VideoID] = make(map[int64]int64)
	}
	s.hourly[event.VideoID][bucket]++

	vd := s.viewData[event.VideoID]
	if vd == nil {
		vd = &models.ViewData{VideoID: event.VideoID}
		s.viewData[event.VideoID] = vd
	}
	vd.Count++
	if ts.After(vd.LastUpdate) {
		vd.LastUpdate = ts
	}
	if event.Title != "" {
		vd.Title = event.Title
	}

	for _, raw := range event.Hashtags {
		tag := NormalizeHashtag(raw)
		if tag == "" {
			continue
		}
		if !containsTag(vd.Hashtags, tag) {
			vd.Hashtags = append(vd.Hashtags, tag)
		}
		if s.tagIndex[tag] == nil {
			s.tagIndex[tag] = make(map[string]struct{})
		}
		s.tagIndex[tag][event.VideoID] = struct{}{}
		s.tagTotal[tag]++
	}

	return nil
}

// GetHourlyCount returns the count for one hour bucket (missing = 0).
func (s *MemoryStore) GetHourlyCount(ctx context.Context, videoID string, bucket int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	return s.hourly[videoID][bucket], nil
}

// GetViewData returns the current-state record, or (nil, nil) if absent.
func (s *MemoryStore) GetViewData(ctx context.Context, videoID string) (*models.ViewData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	vd, ok := s.viewData[videoID]
	if !ok {
		return nil, nil
	}
	cp := *vd
	cp.Hashtags = append([]string(nil), vd.Hashtags...)
	return &cp, nil
}

// ListViewData enumerates up to limit records in ascending videoID order.
func (s *MemoryStore) ListViewData(ctx context.Context, limit int) ([]models.ViewData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	ids := make([]string, 0, len(s.viewData))
	for id := range s.viewData {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.ViewData, 0, min(limit, len(ids)))
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		out = append(out, *s.viewData[id])
	}
	return out, nil
}

// ListVideosForHashtag enumerates up to limit videoIDs for a hashtag.
func (s *MemoryStore) ListVideosForHashtag(ctx context.Context, hashtag string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	set := s.tagIndex[NormalizeHashtag(hashtag)]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// GetHashtagTotalViews returns the total view counter for a hashtag.
func (s *MemoryStore) GetHashtagTotalViews(ctx context.Context, hashtag string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	return s.tagTotal[NormalizeHashtag(hashtag)], nil
}

// ListHashtagTotals enumerates up to limit (hashtag, views) pairs in
// ascending hashtag order.
func (s *MemoryStore) ListHashtagTotals(ctx context.Context, limit int) ([]models.HashtagViews, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	tags := make([]string, 0, len(s.tagTotal))
	for tag := range s.tagTotal {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	out := make([]models.HashtagViews, 0, min(limit, len(tags)))
	for _, tag := range tags {
		if len(out) >= limit {
			break
		}
		out = append(out, models.HashtagViews{Hashtag: tag, Views: s.tagTotal[tag]})
	}
	return out, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
