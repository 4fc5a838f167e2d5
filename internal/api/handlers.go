// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

// Package api provides the HTTP surface for the trending engine using the
// Chi router: ranked feeds, per-video stats, view ingestion, and health.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/openvine/vinescope/internal/counterstore"
	"github.com/openvine/vinescope/internal/logging"
	"github.com/openvine/vinescope/internal/metrics"
	"github.com/openvine/vinescope/internal/models"
	"github.com/openvine/vinescope/internal/trending"
)

var validate = validator.New()

// AnalyticsSink receives the analytics-side copy of ingested view events.
type AnalyticsSink interface {
	InsertViewEvent(ctx context.Context, event *models.ViewEvent) error
}

// Handler holds dependencies for all HTTP handlers.
type Handler struct {
	service   *trending.Service
	store     counterstore.Store
	analytics AnalyticsSink // nil disables the analytics-side write
	version   string
	startTime time.Time
}

// NewHandler creates the handler set backing the router.
func NewHandler(service *trending.Service, store counterstore.Store, analytics AnalyticsSink, version string) *Handler {
	return &Handler{
		service:   service,
		store:     store,
		analytics: analytics,
		version:   version,
		startTime: time.Now(),
	}
}

// Trending handles GET /api/v1/trending
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, cached, err := h.service.GetTrending(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "COMPUTE_FAILED", "Failed to compute trending videos", err)
		return
	}

	respondSuccess(w, result, start, cached, false)
}

// VelocityTrending handles GET /api/v1/trending/velocity
func (h *Handler) VelocityTrending(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	entries, cached, err := h.service.GetVelocityTrending(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "COMPUTE_FAILED", "Failed to compute velocity trending", err)
		return
	}

	respondSuccess(w, entries, start, cached, false)
}

// RefreshTrending handles POST /api/v1/trending/refresh.
// The recomputation runs out of band; the response only reports whether the
// trigger was accepted or throttled.
func (h *Handler) RefreshTrending(w http.ResponseWriter, r *http.Request) {
	accepted := h.service.RefreshTrending()

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"refresh_triggered": accepted,
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// TrendingHashtags handles GET /api/v1/trending/hashtags
func (h *Handler) TrendingHashtags(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	tags, cached, err := h.service.GetTrendingHashtags(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "COMPUTE_FAILED", "Failed to compute trending hashtags", err)
		return
	}

	respondSuccess(w, tags, start, cached, false)
}

// HashtagTrending handles GET /api/v1/trending/hashtags/{tag}
func (h *Handler) HashtagTrending(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	tag := chi.URLParam(r, "tag")
	if counterstore.NormalizeHashtag(tag) == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Hashtag must not be empty", nil)
		return
	}

	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "24h"
	}

	result, cached, err := h.service.GetHashtagTrending(r.Context(), tag, timeframe)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "COMPUTE_FAILED", "Failed to compute hashtag trending", err)
		return
	}

	respondSuccess(w, result, start, cached, false)
}

// VideoStats handles GET /api/v1/videos/{id}/stats
func (h *Handler) VideoStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	videoID := chi.URLParam(r, "id")
	if videoID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Video ID must not be empty", nil)
		return
	}

	stats, cached, err := h.service.GetTimeWindowStats(r.Context(), videoID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "COMPUTE_FAILED", "Failed to compute video stats", err)
		return
	}

	respondSuccess(w, stats, start, cached, false)
}

// AnalyticsPopular handles GET /api/v1/analytics/popular
func (h *Handler) AnalyticsPopular(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	window := getDurationParam(r, "window", 24*time.Hour)
	limit := getIntParam(r, "limit", 20)
	if limit < 1 || limit > 100 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be between 1 and 100", nil)
		return
	}

	result, cached, degraded, err := h.service.GetPopularVideos(r.Context(), window, limit)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "NO_DATA", "No popular-videos data available", err)
		return
	}

	respondSuccess(w, result, start, cached, degraded)
}

// AnalyticsRealtime handles GET /api/v1/analytics/realtime
func (h *Handler) AnalyticsRealtime(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	m, degraded, err := h.service.GetRealtimeMetrics(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "NO_DATA", "No realtime metrics available", err)
		return
	}

	respondSuccess(w, m, start, false, degraded)
}

// IngestView handles POST /api/v1/views.
//
// Dual write: the counter store write is authoritative and its failure
// fails the request; the analytics-side write is best effort and only
// logged. Missing timestamps default to arrival time.
func (h *Handler) IngestView(w http.ResponseWriter, r *http.Request) {
	var event models.ViewEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", err)
		return
	}

	if err := validate.Struct(&event); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "video_id is required", err)
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := h.store.RecordView(r.Context(), &event); err != nil {
		metrics.ViewWrites.WithLabelValues("counters", "failure").Inc()
		respondError(w, http.StatusInternalServerError, "WRITE_FAILED", "Failed to record view", err)
		return
	}
	metrics.ViewWrites.WithLabelValues("counters", "success").Inc()

	if h.analytics != nil {
		if err := h.analytics.InsertViewEvent(r.Context(), &event); err != nil {
			metrics.ViewWrites.WithLabelValues("analytics", "failure").Inc()
			logging.Ctx(r.Context()).Warn().Err(err).
				Str("video", sanitizeLogValue(event.VideoID)).
				Msg("Analytics-side view write failed, counter store write retained")
		} else {
			metrics.ViewWrites.WithLabelValues("analytics", "success").Inc()
		}
	}

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"video_id": event.VideoID,
			"recorded": true,
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// healthStatus is the payload for the health endpoints.
type healthStatus struct {
	Status         string    `json:"status"`
	Version        string    `json:"version"`
	UptimeSeconds  int64     `json:"uptime_seconds"`
	PrimaryHealthy bool      `json:"primary_healthy"`
	CacheHitRate   float64   `json:"cache_hit_rate"`
	Timestamp      time.Time `json:"timestamp"`
}

// Health handles GET /api/v1/health. Degraded (primary down) still reports
// 200: the fallback path keeps every read endpoint serving.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	primaryHealthy := h.service.PrimaryHealthy(ctx)
	status := "healthy"
	if !primaryHealthy {
		status = "degraded"
	}

	stats := h.service.CacheStats()
	hitRate := 0.0
	if total := stats.Hits + stats.Misses; total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: healthStatus{
			Status:         status,
			Version:        h.version,
			UptimeSeconds:  int64(time.Since(h.startTime).Seconds()),
			PrimaryHealthy: primaryHealthy,
			CacheHitRate:   hitRate,
			Timestamp:      time.Now(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthLive handles GET /api/v1/health/live (process liveness only).
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "alive"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles GET /api/v1/health/ready. Ready means the counter
// store answers; the primary analytics store is optional.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.store.ListViewData(ctx, 1); err != nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Counter store unavailable", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "ready"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
