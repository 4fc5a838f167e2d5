// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openvine/vinescope/internal/config"
)

// Router owns route registration for the HTTP surface.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates a router from the handler set and server config.
func NewRouter(handler *Handler, cfg *config.ServerConfig) *Router {
	return &Router{
		handler: handler,
		middleware: NewMiddleware(MiddlewareConfig{
			CORSAllowedOrigins: cfg.CORSOrigins,
			RateLimitRequests:  cfg.RateLimitReqs,
			RateLimitWindow:    cfg.RateLimitWindow,
		}),
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())
	r.Use(AccessLog())

	// Health endpoints get a permissive rate budget so monitoring can poll
	// frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Trending read endpoints. All responses are cache-backed, so the
	// standard per-IP budget mostly guards cold-cache recomputation.
	r.Route("/api/v1/trending", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Get("/", router.handler.Trending)
		r.Get("/velocity", router.handler.VelocityTrending)
		r.Post("/refresh", router.handler.RefreshTrending)
		r.Get("/hashtags", router.handler.TrendingHashtags)
		r.Get("/hashtags/{tag}", router.handler.HashtagTrending)
	})

	r.Route("/api/v1/videos", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Get("/{id}/stats", router.handler.VideoStats)
	})

	// Primary-backed analytics with counter-store fallback.
	r.Route("/api/v1/analytics", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Get("/popular", router.handler.AnalyticsPopular)
		r.Get("/realtime", router.handler.AnalyticsRealtime)
	})

	// Ingestion
	r.Route("/api/v1/views", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Post("/", router.handler.IngestView)
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	return r
}
