// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

// Package metrics provides Prometheus instrumentation for the trending
// engine: result cache efficiency per namespace, fallback activations,
// circuit breaker state, computation latency, and ingest write outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Result cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_cache_hits_total",
			Help: "Total result cache hits by namespace",
		},
		[]string{"namespace"}, // trending, velocity, hashtag, hashtags, stats
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_cache_misses_total",
			Help: "Total result cache misses by namespace",
		},
		[]string{"namespace"},
	)

	// Primary/secondary fallback routing
	FallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_fallback_total",
			Help: "Total primary-source failures routed to the fallback aggregation",
		},
		[]string{"operation", "reason"}, // reason: error, empty, timeout, breaker_open
	)

	// Circuit breaker guarding the primary analytics store
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Scoring computation latency
	ComputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trending_compute_duration_seconds",
			Help:    "Duration of trending/velocity/hashtag computations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Batch scoring partial failures
	CandidateFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_candidate_failures_total",
			Help: "Candidates excluded from a batch due to fetch failure or timeout",
		},
		[]string{"operation"},
	)

	// Ingestion dual writes
	ViewWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "view_writes_total",
			Help: "View event write outcomes by sink",
		},
		[]string{"sink", "outcome"}, // sink: counters, analytics; outcome: success, failure
	)

	// Fire-and-forget refresh triggers
	RefreshTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trending_refresh_triggers_total",
			Help: "Out-of-band trending refresh triggers by outcome",
		},
		[]string{"outcome"}, // success, throttled, failure
	)
)
