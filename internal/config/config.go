// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

// Package config provides layered configuration for Vinescope.
//
// Configuration is loaded with Koanf v2 from three layers, later layers
// overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML config file (CONFIG_PATH or well-known paths)
//  3. Environment variables (e.g. TRENDING_MIN_VIEWS -> trending.min_views)
//
// The engine's tuning knobs (minimum views, enumeration caps, cache TTLs,
// velocity window) are deliberately configuration rather than constants:
// they are operational trade-offs, not behavior.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Vinescope server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Database DatabaseConfig `koanf:"database"`
	Trending TrendingConfig `koanf:"trending"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
}

// StoreConfig holds counter store (BadgerDB) settings.
type StoreConfig struct {
	// Path is the BadgerDB directory. Empty with InMemory=true runs fully
	// in memory (tests, ephemeral deploys).
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// DatabaseConfig holds DuckDB analytics store settings.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads" validate:"gte=0"`
}

// TrendingConfig holds the scoring engine's tuning knobs.
type TrendingConfig struct {
	// MinViews is the hard inclusion threshold for trending output.
	// Candidates with count < MinViews are excluded, not down-ranked.
	MinViews int64 `koanf:"min_views" validate:"gte=0"`

	// TopN is the default size of ranked output lists.
	TopN int `koanf:"top_n" validate:"gte=1,lte=100"`

	// MaxCandidates caps global candidate enumeration per computation.
	// Hitting the cap yields a truncated but valid answer.
	MaxCandidates int `koanf:"max_candidates" validate:"gte=1"`

	// HashtagCandidateLimit caps per-hashtag candidate enumeration.
	HashtagCandidateLimit int `koanf:"hashtag_candidate_limit" validate:"gte=1"`

	// HashtagTopVideos caps the topVideos list in hashtag rankings.
	HashtagTopVideos int `koanf:"hashtag_top_videos" validate:"gte=1"`

	// VelocityWindowHours is the hourly lookback for velocity scoring.
	VelocityWindowHours int `koanf:"velocity_window_hours" validate:"gte=2"`

	// VelocityDecayHours is the exponential decay divisor for delta
	// weighting (half-life ~= divisor * ln 2).
	VelocityDecayHours float64 `koanf:"velocity_decay_hours" validate:"gt=0"`

	// FanOutWidth bounds concurrent per-candidate fetch-and-score work.
	FanOutWidth int `koanf:"fan_out_width" validate:"gte=1"`

	// FetchTimeout bounds each per-candidate fetch; a timed-out candidate
	// is excluded like a failed one.
	FetchTimeout time.Duration `koanf:"fetch_timeout" validate:"gt=0"`

	// CacheTTL is the TTL for on-demand trending/velocity/hashtag results.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gt=0"`

	// RefreshTTL is the TTL for the full unscoped trending recomputation.
	RefreshTTL time.Duration `koanf:"refresh_ttl" validate:"gt=0"`

	// RefreshPerMinute throttles out-of-band refresh triggers.
	RefreshPerMinute int `koanf:"refresh_per_minute" validate:"gte=1"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// validate is the package-level validator instance. Struct metadata is
// cached after the first use, so a singleton avoids repeated reflection.
var validate = validator.New()

// Validate checks the configuration for invalid or inconsistent values.
// Returns a wrapped validation error naming the first offending field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("invalid config field %s (constraint %s)", f.Namespace(), f.Tag())
		}
		return fmt.Errorf("config validation: %w", err)
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required unless store.in_memory is set")
	}
	return nil
}

// asValidationErrors unwraps err into validator.ValidationErrors.
func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}
