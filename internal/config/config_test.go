// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package config

import (
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	if cfg.Trending.MinViews != 10 {
		t.Errorf("default MinViews = %d, want 10", cfg.Trending.MinViews)
	}
	if cfg.Trending.CacheTTL.Seconds() != 300 {
		t.Errorf("default CacheTTL = %v, want 300s", cfg.Trending.CacheTTL)
	}
	if cfg.Trending.RefreshTTL.Seconds() != 900 {
		t.Errorf("default RefreshTTL = %v, want 900s", cfg.Trending.RefreshTTL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"negative min views", func(c *Config) { c.Trending.MinViews = -1 }},
		{"zero top n", func(c *Config) { c.Trending.TopN = 0 }},
		{"velocity window too short", func(c *Config) { c.Trending.VelocityWindowHours = 1 }},
		{"zero decay", func(c *Config) { c.Trending.VelocityDecayHours = 0 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"missing store path", func(c *Config) { c.Store.Path = ""; c.Store.InMemory = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TRENDING_MIN_VIEWS", "trending.min_views"},
		{"SERVER_PORT", "server.port"},
		{"LOGGING_LEVEL", "logging.level"},
		{"STORE_IN_MEMORY", "store.in_memory"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("TRENDING_MIN_VIEWS", "25")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("STORE_IN_MEMORY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Trending.MinViews != 25 {
		t.Errorf("MinViews = %d, want env override 25", cfg.Trending.MinViews)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want env override 9000", cfg.Server.Port)
	}
	if !cfg.Store.InMemory {
		t.Error("InMemory = false, want env override true")
	}
	// Untouched settings keep their defaults.
	if cfg.Trending.TopN != 20 {
		t.Errorf("TopN = %d, want default 20", cfg.Trending.TopN)
	}
}
