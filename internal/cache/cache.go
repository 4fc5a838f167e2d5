// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

// Package cache provides the TTL result cache in front of trending
// computations.
//
// Entries record when their value was computed rather than when they
// expire: freshness is judged as now - computedAt < ttl, which matches the
// engine's single-captured-now discipline and lets each namespace carry its
// own TTL (300s on-demand results, 900s full refresh).
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Record is a cached computation result. ComputedAt is the "now" captured
// by the computation pass that produced Value.
type Record struct {
	Value      interface{}
	ComputedAt time.Time
	TTL        time.Duration
}

// Fresh reports whether the record is still valid at the given instant.
func (r Record) Fresh(now time.Time) bool {
	return now.Sub(r.ComputedAt) < r.TTL
}

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}

// Cache is a thread-safe in-memory TTL result cache.
//
// Thread safety: sync.RWMutex; reads take the read lock, expiry deletion
// upgrades to the write lock. A background goroutine sweeps expired entries
// every 5 minutes for the cache's lifetime.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]Record
	defaultTTL time.Duration

	statsMu sync.Mutex
	stats   Stats
}

// New creates a cache with the given default TTL and starts the background
// sweep goroutine.
//
//	c := cache.New(5 * time.Minute)
//	c.Set("trending:global", result, now)
func New(defaultTTL time.Duration) *Cache {
	c := &Cache{
		entries:    make(map[string]Record),
		defaultTTL: defaultTTL,
	}
	go c.sweepLoop()
	return c
}

// Get returns the cached record for key if it is fresh at now.
//
// Behavior:
//   - (zero, false) if the key does not exist
//   - (zero, false) if the record is stale (the record is deleted)
//   - (record, true) if the record is fresh; the value is returned
//     unmodified, exactly as stored
func (c *Cache) Get(key string, now time.Time) (Record, bool) {
	c.mu.RLock()
	rec, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.bumpMiss(false)
		return Record{}, false
	}
	if !rec.Fresh(now) {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// replaced the entry with a fresh one.
		if cur, still := c.entries[key]; still && !cur.Fresh(now) {
			delete(c.entries, key)
			c.bumpMiss(true)
		}
		c.mu.Unlock()
		return Record{}, false
	}

	c.bumpHit()
	return rec, true
}

// Set stores a value computed at the given instant with the default TTL.
// Overwrites any existing entry for the key.
func (c *Cache) Set(key string, value interface{}, computedAt time.Time) {
	c.SetWithTTL(key, value, computedAt, c.defaultTTL)
}

// SetWithTTL stores a value with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value interface{}, computedAt time.Time, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = Record{Value: value, ComputedAt: computedAt, TTL: ttl}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.TotalKeys = total
	c.statsMu.Unlock()
}

// Delete removes a key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Record)
	c.mu.Unlock()
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// HitRate returns the hit rate as a percentage.
func (c *Cache) HitRate() float64 {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	total := c.stats.Hits + c.stats.Misses
	if total == 0 {
		return 0
	}
	return float64(c.stats.Hits) / float64(total) * 100
}

func (c *Cache) bumpHit() {
	c.statsMu.Lock()
	c.stats.Hits++
	c.statsMu.Unlock()
}

func (c *Cache) bumpMiss(evicted bool) {
	c.statsMu.Lock()
	c.stats.Misses++
	if evicted {
		c.stats.Evictions++
	}
	c.statsMu.Unlock()
}

// sweepLoop removes stale entries every 5 minutes.
func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		evicted := int64(0)

		c.mu.Lock()
		for key, rec := range c.entries {
			if !rec.Fresh(now) {
				delete(c.entries, key)
				evicted++
			}
		}
		total := int64(len(c.entries))
		c.mu.Unlock()

		c.statsMu.Lock()
		c.stats.Evictions += evicted
		c.stats.TotalKeys = total
		c.statsMu.Unlock()
	}
}

// GenerateKey builds a deterministic cache key from a namespace and a
// parameter struct. Parameters are serialized to JSON and hashed, so any
// two calls with equal parameters share a key regardless of call site.
func GenerateKey(namespace string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to a formatted key; %+v is stable for flat structs
		return fmt.Sprintf("%s:%+v", namespace, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", namespace, hash[:16])
}
