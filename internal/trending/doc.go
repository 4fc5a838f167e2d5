// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

// Package trending implements the trending and velocity scoring engine.
//
// The package splits into three layers:
//
//   - Pure scoring math (score.go, velocity.go): time-decayed popularity
//     and recency-weighted acceleration over in-memory series. No I/O.
//   - Engine (engine.go, hourly.go, hashtag.go): pulls candidates and
//     hourly series from the counter store with bounded concurrent fan-out
//     and produces ranked results. This is the approximate, always-available
//     aggregation path.
//   - Service (service.go): the cache-and-fallback router in front of
//     everything. TTL result cache per namespace, circuit-broken primary
//     analytics store with transparent counter-store fallback, and the
//     fire-and-forget refresh trigger.
//
// Every computation pass captures a single "now" up front; given frozen
// counters and a fixed now, recomputation is deterministic (ties in any
// ranked output break on ascending videoID).
package trending
