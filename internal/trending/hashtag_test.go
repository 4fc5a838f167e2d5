// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package trending

import (
	"testing"
	"time"
)

func TestTimeframeWindow(t *testing.T) {
	tests := []struct {
		timeframe string
		want      time.Duration
	}{
		{"1h", time.Hour},
		{"6h", 6 * time.Hour},
		{"24h", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"30d", 30 * 24 * time.Hour},
		{"all", 0},
		{"", 24 * time.Hour},
		{"2weeks", 24 * time.Hour}, // unrecognized degrades to default
	}

	for _, tt := range tests {
		if got := TimeframeWindow(tt.timeframe); got != tt.want {
			t.Errorf("TimeframeWindow(%q) = %v, want %v", tt.timeframe, got, tt.want)
		}
	}
}
