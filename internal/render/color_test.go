// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

package render

import "testing"

func TestAdjustBrightness(t *testing.T) {
	tests := []struct {
		name    string
		color   string
		percent float64
		want    string
	}{
		{
			name:    "default button color darkened for hover",
			color:   "#007cba",
			percent: -0.2,
			want:    "#006495",
		},
		{
			name:    "black cannot get darker",
			color:   "#000000",
			percent: -0.2,
			want:    "#000000",
		},
		{
			name:    "white clamps at 255 when brightened",
			color:   "#ffffff",
			percent: 0.2,
			want:    "#ffffff",
		},
		{
			name:    "shorthand hex expands",
			color:   "#fff",
			percent: 0,
			want:    "#ffffff",
		},
		{
			name:    "leading whitespace tolerated",
			color:   " #007cba",
			percent: -0.2,
			want:    "#006495",
		},
		{
			name:    "invalid input returned unchanged",
			color:   "blue",
			percent: -0.2,
			want:    "blue",
		},
		{
			name:    "empty input returned unchanged",
			color:   "",
			percent: -0.2,
			want:    "",
		},
		{
			name:    "non-hex digits returned unchanged",
			color:   "#zzzzzz",
			percent: -0.2,
			want:    "#zzzzzz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdjustBrightness(tt.color, tt.percent)
			if got != tt.want {
				t.Errorf("AdjustBrightness(%q, %v) = %q, want %q", tt.color, tt.percent, got, tt.want)
			}
		})
	}
}
