// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// color.go - Hex color brightness adjustment for derived hover shades

package render

import (
	"fmt"
	"strconv"
	"strings"
)

// AdjustBrightness shifts each RGB channel by channel*percent, clamped to
// [0, 255]. percent of -0.2 yields the hover shade used for buttons.
// Invalid input falls back to the input string unchanged.
func AdjustBrightness(hexColor string, percent float64) string {
	r, g, b, ok := parseHexColor(hexColor)
	if !ok {
		return hexColor
	}

	adjust := func(c int) int {
		v := c + int(float64(c)*percent)
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return v
	}

	return fmt.Sprintf("#%02x%02x%02x", adjust(r), adjust(g), adjust(b))
}

// parseHexColor accepts #rgb and #rrggbb.
func parseHexColor(s string) (r, g, b int, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return 0, 0, 0, false
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16), int(v >> 8 & 0xff), int(v & 0xff), true
}
