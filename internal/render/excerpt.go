// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// excerpt.go - Word-boundary excerpt extraction

package render

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Excerpt strips markup from body, collapses whitespace, and truncates to
// at most length characters at the last whole word boundary, appending an
// ellipsis when truncation happened. A body at or under the limit is
// returned whole, without ellipsis.
func Excerpt(body string, length int) string {
	text := stripMarkup(body)
	if length <= 0 || len([]rune(text)) <= length {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:length])

	// Back off to the last space so no word is split.
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ") + "…"
}

// stripMarkup removes tags and decodes entities, collapsing whitespace runs
// to single spaces.
func stripMarkup(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
