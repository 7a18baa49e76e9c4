// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// Package models provides data structures for the Newsletterforge application.
//
// settings.go - Newsletter Settings
//
// The settings document is a flat named mapping persisted as one record in
// the store. Absence of a field implies the documented default; the store
// seeds defaults on first boot and applies per-field sanitization on save.
package models

import (
	"time"
)

// Settings holds every operator-tunable knob of the assembly pipeline.
type Settings struct {
	// Mailchimp credentials. Seeded from configuration on first boot,
	// editable through the settings endpoint afterwards.
	MailchimpAPIKey string `json:"mailchimp_api_key"`
	MailchimpListID string `json:"mailchimp_list_id"`

	// Section toggles.
	IncludePosts          bool `json:"include_posts"`
	IncludeEvents         bool `json:"include_events"`
	IncludeFeaturedImages bool `json:"include_featured_images"`

	// Selection limits.
	PostsLimit        int `json:"posts_limit"`
	EventsLimit       int `json:"events_limit"`
	PostExcerptLength int `json:"post_excerpt_length"`

	// EventsEndDate caps event selection at end of that day when set
	// (YYYY-MM-DD). Empty means now + 3 months.
	EventsEndDate string `json:"events_end_date"`

	// Recurring event grouping.
	GroupRecurringEvents   bool   `json:"group_recurring_events"`
	RecurringEventCategory string `json:"recurring_event_category"`

	// Explicit post selection, order-preserving. Empty means the latest-N
	// unsent fallback applies.
	SelectedPosts []int64 `json:"selected_posts"`

	// Sponsors in display order.
	Sponsors []SponsorRef `json:"sponsors"`

	// Presentation.
	SeparatorHTML         string `json:"separator_html"`
	ButtonBackgroundColor string `json:"button_background_color"`
	HeaderImage           string `json:"header_image"`
	FacebookURL           string `json:"facebook_url"`
	InstagramURL          string `json:"instagram_url"`
}

// Default setting values.
const (
	DefaultPostsLimit        = 5
	DefaultEventsLimit       = 5
	DefaultExcerptLength     = 150
	DefaultButtonColor       = "#007cba"
	DefaultEventsDateHorizon = 3 // months ahead when no end date is set
)

// DefaultSettings returns the settings document seeded on first boot.
func DefaultSettings() Settings {
	return Settings{
		IncludePosts:          true,
		IncludeEvents:         true,
		IncludeFeaturedImages: true,
		PostsLimit:            DefaultPostsLimit,
		EventsLimit:           DefaultEventsLimit,
		PostExcerptLength:     DefaultExcerptLength,
		ButtonBackgroundColor: DefaultButtonColor,
	}
}

// EventsCutoff resolves the end-date cutoff relative to now: end of the
// configured day, or now + 3 months when unset or unparseable.
func (s *Settings) EventsCutoff(now time.Time) time.Time {
	if s.EventsEndDate != "" {
		if d, err := time.ParseInLocation("2006-01-02", s.EventsEndDate, now.Location()); err == nil {
			return d.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		}
	}
	return now.AddDate(0, DefaultEventsDateHorizon, 0)
}
