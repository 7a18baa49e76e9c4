// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// Package models provides data structures for the Newsletterforge application.
//
// content.go - Newsletter Content Models
//
// This file contains the content types that flow through the selection and
// rendering pipeline:
//   - ContentItem: a published blog post eligible for inclusion
//   - Event: a calendar event, optionally grouped with recurring occurrences
//   - Venue: event location data for the venue block
//   - Sponsor: a sponsor listing resolved from an ordered configuration entry
//   - NewsletterData: the full immutable input to the renderer
package models

import (
	"time"
)

// ContentItem represents a published blog post selected for the newsletter.
// Only published items are eligible; drafts and private posts are never
// resolved into a ContentItem.
type ContentItem struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Published     time.Time `json:"published"`
	Permalink     string    `json:"permalink"`
	FeaturedImage string    `json:"featured_image,omitempty"`
}

// Occurrence is a single (start date, venue) pair inside a grouped
// recurring event, ordered by start date ascending.
type Occurrence struct {
	Start time.Time `json:"start"`
	Venue *Venue    `json:"venue,omitempty"`
}

// Event represents a calendar event selected for the newsletter.
//
// A grouped recurring event carries Occurrences: the representative item for
// a set of events sharing an exact title and the recurring category. Its
// Start is the earliest occurrence date, which is also the sort key when the
// combined event list is ordered.
type Event struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	Body          string       `json:"body"`
	Permalink     string       `json:"permalink"`
	FeaturedImage string       `json:"featured_image,omitempty"`
	Start         time.Time    `json:"start"`
	End           time.Time    `json:"end,omitempty"`
	Venue         *Venue       `json:"venue,omitempty"`
	Categories    []string     `json:"categories,omitempty"`
	Grouped       bool         `json:"grouped,omitempty"`
	Occurrences   []Occurrence `json:"occurrences,omitempty"`
}

// EarliestStart returns the event's sort date: the first occurrence date for
// a grouped event, the start date otherwise.
func (e *Event) EarliestStart() time.Time {
	if e.Grouped && len(e.Occurrences) > 0 {
		return e.Occurrences[0].Start
	}
	return e.Start
}

// HasCategory reports whether the event belongs to the category slug.
func (e *Event) HasCategory(slug string) bool {
	for _, c := range e.Categories {
		if c == slug {
			return true
		}
	}
	return false
}

// Venue holds event location data rendered in the venue block.
type Venue struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	MapsURL string `json:"maps_url,omitempty"`
}

// SponsorType enumerates the two sponsor content kinds.
type SponsorType string

const (
	// SponsorTypeStandard is a regular sponsor listing.
	SponsorTypeStandard SponsorType = "sponsor"

	// SponsorTypePartner is a partner organization listing.
	SponsorTypePartner SponsorType = "partner"
)

// SponsorRef is an ordered configuration entry pointing at a sponsor.
// Order in the configuration list is display order.
type SponsorRef struct {
	ID   int64       `json:"id"`
	Type SponsorType `json:"type"`
}

// Sponsor is a resolved sponsor listing. Refs whose content no longer
// exists are dropped during resolution.
type Sponsor struct {
	ID        int64       `json:"id"`
	Title     string      `json:"title"`
	Type      SponsorType `json:"type"`
	Logo      string      `json:"logo,omitempty"`
	Permalink string      `json:"permalink"`
}

// SiteInfo describes the host site, rendered in the header fallback,
// the footer, and campaign settings (from name, reply-to).
type SiteInfo struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	FromName string `json:"from_name"`
	ReplyTo  string `json:"reply_to"`
}

// NewsletterData is the full input to the renderer. Rendering the same
// NewsletterData with the same settings twice yields byte-identical HTML.
type NewsletterData struct {
	Posts    []ContentItem `json:"posts"`
	Events   []Event       `json:"events"`
	Sponsors []Sponsor     `json:"sponsors"`
	Site     SiteInfo      `json:"site"`
}

// PostIDs returns the ids of all included posts, in display order.
// The orchestrator marks these sent after a verified successful send.
func (d *NewsletterData) PostIDs() []int64 {
	ids := make([]int64, 0, len(d.Posts))
	for _, p := range d.Posts {
		ids = append(ids, p.ID)
	}
	return ids
}
