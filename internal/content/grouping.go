// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// grouping.go - Recurring event grouping
//
// Events in the configured category are collapsed by exact title into one
// representative item carrying the full occurrence list. Events outside the
// category pass through unchanged. The merged list is ordered by each
// item's earliest date.

package content

import (
	"sort"

	"github.com/tomtom215/newsletterforge/internal/models"
)

// GroupRecurring partitions events by membership in categorySlug, groups
// the members by exact title, and returns regular ∪ grouped sorted by
// earliest date.
func GroupRecurring(events []models.Event, categorySlug string) []models.Event {
	var regular []models.Event
	groups := make(map[string][]models.Event)
	var groupOrder []string

	for _, e := range events {
		if !e.HasCategory(categorySlug) {
			regular = append(regular, e)
			continue
		}
		if _, seen := groups[e.Title]; !seen {
			groupOrder = append(groupOrder, e.Title)
		}
		groups[e.Title] = append(groups[e.Title], e)
	}

	merged := make([]models.Event, 0, len(regular)+len(groupOrder))
	merged = append(merged, regular...)

	for _, title := range groupOrder {
		members := groups[title]
		if len(members) == 1 {
			// A category member without siblings stays a plain event.
			merged = append(merged, members[0])
			continue
		}

		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Start.Before(members[j].Start)
		})

		rep := members[0]
		rep.Grouped = true
		rep.Occurrences = make([]models.Occurrence, 0, len(members))
		for _, m := range members {
			rep.Occurrences = append(rep.Occurrences, models.Occurrence{
				Start: m.Start,
				Venue: m.Venue,
			})
		}
		merged = append(merged, rep)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].EarliestStart().Before(merged[j].EarliestStart())
	})
	return merged
}
