// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// Package content resolves which posts, events and sponsors go into a
// newsletter, given the current settings and sent-markers.
package content

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsletterforge/internal/logging"
	"github.com/tomtom215/newsletterforge/internal/models"
)

// Source reads content from the host CMS.
type Source interface {
	GetPost(ctx context.Context, id int64) (*models.ContentItem, error)
	RecentPosts(ctx context.Context, limit, offset int) ([]models.ContentItem, error)
	EventsAvailable(ctx context.Context) bool
	UpcomingEvents(ctx context.Context, from, until time.Time, limit int) ([]models.Event, error)
	GetSponsor(ctx context.Context, ref models.SponsorRef) (*models.Sponsor, error)
}

// Markers reads sent-marker state.
type Markers interface {
	FilterUnsent(postIDs []int64) ([]int64, error)
}

// Selector produces the ordered content set for one newsletter.
type Selector struct {
	source  Source
	markers Markers
	logger  zerolog.Logger

	// now is injected for deterministic tests.
	now func() time.Time
}

// NewSelector creates a content selector.
func NewSelector(source Source, markers Markers) *Selector {
	return &Selector{
		source:  source,
		markers: markers,
		logger:  logging.With().Str("component", "selector").Logger(),
		now:     time.Now,
	}
}

// Select resolves the full content set per the given settings.
func (s *Selector) Select(ctx context.Context, settings models.Settings) (models.NewsletterData, error) {
	var data models.NewsletterData

	if settings.IncludePosts {
		posts, err := s.selectPosts(ctx, settings)
		if err != nil {
			return data, fmt.Errorf("select posts: %w", err)
		}
		data.Posts = posts
	}

	if settings.IncludeEvents {
		events, err := s.selectEvents(ctx, settings)
		if err != nil {
			return data, fmt.Errorf("select events: %w", err)
		}
		data.Events = events
	}

	sponsors, err := s.resolveSponsors(ctx, settings.Sponsors)
	if err != nil {
		return data, fmt.Errorf("resolve sponsors: %w", err)
	}
	data.Sponsors = sponsors

	s.logger.Debug().
		Int("posts", len(data.Posts)).
		Int("events", len(data.Events)).
		Int("sponsors", len(data.Sponsors)).
		Msg("Content selected")
	return data, nil
}

// selectPosts resolves the explicit selection when configured, else falls
// back to the latest unsent published posts.
func (s *Selector) selectPosts(ctx context.Context, settings models.Settings) ([]models.ContentItem, error) {
	if len(settings.SelectedPosts) > 0 {
		return s.resolveExplicit(ctx, settings.SelectedPosts)
	}
	return s.latestUnsent(ctx, settings.PostsLimit)
}

// resolveExplicit fetches each selected post by id, preserving configured
// order. Missing and unpublished entries are dropped silently.
func (s *Selector) resolveExplicit(ctx context.Context, ids []int64) ([]models.ContentItem, error) {
	posts := make([]models.ContentItem, 0, len(ids))
	for _, id := range ids {
		post, err := s.source.GetPost(ctx, id)
		if err != nil {
			return nil, err
		}
		if post == nil {
			s.logger.Debug().Int64("post_id", id).Msg("Selected post unavailable, dropping")
			continue
		}
		posts = append(posts, *post)
	}
	return posts, nil
}

// maxFallbackScan bounds how far back the unsent fallback pages through
// post history before giving up.
const maxFallbackScan = 1000

// latestUnsent returns the newest published posts that carry no
// sent-marker. The host API cannot filter on markers, so it pages through
// recent posts and filters locally until the limit is filled, history is
// exhausted, or maxFallbackScan posts have been examined.
func (s *Selector) latestUnsent(ctx context.Context, limit int) ([]models.ContentItem, error) {
	if limit <= 0 {
		limit = models.DefaultPostsLimit
	}

	fetch := limit * 4
	if fetch > 100 {
		fetch = 100
	}

	posts := make([]models.ContentItem, 0, limit)
	for offset := 0; len(posts) < limit && offset < maxFallbackScan; offset += fetch {
		recent, err := s.source.RecentPosts(ctx, fetch, offset)
		if err != nil {
			return nil, err
		}
		if len(recent) == 0 {
			break
		}

		ids := make([]int64, 0, len(recent))
		for _, p := range recent {
			ids = append(ids, p.ID)
		}
		unsent, err := s.markers.FilterUnsent(ids)
		if err != nil {
			return nil, err
		}

		unsentSet := make(map[int64]bool, len(unsent))
		for _, id := range unsent {
			unsentSet[id] = true
		}

		for _, p := range recent {
			if !unsentSet[p.ID] {
				continue
			}
			posts = append(posts, p)
			if len(posts) == limit {
				break
			}
		}

		if len(recent) < fetch {
			break
		}
	}
	return posts, nil
}

// selectEvents fetches upcoming events when the calendar capability is
// present. A missing calendar yields an empty list, never an error.
func (s *Selector) selectEvents(ctx context.Context, settings models.Settings) ([]models.Event, error) {
	if !s.source.EventsAvailable(ctx) {
		s.logger.Debug().Msg("Calendar capability absent, skipping events")
		return nil, nil
	}

	now := s.now()
	cutoff := settings.EventsCutoff(now)
	events, err := s.source.UpcomingEvents(ctx, now, cutoff, settings.EventsLimit)
	if err != nil {
		return nil, err
	}

	// The host may return stragglers outside the window; enforce it here.
	filtered := events[:0]
	for _, e := range events {
		if e.Start.Before(now) || e.Start.After(cutoff) {
			continue
		}
		filtered = append(filtered, e)
	}

	if settings.GroupRecurringEvents && settings.RecurringEventCategory != "" {
		filtered = GroupRecurring(filtered, settings.RecurringEventCategory)
	} else {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].EarliestStart().Before(filtered[j].EarliestStart())
		})
	}

	if settings.EventsLimit > 0 && len(filtered) > settings.EventsLimit {
		filtered = filtered[:settings.EventsLimit]
	}
	return filtered, nil
}

// resolveSponsors fetches each configured sponsor in display order,
// dropping refs whose content no longer exists.
func (s *Selector) resolveSponsors(ctx context.Context, refs []models.SponsorRef) ([]models.Sponsor, error) {
	sponsors := make([]models.Sponsor, 0, len(refs))
	for _, ref := range refs {
		sponsor, err := s.source.GetSponsor(ctx, ref)
		if err != nil {
			return nil, err
		}
		if sponsor == nil {
			s.logger.Debug().Int64("sponsor_id", ref.ID).Msg("Sponsor unavailable, dropping")
			continue
		}
		sponsors = append(sponsors, *sponsor)
	}
	return sponsors, nil
}
