// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// events.go - The Events Calendar REST integration
//
// Event support is optional: the host may not run The Events Calendar at
// all. EventsAvailable probes the plugin's REST root; callers treat a
// negative probe as "no events", never as an error.

package wordpress

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tomtom215/newsletterforge/internal/models"
)

const tribeDateFormat = "2006-01-02 15:04:05"

// EventsAvailable reports whether The Events Calendar REST API responds.
func (c *Client) EventsAvailable(ctx context.Context) bool {
	resp, err := c.doRequest(ctx, "tribe/events/v1/")
	if err != nil {
		c.logger.Debug().Err(err).Msg("Events capability probe failed")
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// tribeEvent is The Events Calendar REST representation of an event.
type tribeEvent struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Image       struct {
		URL string `json:"url"`
	} `json:"image"`
	Venue struct {
		ID      int64  `json:"id"`
		Venue   string `json:"venue"`
		Address string `json:"address"`
		City    string `json:"city"`
		Zip     string `json:"zip"`
	} `json:"venue"`
	Categories []struct {
		Slug string `json:"slug"`
	} `json:"categories"`
}

func (e *tribeEvent) toEvent() models.Event {
	ev := models.Event{
		ID:            e.ID,
		Title:         CleanText(e.Title),
		Body:          e.Description,
		Permalink:     e.URL,
		FeaturedImage: e.Image.URL,
	}
	if t, err := time.Parse(tribeDateFormat, e.StartDate); err == nil {
		ev.Start = t
	}
	if t, err := time.Parse(tribeDateFormat, e.EndDate); err == nil {
		ev.End = t
	}
	if e.Venue.ID != 0 {
		addr := e.Venue.Address
		if e.Venue.City != "" {
			addr = addr + ", " + e.Venue.Zip + " " + e.Venue.City
		}
		ev.Venue = &models.Venue{
			ID:      e.Venue.ID,
			Name:    CleanText(e.Venue.Venue),
			Address: addr,
			MapsURL: "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(e.Venue.Venue+" "+addr),
		}
	}
	for _, cat := range e.Categories {
		ev.Categories = append(ev.Categories, cat.Slug)
	}
	return ev
}

// UpcomingEvents retrieves events starting in [from, until], ordered by
// start date ascending.
func (c *Client) UpcomingEvents(ctx context.Context, from, until time.Time, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = models.DefaultEventsLimit
	}

	var out struct {
		Events []tribeEvent `json:"events"`
	}
	endpoint := fmt.Sprintf("tribe/events/v1/events?start_date=%s&end_date=%s&per_page=%d",
		url.QueryEscape(from.Format(tribeDateFormat)),
		url.QueryEscape(until.Format(tribeDateFormat)),
		limit,
	)
	if err := c.get(ctx, endpoint, &out); err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(out.Events))
	for i := range out.Events {
		events = append(events, out.Events[i].toEvent())
	}
	return events, nil
}
