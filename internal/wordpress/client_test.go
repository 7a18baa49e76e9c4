// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

package wordpress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/newsletterforge/internal/models"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "Hello World", "Hello World"},
		{"strips tags", "<p>Hello <strong>World</strong></p>", "Hello World"},
		{"decodes entities", "Fish &amp; Chips &#8211; Friday", "Fish & Chips – Friday"},
		{"collapses whitespace", "  Hello \n\t World  ", "Hello World"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetPost(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/posts/42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"id": 42,
			"date": "2026-08-20T10:30:00",
			"link": "https://example.com/harvest",
			"status": "publish",
			"title": {"rendered": "Harvest &amp; Market"},
			"content": {"rendered": "<p>Body</p>"},
			"_embedded": {"wp:featuredmedia": [{"source_url": "https://example.com/img.jpg"}]}
		}`))
	})

	item, err := c.GetPost(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetPost() error: %v", err)
	}
	if item == nil {
		t.Fatal("GetPost() returned nil for a published post")
	}
	if item.Title != "Harvest & Market" {
		t.Errorf("Title = %q, want entities decoded", item.Title)
	}
	if item.FeaturedImage != "https://example.com/img.jpg" {
		t.Errorf("FeaturedImage = %q", item.FeaturedImage)
	}
	want := time.Date(2026, time.August, 20, 10, 30, 0, 0, time.UTC)
	if !item.Published.Equal(want) {
		t.Errorf("Published = %v, want %v", item.Published, want)
	}
}

func TestGetPost_404IsNilNil(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"rest_post_invalid_id"}`))
	})

	item, err := c.GetPost(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetPost() error = %v, want nil for 404", err)
	}
	if item != nil {
		t.Errorf("item = %+v, want nil for 404", item)
	}
}

func TestGetPost_DraftIsNilNil(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 7, "status": "draft", "title": {"rendered": "Draft"}}`))
	})

	item, err := c.GetPost(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetPost() error: %v", err)
	}
	if item != nil {
		t.Errorf("item = %+v, want nil for non-published post", item)
	}
}

func TestRecentPosts(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("per_page") != "3" || q.Get("offset") != "6" || q.Get("orderby") != "date" || q.Get("order") != "desc" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[
			{"id": 3, "status": "publish", "title": {"rendered": "Newest"}},
			{"id": 2, "status": "publish", "title": {"rendered": "Middle"}},
			{"id": 1, "status": "publish", "title": {"rendered": "Oldest"}}
		]`))
	})

	items, err := c.RecentPosts(context.Background(), 3, 6)
	if err != nil {
		t.Fatalf("RecentPosts() error: %v", err)
	}
	if len(items) != 3 || items[0].ID != 3 || items[2].ID != 1 {
		t.Errorf("items = %+v, want server order preserved", items)
	}
}

func TestSearchPosts(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search"); got != "fish & chips" {
			t.Errorf("search = %q, want query escaped and decoded back", got)
		}
		_, _ = w.Write([]byte(`[
			{"id": 5, "date": "2026-08-01T09:00:00", "title": {"rendered": "Fish &amp; Chips Night"}}
		]`))
	})

	results, err := c.SearchPosts(context.Background(), "fish & chips", 10)
	if err != nil {
		t.Fatalf("SearchPosts() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Title != "Fish & Chips Night" || results[0].Type != "post" {
		t.Errorf("result = %+v", results[0])
	}
	if results[0].Published != "2026-08-01" {
		t.Errorf("Published = %q, want date only", results[0].Published)
	}
}

func TestEventsAvailable(t *testing.T) {
	available := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/wp-json/tribe/events/v1/" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	if !available.EventsAvailable(context.Background()) {
		t.Error("EventsAvailable() = false for responding plugin")
	}

	missing := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if missing.EventsAvailable(context.Background()) {
		t.Error("EventsAvailable() = true for missing plugin")
	}
}

func TestUpcomingEvents(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"events": [
			{
				"id": 11,
				"title": "Jazz Night",
				"description": "<p>Live music</p>",
				"url": "https://example.com/jazz",
				"start_date": "2026-09-12 19:30:00",
				"end_date": "2026-09-12 22:00:00",
				"image": {"url": "https://example.com/jazz.jpg"},
				"venue": {"id": 4, "venue": "Old Mill", "address": "Mill Rd 1", "city": "Springfield", "zip": "12345"},
				"categories": [{"slug": "music"}]
			}
		]}`))
	})

	from := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	until := from.AddDate(0, 1, 0)
	events, err := c.UpcomingEvents(context.Background(), from, until, 10)
	if err != nil {
		t.Fatalf("UpcomingEvents() error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Title != "Jazz Night" {
		t.Errorf("Title = %q", ev.Title)
	}
	if ev.Start != time.Date(2026, time.September, 12, 19, 30, 0, 0, time.UTC) {
		t.Errorf("Start = %v", ev.Start)
	}
	if ev.Venue == nil {
		t.Fatal("Venue missing")
	}
	if ev.Venue.Address != "Mill Rd 1, 12345 Springfield" {
		t.Errorf("Address = %q", ev.Venue.Address)
	}
	if len(ev.Categories) != 1 || ev.Categories[0] != "music" {
		t.Errorf("Categories = %v", ev.Categories)
	}
}

func TestGetSponsor(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/partner/8" {
			t.Errorf("path = %s, want partner collection", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"id": 8,
			"status": "publish",
			"link": "https://example.com/acme",
			"title": {"rendered": "Acme Corp"},
			"_embedded": {"wp:featuredmedia": [{"source_url": "https://example.com/logo.png"}]}
		}`))
	})

	sponsor, err := c.GetSponsor(context.Background(), models.SponsorRef{ID: 8, Type: models.SponsorTypePartner})
	if err != nil {
		t.Fatalf("GetSponsor() error: %v", err)
	}
	if sponsor == nil {
		t.Fatal("GetSponsor() returned nil for a published sponsor")
	}
	if sponsor.Type != models.SponsorTypePartner || sponsor.Logo != "https://example.com/logo.png" {
		t.Errorf("sponsor = %+v", sponsor)
	}
}

func TestGetSponsor_404IsNilNil(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	sponsor, err := c.GetSponsor(context.Background(), models.SponsorRef{ID: 99, Type: models.SponsorTypeStandard})
	if err != nil {
		t.Fatalf("GetSponsor() error = %v, want nil for 404", err)
	}
	if sponsor != nil {
		t.Errorf("sponsor = %+v, want nil", sponsor)
	}
}

func TestSearchSponsors_SkipsUnregisteredType(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/wp-json/wp/v2/sponsor":
			_, _ = w.Write([]byte(`[{"id": 1, "title": {"rendered": "Sponsor One"}}]`))
		default:
			// partner post type not registered on this host
			w.WriteHeader(http.StatusNotFound)
		}
	})

	results, err := c.SearchSponsors(context.Background(), "one", 10)
	if err != nil {
		t.Fatalf("SearchSponsors() error: %v", err)
	}
	if len(results) != 1 || results[0].Type != "sponsor" {
		t.Errorf("results = %+v, want only the registered type", results)
	}
}

func TestPing(t *testing.T) {
	ok := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Example"}`))
	})
	if err := ok.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}

	down := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if err := down.Ping(context.Background()); err == nil {
		t.Error("Ping() = nil for 503 response")
	}
}
