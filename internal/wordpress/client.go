// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

/*
client.go - WordPress REST API Client

This file implements the client for the host content store. Posts and
sponsors come from the WordPress core REST API; events come from The Events
Calendar REST API when the plugin is installed (detected by capability
probe, never assumed).

API Reference: https://developer.wordpress.org/rest-api/
*/

package wordpress

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsletterforge/internal/logging"
	"github.com/tomtom215/newsletterforge/internal/models"
)

// Config holds WordPress client construction parameters.
type Config struct {
	// BaseURL is the site root (e.g. https://example.org), without /wp-json.
	BaseURL string

	// Username and AppPassword enable Basic auth for private endpoints.
	// Empty means anonymous access to public content only.
	Username    string
	AppPassword string

	// Timeout bounds every HTTP request. Default: 30s.
	Timeout time.Duration
}

// Client provides access to the WordPress and The Events Calendar REST APIs.
type Client struct {
	baseURL    string
	username   string
	appPass    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a WordPress API client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		username:   cfg.Username,
		appPass:    cfg.AppPassword,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.With().Str("component", "wordpress").Logger(),
	}
}

// doRequest issues a GET against a wp-json endpoint.
func (c *Client) doRequest(ctx context.Context, endpoint string) (*http.Response, error) {
	reqURL := c.baseURL + "/wp-json/" + strings.TrimPrefix(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.appPass)
	}

	return c.httpClient.Do(req)
}

// get fetches endpoint and decodes a 200 response into out.
func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	resp, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("wordpress request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		if readErr != nil {
			return fmt.Errorf("wordpress returned status %d (failed to read body)", resp.StatusCode)
		}
		return fmt.Errorf("wordpress returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode wordpress response: %w", err)
	}
	return nil
}

// Ping checks the REST API root is reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, "")
	if err != nil {
		return fmt.Errorf("wordpress ping failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wordpress ping returned status %d", resp.StatusCode)
	}
	return nil
}

// wpPost is the WordPress core REST representation of a post.
type wpPost struct {
	ID      int64  `json:"id"`
	Date    string `json:"date"`
	Link    string `json:"link"`
	Status  string `json:"status"`
	Title   struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
	Content struct {
		Rendered string `json:"rendered"`
	} `json:"content"`
	Embedded struct {
		FeaturedMedia []struct {
			SourceURL string `json:"source_url"`
		} `json:"wp:featuredmedia"`
	} `json:"_embedded"`
}

func (p *wpPost) toContentItem() models.ContentItem {
	item := models.ContentItem{
		ID:        p.ID,
		Title:     CleanText(p.Title.Rendered),
		Body:      p.Content.Rendered,
		Permalink: p.Link,
	}
	if t, err := time.Parse("2006-01-02T15:04:05", p.Date); err == nil {
		item.Published = t
	}
	if len(p.Embedded.FeaturedMedia) > 0 {
		item.FeaturedImage = p.Embedded.FeaturedMedia[0].SourceURL
	}
	return item
}

// GetPost retrieves one post by id. Non-published posts return (nil, nil)
// so callers can drop them silently.
func (c *Client) GetPost(ctx context.Context, id int64) (*models.ContentItem, error) {
	var post wpPost
	endpoint := fmt.Sprintf("wp/v2/posts/%d?_embed=wp:featuredmedia", id)
	if err := c.get(ctx, endpoint, &post); err != nil {
		if strings.Contains(err.Error(), "status 404") {
			return nil, nil
		}
		return nil, err
	}
	if post.Status != "publish" {
		return nil, nil
	}
	item := post.toContentItem()
	return &item, nil
}

// RecentPosts retrieves published posts newest first, skipping the first
// offset posts so callers can page through history.
func (c *Client) RecentPosts(ctx context.Context, limit, offset int) ([]models.ContentItem, error) {
	if limit <= 0 {
		limit = models.DefaultPostsLimit
	}
	if offset < 0 {
		offset = 0
	}

	var posts []wpPost
	endpoint := fmt.Sprintf("wp/v2/posts?per_page=%d&offset=%d&orderby=date&order=desc&status=publish&_embed=wp:featuredmedia", limit, offset)
	if err := c.get(ctx, endpoint, &posts); err != nil {
		return nil, err
	}

	items := make([]models.ContentItem, 0, len(posts))
	for i := range posts {
		items = append(items, posts[i].toContentItem())
	}
	return items, nil
}

// SearchPosts searches published posts by title substring.
func (c *Client) SearchPosts(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var posts []wpPost
	endpoint := fmt.Sprintf("wp/v2/posts?search=%s&per_page=%d&status=publish", url.QueryEscape(query), limit)
	if err := c.get(ctx, endpoint, &posts); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(posts))
	for i := range posts {
		r := models.SearchResult{
			ID:    posts[i].ID,
			Title: CleanText(posts[i].Title.Rendered),
			Type:  "post",
		}
		if t, err := time.Parse("2006-01-02T15:04:05", posts[i].Date); err == nil {
			r.Published = t.Format("2006-01-02")
		}
		results = append(results, r)
	}
	return results, nil
}

// CleanText strips markup and decodes entities from a rendered WordPress
// string, collapsing runs of whitespace to single spaces.
func CleanText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
