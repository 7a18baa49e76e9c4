// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// sponsors.go - Sponsor and partner custom post types

package wordpress

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/newsletterforge/internal/models"
)

// restBase maps a sponsor type to its REST collection.
func restBase(t models.SponsorType) string {
	if t == models.SponsorTypePartner {
		return "wp/v2/partner"
	}
	return "wp/v2/sponsor"
}

// GetSponsor resolves one sponsor ref. Missing or unpublished sponsors
// return (nil, nil) so the selector can drop them silently.
func (c *Client) GetSponsor(ctx context.Context, ref models.SponsorRef) (*models.Sponsor, error) {
	var post wpPost
	endpoint := fmt.Sprintf("%s/%d?_embed=wp:featuredmedia", restBase(ref.Type), ref.ID)
	if err := c.get(ctx, endpoint, &post); err != nil {
		if strings.Contains(err.Error(), "status 404") {
			return nil, nil
		}
		return nil, err
	}
	if post.Status != "publish" {
		return nil, nil
	}

	sponsor := &models.Sponsor{
		ID:        post.ID,
		Title:     CleanText(post.Title.Rendered),
		Type:      ref.Type,
		Permalink: post.Link,
	}
	if len(post.Embedded.FeaturedMedia) > 0 {
		sponsor.Logo = post.Embedded.FeaturedMedia[0].SourceURL
	}
	return sponsor, nil
}

// SearchSponsors searches both sponsor post types by title substring.
func (c *Client) SearchSponsors(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var results []models.SearchResult
	for _, t := range []models.SponsorType{models.SponsorTypeStandard, models.SponsorTypePartner} {
		var posts []wpPost
		endpoint := fmt.Sprintf("%s?search=%s&per_page=%d&status=publish", restBase(t), url.QueryEscape(query), limit)
		if err := c.get(ctx, endpoint, &posts); err != nil {
			// One sponsor type may not be registered on the host.
			c.logger.Debug().Err(err).Str("type", string(t)).Msg("Sponsor search skipped for type")
			continue
		}
		for i := range posts {
			results = append(results, models.SearchResult{
				ID:    posts[i].ID,
				Title: CleanText(posts[i].Title.Rendered),
				Type:  string(t),
			})
		}
	}
	return results, nil
}
