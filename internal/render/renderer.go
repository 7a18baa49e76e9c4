// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// Package render converts selected newsletter content into one
// self-contained HTML document.
//
// renderer.go - Newsletter HTML Renderer
//
// This file implements the deterministic rendering core:
//   - Go html/template with contextual auto-escaping
//   - Inline <style> only, since email clients strip linked stylesheets
//   - Conditional sections: posts, separator, sponsors, events, social links
//   - Button colors derived from one configured hex color
//
// Rendering is a pure function of its inputs: the same data and settings
// always produce byte-identical HTML.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/tomtom215/newsletterforge/internal/models"
)

// hoverDarken is the brightness shift applied to derive the button hover shade.
const hoverDarken = -0.2

// RenderError signals an unexpected failure while executing the template.
// With well-formed input it should not occur; treat it as a defect signal.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("newsletter render failed: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer renders newsletter HTML documents.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the newsletter template once.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("newsletter").Parse(newsletterTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse newsletter template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// postView is a post prepared for the template.
type postView struct {
	Title     string
	Permalink string
	Image     string
	Excerpt   string
}

// dateLine is one rendered date of an event. The first line of a grouped
// event is emphasized, the rest are de-emphasized.
type dateLine struct {
	Label    string
	Emphasis bool
}

// eventView is an event prepared for the template.
type eventView struct {
	Title     string
	Permalink string
	Image     string
	Excerpt   string
	Dates     []dateLine
	Venue     *models.Venue
}

// view is the full template input.
type view struct {
	Site          models.SiteInfo
	HeaderImage   string
	ButtonColor   string
	ButtonHover   string
	ShowImages    bool
	Posts         []postView
	ShowSeparator bool
	SeparatorHTML template.HTML
	Sponsors      []models.Sponsor
	Events        []eventView
	FacebookURL   string
	InstagramURL  string
}

// Render produces the complete HTML document for the given content and
// settings.
func (r *Renderer) Render(data models.NewsletterData, settings models.Settings) (string, error) {
	buttonColor := settings.ButtonBackgroundColor
	if buttonColor == "" {
		buttonColor = models.DefaultButtonColor
	}

	v := view{
		Site:         data.Site,
		HeaderImage:  settings.HeaderImage,
		ButtonColor:  buttonColor,
		ButtonHover:  AdjustBrightness(buttonColor, hoverDarken),
		ShowImages:   settings.IncludeFeaturedImages,
		FacebookURL:  settings.FacebookURL,
		InstagramURL: settings.InstagramURL,
	}

	for _, p := range data.Posts {
		v.Posts = append(v.Posts, postView{
			Title:     p.Title,
			Permalink: p.Permalink,
			Image:     p.FeaturedImage,
			Excerpt:   Excerpt(p.Body, settings.PostExcerptLength),
		})
	}

	for i := range data.Events {
		v.Events = append(v.Events, eventView{
			Title:     data.Events[i].Title,
			Permalink: data.Events[i].Permalink,
			Image:     data.Events[i].FeaturedImage,
			Excerpt:   Excerpt(data.Events[i].Body, settings.PostExcerptLength),
			Dates:     eventDates(&data.Events[i]),
			Venue:     data.Events[i].Venue,
		})
	}

	v.Sponsors = data.Sponsors

	// The separator appears only between two non-empty sections.
	if len(v.Posts) > 0 && len(v.Events) > 0 && settings.SeparatorHTML != "" {
		v.ShowSeparator = true
		// Settings may arrive from callers that bypass the store's save path.
		v.SeparatorHTML = template.HTML(SanitizeHTML(settings.SeparatorHTML, SeparatorAllowList())) //nolint:gosec // passed through the allow-list sanitizer
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, v); err != nil {
		return "", &RenderError{Err: err}
	}
	return buf.String(), nil
}

// eventDates builds the rendered date lines: a single line for a plain
// event, the full ascending occurrence list for a grouped one.
func eventDates(e *models.Event) []dateLine {
	const layout = "Monday, January 2, 2006 15:04"

	if !e.Grouped || len(e.Occurrences) == 0 {
		return []dateLine{{Label: e.Start.Format(layout), Emphasis: true}}
	}

	lines := make([]dateLine, 0, len(e.Occurrences))
	for i, occ := range e.Occurrences {
		lines = append(lines, dateLine{
			Label:    occ.Start.Format(layout),
			Emphasis: i == 0,
		})
	}
	return lines
}
