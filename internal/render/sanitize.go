// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// sanitize.go - Allow-list HTML sanitizer
//
// A pure function over an explicit allow-list configuration: tags mapped to
// their permitted attributes, plus a permitted CSS property set for style
// attributes. Used for the operator-supplied separator markup, which must
// support modern layout (flex, grid, positioning) that a default safe set
// would strip.

package render

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// AllowList configures the sanitizer.
type AllowList struct {
	// Tags maps a lowercase tag name to its allowed attribute names.
	Tags map[string][]string

	// CSSProperties are the property names permitted inside style attributes.
	CSSProperties map[string]bool
}

// commonAttrs are allowed on every separator tag.
var commonAttrs = []string{"class", "id", "style"}

// SeparatorAllowList returns the allow-list applied to separator HTML.
func SeparatorAllowList() AllowList {
	tags := map[string][]string{
		"div": nil, "span": nil, "p": nil,
		"h1": nil, "h2": nil, "h3": nil, "h4": nil, "h5": nil, "h6": nil,
		"strong": nil, "em": nil, "b": nil, "i": nil,
		"a":   {"href", "target"},
		"img": {"src", "alt", "width", "height"},
		"br":  nil, "hr": nil,
		"ul": nil, "ol": nil, "li": nil,
	}
	for tag, extra := range tags {
		tags[tag] = append(append([]string{}, commonAttrs...), extra...)
	}

	props := map[string]bool{
		// Default safe set.
		"color": true, "background": true, "background-color": true,
		"font-size": true, "font-weight": true, "font-style": true,
		"font-family": true, "text-align": true, "text-decoration": true,
		"line-height": true, "letter-spacing": true,
		"margin": true, "margin-top": true, "margin-right": true,
		"margin-bottom": true, "margin-left": true,
		"padding": true, "padding-top": true, "padding-right": true,
		"padding-bottom": true, "padding-left": true,
		"border": true, "border-top": true, "border-right": true,
		"border-bottom": true, "border-left": true, "border-radius": true,
		"width": true, "height": true, "max-width": true, "max-height": true,
		"min-width": true, "min-height": true,

		// Layout extension.
		"display": true, "position": true,
		"top": true, "right": true, "bottom": true, "left": true,
		"z-index": true,
		"flex":    true, "flex-direction": true, "flex-wrap": true,
		"flex-grow": true, "flex-shrink": true, "flex-basis": true, "flex-flow": true,
		"align-items": true, "align-content": true, "align-self": true,
		"justify-content": true, "justify-items": true, "justify-self": true,
		"gap": true, "row-gap": true, "column-gap": true,
		"grid": true, "grid-template-columns": true, "grid-template-rows": true,
		"grid-template-areas": true, "grid-column": true, "grid-row": true,
		"grid-area": true, "grid-auto-flow": true, "grid-auto-columns": true,
		"grid-auto-rows": true,
	}

	return AllowList{Tags: tags, CSSProperties: props}
}

// voidTags never carry a closing tag.
var voidTags = map[string]bool{"br": true, "hr": true, "img": true}

// rawTextTags have their entire content dropped when the tag is disallowed.
var rawTextTags = map[string]bool{"script": true, "style": true, "iframe": true, "object": true, "noscript": true}

// SanitizeHTML filters markup against the allow-list. Disallowed tags are
// stripped but their text content is kept, except raw-text containers
// (script, style) which are removed entirely. Text nodes are re-escaped.
func SanitizeHTML(input string, allow AllowList) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	var out strings.Builder
	z := html.NewTokenizer(strings.NewReader(input))
	skipDepth := 0
	var skipTag string

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		token := z.Token()

		if skipDepth > 0 {
			switch tt {
			case html.StartTagToken:
				if token.Data == skipTag {
					skipDepth++
				}
			case html.EndTagToken:
				if token.Data == skipTag {
					skipDepth--
				}
			}
			continue
		}

		switch tt {
		case html.TextToken:
			out.WriteString(html.EscapeString(token.Data))

		case html.StartTagToken, html.SelfClosingTagToken:
			name := strings.ToLower(token.Data)
			allowedAttrs, ok := allow.Tags[name]
			if !ok {
				if rawTextTags[name] && tt == html.StartTagToken {
					skipDepth = 1
					skipTag = token.Data
				}
				continue
			}
			writeTag(&out, name, token.Attr, allowedAttrs, allow.CSSProperties, tt == html.SelfClosingTagToken)

		case html.EndTagToken:
			name := strings.ToLower(token.Data)
			if _, ok := allow.Tags[name]; ok && !voidTags[name] {
				out.WriteString("</" + name + ">")
			}
		}
	}

	return out.String()
}

// writeTag emits a sanitized start tag with filtered attributes.
func writeTag(out *strings.Builder, name string, attrs []html.Attribute, allowed []string, cssProps map[string]bool, selfClosing bool) {
	out.WriteString("<" + name)
	for _, attr := range attrs {
		key := strings.ToLower(attr.Key)
		if !contains(allowed, key) {
			continue
		}

		val := attr.Val
		switch key {
		case "style":
			val = sanitizeStyle(val, cssProps)
			if val == "" {
				continue
			}
		case "href", "src":
			if !safeURL(val) {
				continue
			}
		}

		out.WriteString(" " + key + `="` + html.EscapeString(val) + `"`)
	}
	if selfClosing || voidTags[name] {
		out.WriteString("/>")
	} else {
		out.WriteString(">")
	}
}

// sanitizeStyle keeps only declarations whose property is allowed.
func sanitizeStyle(style string, allowed map[string]bool) string {
	var kept []string
	for _, decl := range strings.Split(style, ";") {
		parts := strings.SplitN(decl, ":", 2)
		if len(parts) != 2 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(parts[0]))
		val := strings.TrimSpace(parts[1])
		if !allowed[prop] || val == "" {
			continue
		}
		if strings.Contains(strings.ToLower(val), "url(") || strings.Contains(strings.ToLower(val), "expression") {
			continue
		}
		kept = append(kept, prop+": "+val)
	}
	return strings.Join(kept, "; ")
}

// safeURL accepts http(s), mailto and scheme-less (relative) URLs.
func safeURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "", "http", "https", "mailto":
		return true
	default:
		return false
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
