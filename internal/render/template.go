// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

package render

// newsletterTemplate is the complete email document. All styles are inlined
// in one <style> block; email clients strip <link> stylesheets.
const newsletterTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Site.Name}}</title>
<style>
  body {
    margin: 0;
    padding: 0;
    background-color: #f4f4f4;
    font-family: Helvetica, Arial, sans-serif;
    color: #333333;
    line-height: 1.6;
  }
  .wrapper {
    max-width: 640px;
    margin: 0 auto;
    background-color: #ffffff;
  }
  .header {
    text-align: center;
    padding: 24px 24px 8px 24px;
  }
  .header img {
    max-width: 100%;
    height: auto;
  }
  .section {
    padding: 8px 24px;
  }
  .item {
    margin-bottom: 32px;
  }
  .item h2 {
    font-size: 22px;
    margin: 12px 0 8px 0;
  }
  .item figure {
    margin: 0;
    aspect-ratio: 882 / 463;
    overflow: hidden;
    border-radius: 4px;
  }
  .item figure img {
    width: 100%;
    height: 100%;
    object-fit: cover;
    display: block;
  }
  .button {
    display: inline-block;
    padding: 10px 22px;
    background-color: {{.ButtonColor}};
    color: #ffffff !important;
    text-decoration: none;
    border-radius: 4px;
    font-weight: bold;
  }
  .button:hover {
    background-color: {{.ButtonHover}};
  }
  .separator {
    padding: 8px 24px;
  }
  .sponsors {
    display: flex;
    flex-wrap: wrap;
    gap: 16px;
    justify-content: center;
    align-items: center;
    padding: 16px 24px;
  }
  .sponsor {
    text-align: center;
    flex: 0 1 160px;
  }
  .sponsor img {
    max-width: 140px;
    max-height: 80px;
    object-fit: contain;
  }
  .sponsor a {
    color: #333333;
    text-decoration: none;
    font-size: 14px;
  }
  .event-date {
    font-size: 15px;
    margin: 2px 0;
  }
  .event-date.primary {
    font-weight: bold;
    color: {{.ButtonColor}};
  }
  .event-date.secondary {
    color: #777777;
    font-size: 13px;
  }
  .venue {
    font-size: 14px;
    color: #555555;
    margin: 8px 0;
  }
  .footer {
    text-align: center;
    padding: 24px;
    background-color: #222222;
    color: #bbbbbb;
    font-size: 13px;
  }
  .footer a {
    color: #ffffff;
  }
  .social a {
    margin: 0 8px;
  }
  @media (max-width: 600px) {
    .sponsors {
      flex-direction: column;
    }
    .item h2 {
      font-size: 19px;
    }
  }
</style>
</head>
<body>
<div class="wrapper">

  <div class="header">
    {{if .HeaderImage}}<img src="{{.HeaderImage}}" alt="{{.Site.Name}}">{{else}}<h1>{{.Site.Name}}</h1>{{end}}
  </div>

  {{if .Posts}}
  <div class="section">
    {{range .Posts}}
    <div class="item">
      {{if and $.ShowImages .Image}}
      <a href="{{.Permalink}}"><figure><img src="{{.Image}}" alt="{{.Title}}"></figure></a>
      {{end}}
      <h2><a href="{{.Permalink}}" style="color:#333333;text-decoration:none;">{{.Title}}</a></h2>
      <p>{{.Excerpt}}</p>
      <a class="button" href="{{.Permalink}}">Read more</a>
    </div>
    {{end}}
  </div>
  {{end}}

  {{if .ShowSeparator}}
  <div class="separator">{{.SeparatorHTML}}</div>
  {{end}}

  {{if .Events}}
  <div class="section">
    {{range .Events}}
    <div class="item">
      {{if and $.ShowImages .Image}}
      <a href="{{.Permalink}}"><figure><img src="{{.Image}}" alt="{{.Title}}"></figure></a>
      {{end}}
      <h2><a href="{{.Permalink}}" style="color:#333333;text-decoration:none;">{{.Title}}</a></h2>
      {{range $i, $d := .Dates}}
      <p class="event-date {{if $d.Emphasis}}primary{{else}}secondary{{end}}">{{$d.Label}}</p>
      {{end}}
      {{with .Venue}}
      <p class="venue">
        {{.Name}}{{if .Address}}, {{.Address}}{{end}}
        {{if .MapsURL}}&middot; <a href="{{.MapsURL}}">Directions</a>{{end}}
      </p>
      {{end}}
      <p>{{.Excerpt}}</p>
      <a class="button" href="{{.Permalink}}">Read more</a>
    </div>
    {{end}}
  </div>
  {{end}}

  {{if .Sponsors}}
  <div class="sponsors">
    {{range .Sponsors}}
    <div class="sponsor">
      <a href="{{.Permalink}}">
        {{if .Logo}}<img src="{{.Logo}}" alt="{{.Title}}"><br>{{end}}
        {{.Title}}
      </a>
    </div>
    {{end}}
  </div>
  {{end}}

  <div class="footer">
    <p>{{.Site.Name}}</p>
    <p><a href="{{.Site.URL}}">Visit our website</a></p>
    {{if or .FacebookURL .InstagramURL}}
    <p class="social">
      {{if .FacebookURL}}<a href="{{.FacebookURL}}">Facebook</a>{{end}}
      {{if .InstagramURL}}<a href="{{.InstagramURL}}">Instagram</a>{{end}}
    </p>
    {{end}}
  </div>

</div>
</body>
</html>
`
