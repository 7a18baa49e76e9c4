// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// router.go - Chi route wiring
//
// Route groups:
//   - /api/v1/health: permissive rate limit for monitoring probes
//   - /api/v1: newsletter, members, settings, search, Mailchimp
//   - /metrics: Prometheus scrape endpoint

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/newsletterforge/internal/config"
	"github.com/tomtom215/newsletterforge/internal/middleware"
)

// Routes builds the full HTTP handler tree.
func (s *Server) Routes(cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Monitoring probes get a permissive limit so scrapers never starve.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/", s.handleHealth)
		r.Get("/live", s.handleHealthLive)
		r.Get("/ready", s.handleHealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if !cfg.Security.RateLimitDisabled {
			r.Use(httprate.LimitByIP(cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow))
		}
		r.Use(middleware.PrometheusMetrics)

		r.Route("/newsletter", func(r chi.Router) {
			r.Post("/preview", s.handlePreview)
			r.Post("/send", s.handleSend)
			r.Post("/test", s.handleTest)
		})

		r.Get("/members", s.handleMembers)
		r.Get("/members/check", s.handleMemberCheck)

		r.Get("/settings", s.handleSettingsGet)
		r.Put("/settings", s.handleSettingsPut)

		r.Get("/mailchimp/ping", s.handleMailchimpPing)
		r.Get("/mailchimp/lists", s.handleMailchimpLists)
		r.Get("/campaigns/{id}/report", s.handleCampaignReport)

		r.Get("/posts/search", s.handleSearchPosts)
		r.Get("/sponsors/search", s.handleSearchSponsors)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
