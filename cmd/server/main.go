// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// Package main is the entry point for the Newsletterforge server.
//
// Newsletterforge assembles newsletters from a WordPress site (posts,
// calendar events, sponsors), renders them to email-safe HTML, and
// dispatches them as Mailchimp campaigns. Posts included in a delivered
// campaign are marked sent so later newsletters never repeat them.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 with layered sources (defaults, YAML, env)
//  2. Store: BadgerDB for settings and sent-markers
//  3. Clients: WordPress REST client, Mailchimp client behind a circuit breaker
//  4. Pipeline: content selector, renderer, campaign orchestrator
//  5. Supervision: suture tree with API and jobs layers
//
// # Configuration
//
// Configuration is loaded via Koanf v2 (highest priority wins):
//   - Environment variables with the NF_ prefix (NF_SERVER_PORT, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// The Mailchimp credentials under mailchimp.* only seed the settings
// document on first boot; afterwards the stored settings are
// authoritative and editable through PUT /api/v1/settings.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP
// server drains in-flight requests and the scheduler stops between
// firings.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/newsletterforge/internal/api"
	"github.com/tomtom215/newsletterforge/internal/campaign"
	"github.com/tomtom215/newsletterforge/internal/config"
	"github.com/tomtom215/newsletterforge/internal/content"
	"github.com/tomtom215/newsletterforge/internal/logging"
	"github.com/tomtom215/newsletterforge/internal/mailchimp"
	"github.com/tomtom215/newsletterforge/internal/models"
	"github.com/tomtom215/newsletterforge/internal/render"
	"github.com/tomtom215/newsletterforge/internal/scheduler"
	"github.com/tomtom215/newsletterforge/internal/store"
	"github.com/tomtom215/newsletterforge/internal/supervisor"
	"github.com/tomtom215/newsletterforge/internal/wordpress"
)

// supervisorTree builds the suture tree with the HTTP server on the API
// layer and, when enabled, the cron scheduler on the jobs layer.
func supervisorTree(cfg *config.Config, httpServer *http.Server, orchestrator *campaign.Orchestrator) *supervisor.Tree {
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	tree.AddAPIService(supervisor.NewHTTPService(httpServer, 10*time.Second, logging.Logger()))
	logging.Info().Str("addr", httpServer.Addr).Msg("HTTP server service added")

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(scheduler.Config{
			Spec:            cfg.Scheduler.Cron,
			SubjectTemplate: cfg.Scheduler.SubjectTemplate,
		}, orchestrator, logging.Logger())
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create scheduler")
		}
		tree.AddJobService(sched)
		logging.Info().Str("cron", cfg.Scheduler.Cron).Msg("Scheduler service added")
	}

	return tree
}

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("wordpress_url", cfg.WordPress.BaseURL).
		Str("store_path", cfg.Store.Path).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Starting Newsletterforge")

	db, err := store.Open(store.Config{Path: cfg.Store.Path, InMemory: cfg.Store.InMemory})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	// Separator HTML passes through the allow-list sanitizer on every save.
	allowList := render.SeparatorAllowList()
	settingsStore := store.NewSettingsStore(db, func(s string) string {
		return render.SanitizeHTML(s, allowList)
	})
	if cfg.Mailchimp.APIKey != "" {
		if err := settingsStore.Seed(cfg.Mailchimp.APIKey, cfg.Mailchimp.ListID); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed settings")
		}
	}
	markerStore := store.NewMarkerStore(db)

	wpClient := wordpress.NewClient(wordpress.Config{
		BaseURL:     cfg.WordPress.BaseURL,
		Username:    cfg.WordPress.Username,
		AppPassword: cfg.WordPress.AppPassword,
		Timeout:     cfg.WordPress.Timeout,
	})
	if err := wpClient.Ping(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Failed to connect to WordPress (will retry on demand)")
	} else {
		logging.Info().Msg("Connected to WordPress successfully")
	}

	// Credentials are read from the settings store per request, so edits
	// through the API apply without a restart.
	mcClient := mailchimp.NewBreakerClient(settingsStore, mailchimp.Config{
		FromName:      cfg.Site.FromName,
		ReplyTo:       cfg.Site.ReplyTo,
		Timeout:       cfg.Mailchimp.Timeout,
		RatePerSecond: cfg.Mailchimp.RatePerSecond,
	})

	selector := content.NewSelector(wpClient, markerStore)

	renderer, err := render.NewRenderer()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to parse newsletter template")
	}

	site := models.SiteInfo{
		Name:     cfg.Site.Name,
		URL:      cfg.Site.URL,
		FromName: cfg.Site.FromName,
		ReplyTo:  cfg.Site.ReplyTo,
	}
	orchestrator := campaign.New(selector, renderer, mcClient, settingsStore, markerStore, site)

	server := api.NewServer(orchestrator, mcClient, wpClient, settingsStore)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Routes(cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	tree := supervisorTree(cfg, httpServer, orchestrator)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
