// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// Package config defines and loads the service configuration via Koanf v2
// with layered sources: defaults, optional YAML file, environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Site      SiteConfig      `koanf:"site"`
	WordPress WordPressConfig `koanf:"wordpress"`
	Mailchimp MailchimpConfig `koanf:"mailchimp"`
	Store     StoreConfig     `koanf:"store"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// SiteConfig describes the host site identity used in rendering and
// campaign settings.
type SiteConfig struct {
	Name     string `koanf:"name"`
	URL      string `koanf:"url"`
	FromName string `koanf:"from_name"`
	ReplyTo  string `koanf:"reply_to"`
}

// WordPressConfig configures the host content store client.
type WordPressConfig struct {
	BaseURL     string        `koanf:"base_url"`
	Username    string        `koanf:"username"`
	AppPassword string        `koanf:"app_password"`
	Timeout     time.Duration `koanf:"timeout"`
}

// MailchimpConfig configures the Mailchimp client. APIKey and ListID are
// seed values copied into the settings store on first boot only; the
// settings endpoint owns them afterwards.
type MailchimpConfig struct {
	APIKey        string        `koanf:"api_key"`
	ListID        string        `koanf:"list_id"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
}

// StoreConfig configures the embedded BadgerDB store.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// SchedulerConfig configures automated sends.
type SchedulerConfig struct {
	Enabled bool `koanf:"enabled"`

	// Cron is a standard 5-field cron expression.
	Cron string `koanf:"cron"`

	// SubjectTemplate is formatted with the send date via Go time layout
	// substitution of the {date} placeholder.
	SubjectTemplate string `koanf:"subject_template"`
}

// SecurityConfig configures CORS and rate limiting.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks configuration invariants after loading.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.WordPress.BaseURL == "" {
		return fmt.Errorf("wordpress.base_url is required")
	}
	if c.WordPress.Timeout <= 0 {
		return fmt.Errorf("wordpress.timeout must be positive, got %s", c.WordPress.Timeout)
	}
	if c.Mailchimp.Timeout <= 0 {
		return fmt.Errorf("mailchimp.timeout must be positive, got %s", c.Mailchimp.Timeout)
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required unless store.in_memory is set")
	}
	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.Cron); err != nil {
			return fmt.Errorf("scheduler.cron is not a valid cron expression: %w", err)
		}
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("security.rate_limit_reqs must be positive, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
		}
	}
	return nil
}
