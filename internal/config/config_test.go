// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.WordPress.BaseURL = "https://example.com"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults with base URL", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero server timeout", func(c *Config) { c.Server.Timeout = 0 }, true},
		{"missing wordpress URL", func(c *Config) { c.WordPress.BaseURL = "" }, true},
		{"zero wordpress timeout", func(c *Config) { c.WordPress.Timeout = 0 }, true},
		{"zero mailchimp timeout", func(c *Config) { c.Mailchimp.Timeout = 0 }, true},
		{"no store path", func(c *Config) { c.Store.Path = "" }, true},
		{"in-memory store needs no path", func(c *Config) {
			c.Store.Path = ""
			c.Store.InMemory = true
		}, false},
		{"scheduler with bad cron", func(c *Config) {
			c.Scheduler.Enabled = true
			c.Scheduler.Cron = "banana"
		}, true},
		{"scheduler disabled ignores cron", func(c *Config) {
			c.Scheduler.Enabled = false
			c.Scheduler.Cron = "banana"
		}, false},
		{"rate limit zero reqs", func(c *Config) { c.Security.RateLimitReqs = 0 }, true},
		{"rate limit disabled skips checks", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"NF_SERVER_PORT", "server.port"},
		{"NF_WORDPRESS_BASE_URL", "wordpress.base_url"},
		{"NF_MAILCHIMP_API_KEY", "mailchimp.api_key"},
		{"NF_SECURITY_RATE_LIMIT_REQS", "security.rate_limit_reqs"},
		{"NF_SCHEDULER_SUBJECT_TEMPLATE", "scheduler.subject_template"},
		{"NF_LOGGING", "logging"},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv("NF_WORDPRESS_BASE_URL", "https://site.example.com")
	t.Setenv("NF_SERVER_PORT", "9090")
	t.Setenv("NF_SECURITY_CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("NF_STORE_IN_MEMORY", "true")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}

	if cfg.WordPress.BaseURL != "https://site.example.com" {
		t.Errorf("BaseURL = %q", cfg.WordPress.BaseURL)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("CORSOrigins = %v, want comma-split pair", cfg.Security.CORSOrigins)
	}
	if !cfg.Store.InMemory {
		t.Error("Store.InMemory not set from env")
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("wordpress:\n  base_url: https://file.example.com\nserver:\n  port: 8199\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}
	if cfg.WordPress.BaseURL != "https://file.example.com" {
		t.Errorf("BaseURL = %q, want file value", cfg.WordPress.BaseURL)
	}
	if cfg.Server.Port != 8199 {
		t.Errorf("Port = %d, want 8199", cfg.Server.Port)
	}
	// Untouched keys keep their defaults.
	if cfg.Mailchimp.Timeout != 30*time.Second {
		t.Errorf("Mailchimp.Timeout = %v, want default", cfg.Mailchimp.Timeout)
	}
}

func TestLoadWithKoanf_ValidationFailure(t *testing.T) {
	t.Setenv("NF_WORDPRESS_BASE_URL", "https://site.example.com")
	t.Setenv("NF_SERVER_PORT", "0")

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("LoadWithKoanf() accepted port 0")
	}
}
