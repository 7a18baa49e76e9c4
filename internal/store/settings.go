// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// settings.go - Settings document persistence
//
// One JSON document under a fixed key. Absence means defaults apply; Save
// sanitizes every field before writing.

package store

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsletterforge/internal/logging"
	"github.com/tomtom215/newsletterforge/internal/models"
)

const settingsKey = "settings:current"

var (
	hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	isoDateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// SettingsStore persists the settings document.
//
// Sanitize cleans the separator HTML on save; it is injected so the store
// stays free of any markup-filtering policy of its own.
type SettingsStore struct {
	db       *badger.DB
	sanitize func(string) string
	logger   zerolog.Logger
}

// NewSettingsStore creates a settings store. sanitize may be nil, in which
// case separator HTML is persisted verbatim.
func NewSettingsStore(db *badger.DB, sanitize func(string) string) *SettingsStore {
	return &SettingsStore{
		db:       db,
		sanitize: sanitize,
		logger:   logging.With().Str("component", "settings-store").Logger(),
	}
}

// Load reads the current settings document. A missing document yields the
// documented defaults, never an error.
func (s *SettingsStore) Load() (models.Settings, error) {
	settings := models.DefaultSettings()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(settingsKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &settings)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return models.DefaultSettings(), nil
		}
		return settings, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// Save sanitizes and persists the settings document.
func (s *SettingsStore) Save(settings models.Settings) error {
	sanitized := s.sanitizeSettings(settings)

	data, err := json.Marshal(sanitized)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(settingsKey), data)
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info().Msg("Settings saved")
	return nil
}

// Seed writes defaults merged with the given credentials, but only when no
// settings document exists yet. Mirrors first-boot activation behavior.
func (s *SettingsStore) Seed(apiKey, listID string) error {
	exists := true
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(settingsKey))
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("probe settings: %w", err)
		}
		exists = false
	}
	if exists {
		return nil
	}

	settings := models.DefaultSettings()
	settings.MailchimpAPIKey = strings.TrimSpace(apiKey)
	settings.MailchimpListID = strings.TrimSpace(listID)

	s.logger.Info().Msg("Seeding default settings")
	return s.Save(settings)
}

// MailchimpCredentials implements mailchimp.CredentialSource, reading the
// current key and list ID per call so settings edits apply immediately.
func (s *SettingsStore) MailchimpCredentials() (string, string, error) {
	settings, err := s.Load()
	if err != nil {
		return "", "", err
	}
	return settings.MailchimpAPIKey, settings.MailchimpListID, nil
}

// sanitizeSettings applies per-field cleanup: trimmed strings, clamped
// limits, color fallback, validated URLs, filtered separator markup.
func (s *SettingsStore) sanitizeSettings(in models.Settings) models.Settings {
	out := in

	out.MailchimpAPIKey = strings.TrimSpace(in.MailchimpAPIKey)
	out.MailchimpListID = strings.TrimSpace(in.MailchimpListID)
	out.RecurringEventCategory = strings.TrimSpace(in.RecurringEventCategory)

	if out.PostsLimit < 1 {
		out.PostsLimit = models.DefaultPostsLimit
	}
	if out.EventsLimit < 1 {
		out.EventsLimit = models.DefaultEventsLimit
	}
	if out.PostExcerptLength < 1 {
		out.PostExcerptLength = models.DefaultExcerptLength
	}

	if !hexColorRe.MatchString(strings.TrimSpace(in.ButtonBackgroundColor)) {
		out.ButtonBackgroundColor = models.DefaultButtonColor
	} else {
		out.ButtonBackgroundColor = strings.TrimSpace(in.ButtonBackgroundColor)
	}

	if out.EventsEndDate != "" && !isoDateRe.MatchString(out.EventsEndDate) {
		out.EventsEndDate = ""
	}

	out.HeaderImage = sanitizeURL(in.HeaderImage)
	out.FacebookURL = sanitizeURL(in.FacebookURL)
	out.InstagramURL = sanitizeURL(in.InstagramURL)

	if s.sanitize != nil {
		out.SeparatorHTML = s.sanitize(in.SeparatorHTML)
	}

	return out
}

// sanitizeURL keeps only absolute http(s) URLs.
func sanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}
