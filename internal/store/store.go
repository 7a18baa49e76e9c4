// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// Package store persists the service's only local state in BadgerDB: the
// flat named-settings document and per-post sent-markers. Everything else
// (content, campaigns) lives in the host CMS or Mailchimp.
package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/newsletterforge/internal/logging"
)

// Config holds store construction parameters.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory runs the store without disk persistence (tests).
	InMemory bool
}

// Open opens the BadgerDB instance backing all stores.
func Open(cfg Config) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(badgerLogger{}).
		WithInMemory(cfg.InMemory)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store at %q: %w", cfg.Path, err)
	}
	return db, nil
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}
