// Newsletterforge - Newsletter Assembly and Campaign Dispatch
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsletterforge

// markers.go - Per-post sent-marker persistence
//
// A marker records that the post was included in a successfully sent
// non-test campaign. Set only after a verified send, never on test sends.

package store

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsletterforge/internal/logging"
	"github.com/tomtom215/newsletterforge/internal/metrics"
)

const markerKeyPrefix = "sent:"

// MarkerStore persists sent-markers.
type MarkerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// NewMarkerStore creates a sent-marker store.
func NewMarkerStore(db *badger.DB) *MarkerStore {
	return &MarkerStore{
		db:     db,
		logger: logging.With().Str("component", "marker-store").Logger(),
	}
}

func markerKey(postID int64) []byte {
	return []byte(markerKeyPrefix + strconv.FormatInt(postID, 10))
}

// MarkSent flags every post id with the given send time, in one transaction.
func (s *MarkerStore) MarkSent(postIDs []int64, sentAt time.Time) error {
	if len(postIDs) == 0 {
		return nil
	}

	value := []byte(sentAt.UTC().Format(time.RFC3339))
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, id := range postIDs {
			if err := txn.Set(markerKey(id), value); err != nil {
				return fmt.Errorf("set marker for post %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.PostsMarkedSent.Add(float64(len(postIDs)))
	s.logger.Info().Ints64("post_ids", postIDs).Msg("Posts marked sent")
	return nil
}

// SentAt returns the send time for a post, or (zero, false) when no marker
// exists.
func (s *MarkerStore) SentAt(postID int64) (time.Time, bool, error) {
	var sentAt time.Time
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(markerKey(postID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get marker for post %d: %w", postID, err)
		}
		return item.Value(func(val []byte) error {
			t, parseErr := time.Parse(time.RFC3339, string(val))
			if parseErr != nil {
				return fmt.Errorf("corrupt marker for post %d: %w", postID, parseErr)
			}
			sentAt = t
			found = true
			return nil
		})
	})
	if err != nil {
		return time.Time{}, false, err
	}
	return sentAt, found, nil
}

// FilterUnsent returns the subset of ids with no sent-marker, preserving
// input order.
func (s *MarkerStore) FilterUnsent(postIDs []int64) ([]int64, error) {
	unsent := make([]int64, 0, len(postIDs))

	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range postIDs {
			_, err := txn.Get(markerKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				unsent = append(unsent, id)
				continue
			}
			if err != nil {
				return fmt.Errorf("probe marker for post %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return unsent, nil
}

// Clear removes the marker for a post. Exposed for operator corrections.
func (s *MarkerStore) Clear(postID int64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(markerKey(postID))
	})
}
