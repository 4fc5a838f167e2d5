// Vinescope - Trending and Velocity Analytics for Short-Form Video
// Copyright 2026 OpenVine contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvine/vinescope

package counterstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/openvine/vinescope/internal/logging"
	"github.com/openvine/vinescope/internal/models"
)

// Key layout. Component separator is ':'; videoIDs and normalized hashtags
// never contain it (IDs are hex, hashtags are normalized word characters).
//
//	h:<videoID>:<hourBucket>  -> decimal count
//	v:<videoID>               -> JSON ViewData
//	t:<hashtag>:<videoID>     -> (empty) hashtag index entry
//	s:<hashtag>               -> decimal total views
const (
	prefixHourly   = "h:"
	prefixViewData = "v:"
	prefixTagIndex = "t:"
	prefixTagTotal = "s:"
)

// BadgerStore is the persistent counter store backed by BadgerDB.
//
// Increments run inside Badger transactions, but the store makes no
// cross-request serialization guarantee beyond what a single transaction
// gives: two invocations incrementing the same bucket may conflict and one
// may be retried or lost under at-least-once ingestion. That approximation
// is accepted by the contract.
type BadgerStore struct {
	db *badger.DB
}

// Options configures a BadgerStore.
type Options struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory runs the store fully in memory (tests, ephemeral deploys).
	InMemory bool
}

// NewBadgerStore opens (or creates) a Badger-backed counter store.
func NewBadgerStore(opts Options) (*BadgerStore, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).
		WithInMemory(opts.InMemory).
		WithLogger(nil) // badger's own logger is noisy; we log outcomes ourselves

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open counter store at %s: %w", opts.Path, err)
	}

	return &BadgerStore{db: db}, nil
}

// RecordView applies one view event to all derived counters in a single
// transaction.
func (s *BadgerStore) RecordView(ctx context.Context, event *models.ViewEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ts := event.Timestamp
	bucket := HourBucket(ts)

	err := s.db.Update(func(txn *badger.Txn) error {
		// Hourly bucket counter
		hourlyKey := []byte(prefixHourly + event.VideoID + ":" + strconv.FormatInt(bucket, 10))
		count, err := readCounter(txn, hourlyKey)
		if err != nil {
			return err
		}
		if err := txn.Set(hourlyKey, []byte(strconv.FormatInt(count+1, 10))); err != nil {
			return fmt.Errorf("failed to set hourly counter: %w", err)
		}

		// Denormalized current-state record
		vd, err := readViewData(txn, event.VideoID)
		if err != nil {
			return err
		}
		if vd == nil {
			vd = &models.ViewData{VideoID: event.VideoID}
		}
		vd.Count++
		if ts.After(vd.LastUpdate) {
			vd.LastUpdate = ts
		}
		if event.Title != "" {
			vd.Title = event.Title
		}

		// Hashtag index and totals
		for _, raw := range event.Hashtags {
			tag := NormalizeHashtag(raw)
			if tag == "" {
				continue
			}
			if !containsTag(vd.Hashtags, tag) {
				vd.Hashtags = append(vd.Hashtags, tag)
			}
			indexKey := []byte(prefixTagIndex + tag + ":" + event.VideoID)
			if err := txn.Set(indexKey, nil); err != nil {
				return fmt.Errorf("failed to set hashtag index: %w", err)
			}
			totalKey := []byte(prefixTagTotal + tag)
			total, err := readCounter(txn, totalKey)
			if err != nil {
				return err
			}
			if err := txn.Set(totalKey, []byte(strconv.FormatInt(total+1, 10))); err != nil {
				return fmt.Errorf("failed to set hashtag total: %w", err)
			}
		}

		data, err := json.Marshal(vd)
		if err != nil {
			return fmt.Errorf("failed to marshal view data: %w", err)
		}
		return txn.Set([]byte(prefixViewData+event.VideoID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to record view for %s: %w", event.VideoID, err)
	}
	return nil
}

// GetHourlyCount returns the count for one hour bucket (missing = 0).
func (s *BadgerStore) GetHourlyCount(ctx context.Context, videoID string, bucket int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.View(func(txn *badger.Txn) error {
		key := []byte(prefixHourly + videoID + ":" + strconv.FormatInt(bucket, 10))
		c, err := readCounter(txn, key)
		count = c
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read hourly count: %w", err)
	}
	return count, nil
}

// GetViewData returns the current-state record, or (nil, nil) if absent.
func (s *BadgerStore) GetViewData(ctx context.Context, videoID string) (*models.ViewData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var vd *models.ViewData
	err := s.db.View(func(txn *badger.Txn) error {
		v, err := readViewData(txn, videoID)
		vd = v
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read view data for %s: %w", videoID, err)
	}
	return vd, nil
}

// ListViewData enumerates up to limit records in ascending videoID order.
// Records that fail to decode are skipped and logged; a corrupt record must
// not abort candidate enumeration.
func (s *BadgerStore) ListViewData(ctx context.Context, limit int) ([]models.ViewData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]models.ViewData, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixViewData)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(out) < limit; it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var vd models.ViewData
				if err := json.Unmarshal(val, &vd); err != nil {
					logging.Warn().Err(err).Str("key", string(item.Key())).Msg("Skipping undecodable view data record")
					return nil
				}
				out = append(out, vd)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list view data: %w", err)
	}
	return out, nil
}

// ListVideosForHashtag enumerates up to limit videoIDs for a hashtag.
func (s *BadgerStore) ListVideosForHashtag(ctx context.Context, hashtag string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := prefixTagIndex + NormalizeHashtag(hashtag) + ":"
	out := make([]string, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false // keys only
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(out) < limit; it.Next() {
			key := string(it.Item().Key())
			out = append(out, strings.TrimPrefix(key, prefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list videos for hashtag %s: %w", hashtag, err)
	}
	return out, nil
}

// GetHashtagTotalViews returns the total view counter for a hashtag.
func (s *BadgerStore) GetHashtagTotalViews(ctx context.Context, hashtag string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var total int64
	err := s.db.View(func(txn *badger.Txn) error {
		t, err := readCounter(txn, []byte(prefixTagTotal+NormalizeHashtag(hashtag)))
		total = t
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read hashtag total: %w", err)
	}
	return total, nil
}

// ListHashtagTotals enumerates up to limit (hashtag, views) pairs in
// ascending hashtag order.
func (s *BadgerStore) ListHashtagTotals(ctx context.Context, limit int) ([]models.HashtagViews, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]models.HashtagViews, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixTagTotal)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(out) < limit; it.Next() {
			item := it.Item()
			tag := strings.TrimPrefix(string(item.Key()), prefixTagTotal)
			err := item.Value(func(val []byte) error {
				views, err := strconv.ParseInt(string(val), 10, 64)
				if err != nil {
					logging.Warn().Str("hashtag", tag).Msg("Skipping unparsable hashtag total")
					return nil
				}
				out = append(out, models.HashtagViews{Hashtag: tag, Views: views})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list hashtag totals: %w", err)
	}
	return out, nil
}

// Close closes the underlying Badger database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// readCounter reads a decimal counter value inside a transaction.
// A missing key reads as 0.
func readCounter(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get %s: %w", string(key), err)
	}

	var count int64
	err = item.Value(func(val []byte) error {
		c, perr := strconv.ParseInt(string(val), 10, 64)
		if perr != nil {
			// Unparsable counter reads as 0; history reconstruction is
			// best-effort, not an authoritative ledger.
			logging.Warn().Str("key", string(key)).Msg("Unparsable counter value, treating as 0")
			return nil
		}
		count = c
		return nil
	})
	return count, err
}

// readViewData reads and decodes a ViewData record inside a transaction.
// A missing key reads as (nil, nil).
func readViewData(txn *badger.Txn, videoID string) (*models.ViewData, error) {
	item, err := txn.Get([]byte(prefixViewData + videoID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get view data: %w", err)
	}

	var vd models.ViewData
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &vd)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode view data: %w", err)
	}
	return &vd, nil
}
