// ForYouPage - Geographic Link Discovery
// Copyright 2026 Bilal (Bilal292)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Bilal292/foryoupage

package geo

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/Bilal292/foryoupage/internal/logging"
)

const badgerKeyPrefix = "geoip:"

// BadgerCache is a BadgerDB-backed LocationCache. Entries use Badger's
// native TTL, so cached locations survive process restarts and expire
// without a janitor. Suitable when the 24h cache is worth persisting.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerCache opens (or creates) a Badger store at path.
func NewBadgerCache(path string, ttl time.Duration) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerCache{db: db, ttl: ttl}, nil
}

// Get returns the cached coordinate for ip, if present and unexpired.
// Read errors are logged and reported as misses; the locator then falls
// back to a fresh lookup.
func (b *BadgerCache) Get(ip string) (Coordinate, bool) {
	var coord Coordinate
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + ip))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &coord)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Coordinate{}, false
	}
	if err != nil {
		logging.Warn().Str("ip", ip).Err(err).Msg("badger geo cache read failed")
		return Coordinate{}, false
	}
	return coord, true
}

// Set caches the coordinate for ip with the configured TTL. Write errors
// are logged and swallowed; the cache is an optimization, not a source of
// truth.
func (b *BadgerCache) Set(ip string, coord Coordinate) {
	data, err := json.Marshal(coord)
	if err != nil {
		logging.Warn().Str("ip", ip).Err(err).Msg("badger geo cache marshal failed")
		return
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(badgerKeyPrefix+ip), data).WithTTL(b.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		logging.Warn().Str("ip", ip).Err(err).Msg("badger geo cache write failed")
	}
}

// Close releases the underlying Badger store.
func (b *BadgerCache) Close() error {
	return b.db.Close()
}
