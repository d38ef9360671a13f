package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/soundprediction/lancong/pkg/wikidata"
)

// Cache stores settled lookup results keyed by locale and name.
type Cache interface {
	// Get returns the cached result and true on a hit.
	Get(ctx context.Context, locale, name string) (wikidata.LookupResult, bool, error)
	Put(ctx context.Context, locale, name string, result wikidata.LookupResult) error
	Close() error
}

const keyPrefix = "enrich:"

func cacheKey(locale, name string) []byte {
	return []byte(keyPrefix + locale + ":" + strings.ToLower(strings.TrimSpace(name)))
}

type cachedEntry struct {
	Status string          `json:"status"`
	Entity wikidata.Entity `json:"entity"`
}

// BadgerCache is a Cache backed by BadgerDB with per-entry TTL.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

// badgerLogger routes badger's internal logging through slog.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (bl *badgerLogger) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLogger) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLogger) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLogger) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBadgerCache opens a cache at dir, creating the directory if needed. An
// empty dir opens an in-memory store. A ttl of zero keeps entries forever.
func OpenBadgerCache(dir string, ttl time.Duration, logger *slog.Logger) (*BadgerCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open enrichment cache: %w", err)
	}
	return &BadgerCache{db: db, ttl: ttl}, nil
}

// Get implements Cache.
func (c *BadgerCache) Get(ctx context.Context, locale, name string) (wikidata.LookupResult, bool, error) {
	var entry cachedEntry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(locale, name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return wikidata.LookupResult{}, false, nil
	}
	if err != nil {
		return wikidata.LookupResult{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	result := wikidata.LookupResult{Status: wikidata.NotFound, Entity: entry.Entity}
	if entry.Status == wikidata.Found.String() {
		result.Status = wikidata.Found
	}
	return result, true, nil
}

// Put implements Cache. Transport errors are not cached.
func (c *BadgerCache) Put(ctx context.Context, locale, name string, result wikidata.LookupResult) error {
	if result.Status == wikidata.TransportError {
		return nil
	}
	value, err := json.Marshal(cachedEntry{Status: result.Status.String(), Entity: result.Entity})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(locale, name), value)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Close closes the underlying database.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
