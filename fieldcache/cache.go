// ABOUTME: BadgerDB-backed cache of custom field schemas, one entry per entity kind
// ABOUTME: Avoids a <kind>Fields round trip per kind on every client start
package fieldcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/dgraph-io/badger/v3"

	"github.com/harperreed/pipedrive/objects"
)

const keyPrefix = "fields/"

// Cache stores schemas in a badger database.
type Cache struct {
	db *badger.DB
}

type entry struct {
	SavedAt time.Time      `json:"saved_at"`
	Fields  objects.Schema `json:"fields"`
}

// DefaultDir returns the XDG cache location of the schema cache.
func DefaultDir() string {
	return filepath.Join(xdg.CacheHome, "pipedrive", "fields")
}

// Open opens (or creates) a cache in dir.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create field cache directory: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open field cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// OpenInMemory opens a cache that is discarded on Close.
func OpenInMemory() (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory field cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func key(kind objects.Kind) []byte {
	return []byte(keyPrefix + string(kind))
}

// Get returns the cached schema of kind. ok is false when nothing is cached.
func (c *Cache) Get(kind objects.Kind) (objects.Schema, bool, error) {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(kind))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s fields: %w", kind, err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("failed to decode %s fields: %w", kind, err)
	}
	if e.Fields == nil {
		e.Fields = objects.Schema{}
	}
	return e.Fields, true, nil
}

// Put stores the schema of kind.
func (c *Cache) Put(kind objects.Kind, schema objects.Schema) error {
	raw, err := json.Marshal(entry{SavedAt: time.Now().UTC(), Fields: schema})
	if err != nil {
		return fmt.Errorf("failed to encode %s fields: %w", kind, err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(kind), raw)
	})
}

// SavedAt reports when the schema of kind was cached.
func (c *Cache) SavedAt(kind objects.Kind) (time.Time, bool, error) {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(kind))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read %s fields: %w", kind, err)
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to decode %s fields: %w", kind, err)
	}
	return e.SavedAt, true, nil
}

// Clear removes every cached schema.
func (c *Cache) Clear() error {
	return c.db.DropAll()
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}
