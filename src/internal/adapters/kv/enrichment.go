package kv

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/anidex/anidex/src/internal/domain"
)

// EnrichmentCache remembers lookup outcomes, misses included. Found entries
// live for hitTTL and misses for the shorter missTTL, so a character the
// source adds later is picked up again.
type EnrichmentCache struct {
	db      *badger.DB
	hitTTL  time.Duration
	missTTL time.Duration
}

func (s *Store) Enrichments(hitTTL, missTTL time.Duration) *EnrichmentCache {
	return &EnrichmentCache{db: s.db, hitTTL: hitTTL, missTTL: missTTL}
}

func enrichmentKey(name string) []byte {
	return []byte(enrichmentKeyPrefix + strings.ToLower(strings.TrimSpace(name)))
}

// Get reports ok=false when name was never looked up. A remembered miss comes
// back as a nil entry with ok=true.
func (c *EnrichmentCache) Get(name string) (*domain.Enrichment, bool, error) {
	var (
		entry *domain.Enrichment
		ok    bool
	)
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(enrichmentKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get enrichment: %w", err)
		}
		ok = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, false, err
	}
	return entry, ok, nil
}

func (c *EnrichmentCache) Put(name string, entry *domain.Enrichment) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal enrichment: %w", err)
	}
	ttl := c.hitTTL
	if entry == nil {
		ttl = c.missTTL
	}
	e := badger.NewEntry(enrichmentKey(name), data)
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(e)
	})
}
