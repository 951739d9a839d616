package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultLRUSize = 1024
	defaultTTL     = 5 * time.Minute
)

type lruEntry struct {
	value    []byte
	storedAt time.Time
}

// LRU is an in-process cache with a size bound and a per-entry TTL.
type LRU struct {
	cache *lru.Cache[string, lruEntry]
	ttl   time.Duration
	now   func() time.Time
}

// NewLRU creates an LRU cache. Non-positive size or ttl fall back to defaults.
func NewLRU(size int, ttl time.Duration) (*LRU, error) {
	if size <= 0 {
		size = defaultLRUSize
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRU{cache: c, ttl: ttl, now: time.Now}, nil
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		c.cache.Remove(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (c *LRU) Set(_ context.Context, key string, value []byte) error {
	c.cache.Add(key, lruEntry{value: append([]byte(nil), value...), storedAt: c.now()})
	return nil
}

func (c *LRU) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.cache.Remove(k)
	}
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *LRU) Len() int {
	return c.cache.Len()
}

func (c *LRU) Close() error {
	c.cache.Purge()
	return nil
}
