// Package cache provides in-process implementations of
// ports.CacheStore used by the quality and confidence engines.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/averen/credence/internal/ports"
)

// Memory is an in-process CacheStore backed by go-cache. Values are
// stored as-is without serialization; expired entries are swept by the
// library's janitor and also dropped lazily on Get.
type Memory struct {
	cache *gocache.Cache
}

var _ ports.CacheStore = (*Memory)(nil)

// NewMemory creates a Memory cache. defaultTTL applies to entries
// stored with a zero expiration; cleanupInterval is how often the
// janitor sweeps expired entries, with zero disabling the janitor.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &Memory{cache: gocache.New(defaultTTL, cleanupInterval)}
}

// Get retrieves a cached value by key.
func (m *Memory) Get(ctx context.Context, key string) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	value, found := m.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores a value with the given expiration. A zero expiration
// falls back to the store default; a negative one stores the value
// without expiry.
func (m *Memory) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if expiration < 0 {
		expiration = gocache.NoExpiration
	}
	m.cache.Set(key, value, expiration)
	return nil
}

// Delete removes a value from the cache. Missing keys are not an
// error.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache.
func (m *Memory) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.cache.Flush()
	return nil
}

// Len reports the number of entries currently stored, including
// expired entries the janitor has not yet swept.
func (m *Memory) Len() int { return m.cache.ItemCount() }
