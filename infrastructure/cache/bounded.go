package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/ports"
)

// ErrNilStore indicates a decorator was constructed without an inner
// store.
var ErrNilStore = errors.New("cache store cannot be nil")

// Bounded decorates a CacheStore with a maximum entry count. When a
// new key would exceed the cap, the oldest-inserted keys are evicted
// first. Re-setting an existing key keeps its original insertion slot.
type Bounded struct {
	inner ports.CacheStore
	max   int

	mu    sync.Mutex
	order []string
	seen  map[string]struct{}
}

var _ ports.CacheStore = (*Bounded)(nil)

// NewBounded wraps inner with a maxEntries cap. Returns an error if
// inner is nil or maxEntries is not positive.
func NewBounded(inner ports.CacheStore, maxEntries int) (*Bounded, error) {
	if inner == nil {
		return nil, ErrNilStore
	}
	if maxEntries < 1 {
		return nil, fmt.Errorf("%w: max entries must be positive, got %d",
			domain.ErrInvalidConfiguration, maxEntries)
	}
	return &Bounded{
		inner: inner,
		max:   maxEntries,
		seen:  make(map[string]struct{}, maxEntries),
	}, nil
}

// Get retrieves a cached value by key from the inner store.
func (b *Bounded) Get(ctx context.Context, key string) (any, bool, error) {
	return b.inner.Get(ctx, key)
}

// Set stores a value, evicting the oldest-inserted entries when the
// key is new and the store is full.
func (b *Bounded) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, tracked := b.seen[key]; !tracked {
		for len(b.order) >= b.max {
			oldest := b.order[0]
			b.order = b.order[1:]
			delete(b.seen, oldest)
			if err := b.inner.Delete(ctx, oldest); err != nil {
				return fmt.Errorf("evicting %q: %w", oldest, err)
			}
		}
	}

	if err := b.inner.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	if _, tracked := b.seen[key]; !tracked {
		b.order = append(b.order, key)
		b.seen[key] = struct{}{}
	}
	return nil
}

// Delete removes a value and releases its insertion slot.
func (b *Bounded) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.inner.Delete(ctx, key); err != nil {
		return err
	}
	if _, tracked := b.seen[key]; tracked {
		delete(b.seen, key)
		for i, k := range b.order {
			if k == key {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Clear removes all values and resets the insertion order.
func (b *Bounded) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.inner.Clear(ctx); err != nil {
		return err
	}
	b.order = b.order[:0]
	b.seen = make(map[string]struct{}, b.max)
	return nil
}

// Len reports how many keys currently hold insertion slots.
func (b *Bounded) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}
