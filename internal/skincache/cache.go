// Package skincache is a TTL cache for catalog and collection reads, keyed by typed
// parameter tuples.
package skincache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTTL is how long an entry stays readable after Set.
const DefaultTTL = 30 * time.Minute

// Store is a raw byte store with per-entry expiry and prefix sweeps.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

type envelope struct {
	Value    json.RawMessage `json:"value"`
	StoredAt time.Time       `json:"storedAt"`
}

// Cache encodes values as JSON with an embedded storedAt and enforces the TTL on read, so
// entries expire the same way whatever the Store does with its own expiry.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

type Option func(*Cache)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(store Store, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{store: store, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) Set(ctx context.Context, key Key, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	env, err := json.Marshal(envelope{Value: raw, StoredAt: c.now()})
	if err != nil {
		return fmt.Errorf("encode cache envelope: %w", err)
	}
	return c.store.Set(ctx, key.String(), env, c.ttl)
}

// Get decodes the cached value into dst. An expired entry is evicted and reported absent.
func (c *Cache) Get(ctx context.Context, key Key, dst any) (bool, error) {
	k := key.String()
	raw, ok, err := c.store.Get(ctx, k)
	if err != nil || !ok {
		return false, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		_ = c.store.Delete(ctx, k)
		return false, nil
	}
	if c.now().Sub(env.StoredAt) >= c.ttl {
		if err := c.store.Delete(ctx, k); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := json.Unmarshal(env.Value, dst); err != nil {
		return false, fmt.Errorf("decode cache value: %w", err)
	}
	return true, nil
}

// InvalidatePrefix removes every entry under p and returns how many were dropped.
func (c *Cache) InvalidatePrefix(ctx context.Context, p Prefix) (int, error) {
	return c.store.DeletePrefix(ctx, p.String())
}
