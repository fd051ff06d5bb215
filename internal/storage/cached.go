package storage

import (
	"context"
	"time"

	"spendtrack/internal/cache"
)

type cachedValue struct {
	value string
	ok    bool
}

// CachedKV serves reads from an LRU in front of another KV. Writes go to the
// backend first; the cache only learns a value once the backend accepted it.
type CachedKV struct {
	next  KV
	cache *cache.LRUCache[string, cachedValue]
}

func NewCachedKV(next KV, size int, ttl time.Duration) *CachedKV {
	return &CachedKV{
		next:  next,
		cache: cache.NewLRUCache[string, cachedValue](size, ttl),
	}
}

func (c *CachedKV) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := c.cache.Get(key); ok {
		return v.value, v.ok, nil
	}
	value, ok, err := c.next.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	c.cache.Set(key, cachedValue{value: value, ok: ok})
	return value, ok, nil
}

func (c *CachedKV) Set(ctx context.Context, key, value string) error {
	if err := c.next.Set(ctx, key, value); err != nil {
		c.cache.Delete(key)
		return err
	}
	c.cache.Set(key, cachedValue{value: value, ok: true})
	return nil
}

func (c *CachedKV) Remove(ctx context.Context, key string) error {
	if err := c.next.Remove(ctx, key); err != nil {
		c.cache.Delete(key)
		return err
	}
	c.cache.Set(key, cachedValue{ok: false})
	return nil
}

// Cleaner exposes the LRU so a cache.Manager can evict expired entries.
func (c *CachedKV) Cleaner() cache.Cleaner {
	return c.cache
}

func (c *CachedKV) Stats() cache.Stats {
	return c.cache.Stats()
}
