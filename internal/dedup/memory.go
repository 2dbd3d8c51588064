package dedup

import (
	"context"
	"sync"
	"time"
)

const defaultMaxEntries = 100000

// MemoryCache is a mutex-guarded map of request id to expiry.
type MemoryCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]time.Time
	earliest   time.Time
	Now        func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return NewMemoryCacheWithLimits(ttl, defaultMaxEntries)
}

// NewMemoryCacheWithLimits bounds the cache to maxEntries live records.
// Unexpired records are never evicted to make room.
func NewMemoryCacheWithLimits(ttl time.Duration, maxEntries int) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    map[string]time.Time{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (c *MemoryCache) Seen(_ context.Context, requestID string) (bool, error) {
	key := normalizeKey(requestID)
	if key == "" {
		return false, nil
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt, ok := c.entries[key]
	return ok && now.Before(expiresAt), nil
}

func (c *MemoryCache) Record(_ context.Context, requestID string) error {
	key := normalizeKey(requestID)
	if key == "" {
		return nil
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		if err := c.reserveLocked(now); err != nil {
			return err
		}
	}
	c.insertLocked(key, now)
	return nil
}

// Claim fails with DEDUP_CAPACITY_EXHAUSTED rather than forget an unexpired
// record when the cache is full.
func (c *MemoryCache) Claim(_ context.Context, requestID string) (bool, error) {
	key := normalizeKey(requestID)
	if key == "" {
		return true, nil
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if expiresAt, ok := c.entries[key]; ok {
		if now.Before(expiresAt) {
			return false, nil
		}
		delete(c.entries, key)
	}
	if err := c.reserveLocked(now); err != nil {
		return false, err
	}
	c.insertLocked(key, now)
	return true, nil
}

func (c *MemoryCache) PurgeExpired(_ context.Context) (int, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pruneExpiredLocked(now), nil
}

// Len reports the number of records, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

func (c *MemoryCache) insertLocked(key string, now time.Time) {
	expiresAt := now.Add(c.ttl)
	c.entries[key] = expiresAt
	if c.earliest.IsZero() || expiresAt.Before(c.earliest) {
		c.earliest = expiresAt
	}
}

// pruneExpiredLocked drops expired records. It skips the scan while nothing
// can have expired yet.
func (c *MemoryCache) pruneExpiredLocked(now time.Time) int {
	if len(c.entries) == 0 || now.Before(c.earliest) {
		return 0
	}
	pruned := 0
	var earliest time.Time
	for key, expiresAt := range c.entries {
		if !now.Before(expiresAt) {
			delete(c.entries, key)
			pruned++
			continue
		}
		if earliest.IsZero() || expiresAt.Before(earliest) {
			earliest = expiresAt
		}
	}
	c.earliest = earliest
	return pruned
}

// reserveLocked makes room for one more record. Only expired records are
// dropped; a cache full of live records refuses the write.
func (c *MemoryCache) reserveLocked(now time.Time) error {
	if len(c.entries) < c.maxEntries {
		return nil
	}
	c.pruneExpiredLocked(now)
	if len(c.entries) < c.maxEntries {
		return nil
	}
	return capacityError(c.maxEntries)
}

var (
	_ Cache  = (*MemoryCache)(nil)
	_ Purger = (*MemoryCache)(nil)
)
