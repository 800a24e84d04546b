package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryPointsCache is an in-memory implementation of PointsCache.
// Use this for development/testing or single-instance deployments.
type MemoryPointsCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	summary   CachedSummary
	expiresAt time.Time
}

// NewMemoryPointsCache creates a new in-memory points cache.
func NewMemoryPointsCache(ttl time.Duration) *MemoryPointsCache {
	return &MemoryPointsCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

// Get retrieves a cached summary, lazily discarding expired entries.
func (c *MemoryPointsCache) Get(ctx context.Context, key string) (*CachedSummary, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}

	cs := entry.summary
	return &cs, nil
}

// Set stores the summary under the key with the configured TTL.
func (c *MemoryPointsCache) Set(ctx context.Context, key string, cs *CachedSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{summary: *cs, expiresAt: time.Now().Add(c.ttl)}
	return nil
}

// Invalidate removes every listed key.
func (c *MemoryPointsCache) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

// MemoryPendingHoldStore is an in-memory implementation of PendingHoldStore.
type MemoryPendingHoldStore struct {
	mu    sync.Mutex
	holds map[string]time.Time
}

// NewMemoryPendingHoldStore creates a new in-memory pending hold store.
func NewMemoryPendingHoldStore() *MemoryPendingHoldStore {
	return &MemoryPendingHoldStore{holds: make(map[string]time.Time)}
}

// Acquire claims the reference for ttl unless an unexpired claim exists.
func (s *MemoryPendingHoldStore) Acquire(ctx context.Context, reference string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if expiry, ok := s.holds[reference]; ok && expiry.After(now) {
		return false, nil
	}
	s.holds[reference] = now.Add(ttl)
	return true, nil
}

// Exists reports whether an unexpired claim is recorded for the reference.
func (s *MemoryPendingHoldStore) Exists(ctx context.Context, reference string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.holds[reference]
	if !ok {
		return false, nil
	}
	if !expiry.After(time.Now()) {
		delete(s.holds, reference)
		return false, nil
	}
	return true, nil
}

// Release drops the claim.
func (s *MemoryPendingHoldStore) Release(ctx context.Context, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holds, reference)
	return nil
}
