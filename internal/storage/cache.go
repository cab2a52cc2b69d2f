package storage

import (
	"sync"
	"time"
)

// StateCache remembers which mount points were recently confirmed healthy so
// repeated cycles skip the mountpoint probe. It is injectable (never a
// module-level singleton), carries an explicit TTL and an explicit Reset so
// tests and callers can force deterministic states.
type StateCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]time.Time
}

// DefaultMountCacheTTL bounds how long a confirmed mount is trusted without
// re-probing.
const DefaultMountCacheTTL = 5 * time.Minute

// NewStateCache creates a cache with the given TTL. A non-positive TTL
// disables caching entirely.
func NewStateCache(ttl time.Duration) *StateCache {
	return &StateCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]time.Time),
	}
}

// SetNowFunc overrides the time source (tests only).
func (c *StateCache) SetNowFunc(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now == nil {
		c.now = time.Now
		return
	}
	c.now = now
}

// Healthy reports whether key was marked healthy within the TTL.
func (c *StateCache) Healthy(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ttl <= 0 {
		return false
	}
	at, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.now().Sub(at) > c.ttl {
		delete(c.entries, key)
		return false
	}
	return true
}

// MarkHealthy records key as healthy now.
func (c *StateCache) MarkHealthy(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = c.now()
}

// Reset forgets all cached states.
func (c *StateCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]time.Time)
}
