package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/example/classroom-scheduler/internal/application"
)

// principalCache remembers recently verified tokens so that repeated requests
// skip the argon2 comparison. Keys are digests of the full token.
type principalCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]principalCacheEntry
}

type principalCacheEntry struct {
	principal application.Principal
	expiresAt time.Time
}

func newPrincipalCache(ttl time.Duration, maxEntries int, now func() time.Time) *principalCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if now == nil {
		now = time.Now
	}
	return &principalCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]principalCacheEntry),
	}
}

func (c *principalCache) Get(token string) (application.Principal, bool) {
	if c == nil {
		return application.Principal{}, false
	}
	key := cacheKey(token)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return application.Principal{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return application.Principal{}, false
	}
	return entry.principal, true
}

func (c *principalCache) Store(token string, principal application.Principal) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[cacheKey(token)] = principalCacheEntry{principal: principal, expiresAt: expiry}
}

func (c *principalCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *principalCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
