// Package querycache is a small in-memory TTL cache for API GET payloads,
// keyed by request path.
package querycache

import (
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultTTL is used when New is given a non-positive TTL.
const DefaultTTL = time.Minute

// Cache holds raw response payloads until they expire or are invalidated.
type Cache struct {
	ttl   time.Duration
	items *ttlcache.Cache[string, []byte]
}

// New creates a cache whose entries stay fresh for ttl. Reads do not extend
// an entry's lifetime.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl: ttl,
		items: ttlcache.New(
			ttlcache.WithTTL[string, []byte](ttl),
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns a copy of the cached payload for key if it is still fresh.
func (c *Cache) Get(key string) ([]byte, bool) {
	item := c.items.Get(key)
	if item == nil {
		return nil, false
	}
	return append([]byte(nil), item.Value()...), true
}

// Set stores a copy of data under key.
func (c *Cache) Set(key string, data []byte) {
	c.items.Set(key, append([]byte(nil), data...), ttlcache.DefaultTTL)
}

// Invalidate removes every key equal to one of prefixes or nested under it
// ("/sessions" drops "/sessions", "/sessions?page=2" and "/sessions/7/messages",
// but not "/sessionsx"). It returns the number of entries removed.
func (c *Cache) Invalidate(prefixes ...string) int {
	removed := 0
	for _, key := range c.items.Keys() {
		for _, p := range prefixes {
			if matches(key, p) {
				c.items.Delete(key)
				removed++
				break
			}
		}
	}
	return removed
}

func matches(key, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(key, prefix) {
		return false
	}
	if len(key) == len(prefix) {
		return true
	}
	switch key[len(prefix)] {
	case '/', '?':
		return true
	}
	return strings.HasSuffix(prefix, "/")
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.items.DeleteAll()
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	return c.items.Len()
}

// Metrics reports hits and misses since the cache was created.
func (c *Cache) Metrics() (hits, misses uint64) {
	m := c.items.Metrics()
	return m.Hits, m.Misses
}
