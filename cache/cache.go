// Package cache provides an in-memory TTL cache for hotel URL lookups.
// Directory lookups for a given hotel rarely change, so repeated batch
// runs over the same portfolio skip the LLM round trip.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/use-agent/revscan/discovery"
)

const defaultTTL = 24 * time.Hour

type entry struct {
	urls      *discovery.HotelURLs
	expiresAt time.Time
}

// LookupCache caches resolved hotel URLs keyed by hotel name and city.
type LookupCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
}

// New creates a cache holding at most maxEntries lookups.
// A maxEntries of zero or less falls back to 1000.
func New(maxEntries int) *LookupCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &LookupCache{
		entries:    make(map[string]entry),
		ttl:        defaultTTL,
		maxEntries: maxEntries,
	}
}

// Get returns the cached URLs for a hotel, or nil if absent or expired.
func (c *LookupCache) Get(hotelName, city string) *discovery.HotelURLs {
	key := makeKey(hotelName, city)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil
	}
	return e.urls
}

// Set stores the resolved URLs for a hotel. When the cache is full it
// evicts expired entries first, then the entry closest to expiry.
func (c *LookupCache) Set(hotelName, city string, urls *discovery.HotelURLs) {
	if urls == nil {
		return
	}
	key := makeKey(hotelName, city)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = entry{
		urls:      urls,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Len reports the number of cached entries, including expired ones
// not yet evicted.
func (c *LookupCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every cached entry.
func (c *LookupCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// evictLocked removes expired entries, or failing that, the single
// entry nearest to expiry. Caller holds the write lock.
func (c *LookupCache) evictLocked() {
	now := time.Now()
	removed := false
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed = true
		}
	}
	if removed {
		return
	}
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey = k
			oldest = e.expiresAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func makeKey(hotelName, city string) string {
	return strings.ToLower(strings.TrimSpace(hotelName)) + "|" + strings.ToLower(strings.TrimSpace(city))
}
