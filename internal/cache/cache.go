// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

// Package cache provides the result cache: a thread-safe in-memory TTL
// store keyed by canonical request fingerprints, with a single-flight
// guarantee that concurrent identical requests trigger exactly one
// computation.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry is a cached payload with its expiration.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	Evictions   int64     `json:"evictions"`
	TotalKeys   int64     `json:"total_keys"`
	LastCleanup time.Time `json:"last_cleanup"`
}

// Cache is a thread-safe TTL cache with single-flight computation.
// Capacity is unbounded; expired entries are dropped lazily on Get and
// proactively by Sweep, which the supervisor runs on a timer.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration

	group singleflight.Group

	statsMu sync.Mutex
	stats   Stats
}

// New creates a cache with the given default TTL. No background goroutine
// is started here; wire Sweep into a supervised service for proactive
// cleanup.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		stats:   Stats{LastCleanup: time.Now()},
	}
}

// DefaultTTL returns the TTL applied when callers pass zero.
func (c *Cache) DefaultTTL() time.Duration {
	return c.ttl
}

// Get retrieves a live entry. An expired entry is removed and reported as
// a miss.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		// Recheck under the write lock; another goroutine may have
		// replaced the entry with a fresh one.
		if cur, ok := c.entries[key]; ok && time.Now().After(cur.ExpiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.recordMiss()
		c.recordEviction()
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores a value with a custom TTL; zero means the default.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	c.entries[key] = Entry{Data: value, ExpiresAt: time.Now().Add(ttl)}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.TotalKeys = total
	c.statsMu.Unlock()
}

// GetOrCompute returns the cached payload for the fingerprint, or runs
// compute exactly once for all concurrent callers presenting the same
// fingerprint. Only successful results are cached; an error is returned
// to every waiter and the slot is released so a later call can retry.
// The computation runs on a context detached from the first caller's
// cancellation: if that caller aborts, the shared result still completes
// for the other waiters.
func (c *Cache) GetOrCompute(ctx context.Context, fingerprint string, ttl time.Duration, compute func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if data, ok := c.Get(fingerprint); ok {
		return data, nil
	}

	data, err, _ := c.group.Do(fingerprint, func() (interface{}, error) {
		// Latecomers may arrive after a concurrent computation stored
		// the entry but before the flight is forgotten.
		if data, ok := c.Get(fingerprint); ok {
			return data, nil
		}

		result, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.Set(fingerprint, result, ttl)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete removes a specific entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	c.recordEviction()
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	evictions := int64(len(c.entries))
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.Evictions += evictions
	c.stats.TotalKeys = 0
	c.statsMu.Unlock()
}

// EntryCount returns the current number of entries, expired or not.
// Reported by the health surface.
func (c *Cache) EntryCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes all expired entries and returns how many were evicted.
func (c *Cache) Sweep() int {
	now := time.Now()

	c.mu.Lock()
	evictions := int64(0)
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			evictions++
		}
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.Evictions += evictions
	c.stats.TotalKeys = total
	c.stats.LastCleanup = now
	c.statsMu.Unlock()

	return int(evictions)
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// HitRate returns the hit percentage over all lookups.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

func (c *Cache) recordHit() {
	c.statsMu.Lock()
	c.stats.Hits++
	c.statsMu.Unlock()
}

func (c *Cache) recordMiss() {
	c.statsMu.Lock()
	c.stats.Misses++
	c.statsMu.Unlock()
}

func (c *Cache) recordEviction() {
	c.statsMu.Lock()
	c.stats.Evictions++
	c.statsMu.Unlock()
}
