// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package keys

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces two independent quotas: a per-key quota at the
// key's own rate_limit and a global per-source-IP ceiling. Both are token
// buckets refilling at quota-per-minute with burst equal to the quota,
// a rolling-window approximation: a client may spend its full quota
// instantly, then gains one slot every window/quota. Checks are atomic
// inside x/time/rate; two racing requests cannot both take the last slot.
type RateLimiter struct {
	mu      sync.Mutex
	perKey  map[string]*limiterEntry
	perIP   map[string]*limiterEntry
	ipLimit int
	window  time.Duration
}

// limiterEntry wraps a token bucket with its last access time for cleanup.
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter creates a limiter with the given per-IP ceiling per window.
// Per-key quotas come from each key's rate_limit at check time.
func NewRateLimiter(ipLimit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		perKey:  make(map[string]*limiterEntry),
		perIP:   make(map[string]*limiterEntry),
		ipLimit: ipLimit,
		window:  window,
	}
}

// AllowKey consumes one slot from the key's bucket. The bucket is created
// on first sight with burst keyRateLimit and refill keyRateLimit per window.
func (rl *RateLimiter) AllowKey(keyID string, keyRateLimit int) bool {
	if keyRateLimit <= 0 {
		return false
	}
	return rl.take(rl.perKey, keyID, keyRateLimit)
}

// AllowIP consumes one slot from the source address bucket.
func (rl *RateLimiter) AllowIP(ip string) bool {
	return rl.take(rl.perIP, ip, rl.ipLimit)
}

func (rl *RateLimiter) take(buckets map[string]*limiterEntry, id string, quota int) bool {
	rl.mu.Lock()
	entry, ok := buckets[id]
	if !ok {
		refill := rate.Every(rl.window / time.Duration(quota))
		entry = &limiterEntry{
			limiter:    rate.NewLimiter(refill, quota),
			lastAccess: time.Now(),
		}
		buckets[id] = entry
	} else {
		entry.lastAccess = time.Now()
	}
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// Cleanup drops buckets idle for longer than maxIdle and returns how many
// were removed. The supervisor runs this periodically.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for _, buckets := range []map[string]*limiterEntry{rl.perKey, rl.perIP} {
		for id, entry := range buckets {
			if entry.lastAccess.Before(cutoff) {
				delete(buckets, id)
				removed++
			}
		}
	}
	return removed
}

// TrackedCount returns how many buckets are currently held, for metrics.
func (rl *RateLimiter) TrackedCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.perKey) + len(rl.perIP)
}
