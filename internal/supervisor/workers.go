// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package supervisor

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/astrarium/astrarium/internal/cache"
	"github.com/astrarium/astrarium/internal/keys"
	"github.com/astrarium/astrarium/internal/logging"
	"github.com/astrarium/astrarium/internal/metrics"
)

// NewCacheSweeper evicts expired computation results on an interval.
func NewCacheSweeper(c *cache.Cache, interval time.Duration) *PeriodicService {
	return NewPeriodicService("cache-sweeper", interval, func(ctx context.Context) error {
		evicted := c.Sweep()
		if evicted > 0 {
			metrics.CacheEvictions.Add(float64(evicted))
			logging.Debug().Int("evicted", evicted).Msg("cache sweep complete")
		}
		metrics.CacheEntries.Set(float64(c.EntryCount()))
		return nil
	})
}

// NewLimiterCleanup drops rate limiter buckets idle longer than maxIdle.
func NewLimiterCleanup(limiter *keys.RateLimiter, interval, maxIdle time.Duration) *PeriodicService {
	return NewPeriodicService("limiter-cleanup", interval, func(ctx context.Context) error {
		removed := limiter.Cleanup(maxIdle)
		if removed > 0 {
			logging.Debug().Int("removed", removed).Msg("stale limiters cleaned")
		}
		return nil
	})
}

// NewBadgerGC runs badger value log garbage collection. ErrNoRewrite
// means there was nothing to reclaim and is not a failure.
func NewBadgerGC(db *badger.DB, interval time.Duration, discardRatio float64) *PeriodicService {
	return NewPeriodicService("badger-gc", interval, func(ctx context.Context) error {
		err := db.RunValueLogGC(discardRatio)
		if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			return err
		}
		return nil
	})
}
