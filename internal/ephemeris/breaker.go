// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package ephemeris

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/astrarium/astrarium/internal/chart"
	"github.com/astrarium/astrarium/internal/logging"
	"github.com/astrarium/astrarium/internal/metrics"
)

// BreakerProvider wraps a Provider with a circuit breaker so a failing
// ephemeris service sheds load fast instead of tying up request handlers.
//
// The breaker uses real time for its interval and timeout bookkeeping.
// Tests exercise the wrapped provider directly or drive failures through
// Execute; they do not mock the breaker.
type BreakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker[interface{}]
	name  string
}

// NewBreakerProvider wraps inner with a circuit breaker that opens after
// a 60% failure rate over at least 10 requests, allows 3 probes in
// half-open state, and waits 2 minutes before probing again.
func NewBreakerProvider(inner Provider) *BreakerProvider {
	cbName := "ephemeris"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening ephemeris circuit")
				return true
			}
			return false
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().
				Str("breaker", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerProvider{inner: inner, cb: cb, name: cbName}
}

// Positions implements Provider.
func (b *BreakerProvider) Positions(ctx context.Context, instant time.Time, lat, lon float64, extra bool) ([]chart.PlanetPosition, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.Positions(ctx, instant, lat, lon, extra)
	})
	if err != nil {
		return nil, err
	}
	return castResult[[]chart.PlanetPosition](result)
}

// Houses implements Provider.
func (b *BreakerProvider) Houses(ctx context.Context, instant time.Time, lat, lon float64) (float64, []chart.HousePlacement, error) {
	type housesResult struct {
		ascendant float64
		houses    []chart.HousePlacement
	}
	result, err := b.execute(func() (interface{}, error) {
		asc, houses, err := b.inner.Houses(ctx, instant, lat, lon)
		if err != nil {
			return nil, err
		}
		return housesResult{ascendant: asc, houses: houses}, nil
	})
	if err != nil {
		return 0, nil, err
	}
	typed, err := castResult[housesResult](result)
	if err != nil {
		return 0, nil, err
	}
	return typed.ascendant, typed.houses, nil
}

// State reports the current breaker state for the health surface.
func (b *BreakerProvider) State() string {
	return stateToString(b.cb.State())
}

func (b *BreakerProvider) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

func castResult[T any](result interface{}) (T, error) {
	var zero T
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
