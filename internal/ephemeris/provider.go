// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

// Package ephemeris talks to the external ephemeris service that supplies
// planetary longitudes, house cusps, and geocoding. All astronomical math
// lives upstream; this package only transports and shapes the results.
package ephemeris

import (
	"context"
	"errors"
	"time"

	"github.com/astrarium/astrarium/internal/chart"
)

// ErrUpstream marks failures of the external ephemeris service. Callers
// match it with errors.Is to distinguish upstream outages from bad input.
var ErrUpstream = errors.New("ephemeris upstream failure")

// ErrUnresolvedLocation is returned when a city/nation pair cannot be
// geocoded.
var ErrUnresolvedLocation = errors.New("location could not be resolved")

// Provider supplies planetary positions and house cusps for an instant
// and a geographic location.
type Provider interface {
	// Positions returns ecliptic longitudes and speeds for the main
	// bodies, plus nodes and asteroids when extra is true.
	Positions(ctx context.Context, instant time.Time, lat, lon float64, extra bool) ([]chart.PlanetPosition, error)

	// Houses returns the ascendant longitude and the twelve house cusps.
	Houses(ctx context.Context, instant time.Time, lat, lon float64) (float64, []chart.HousePlacement, error)
}

// Resolver turns a city and nation into coordinates and a timezone name.
type Resolver interface {
	Resolve(ctx context.Context, city, nation string) (lat, lon float64, timezone string, err error)
}
