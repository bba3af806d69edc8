// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

// Package chart holds the chart data model and the pure operations over it:
// natal chart composition, transits, progressions, synastry, planetary
// strength, moon phase, and Arabic parts. Nothing in this package touches
// shared state; every operation is a function from request-local inputs to
// a result, recomputed per request.
package chart

import (
	"time"

	"github.com/astrarium/astrarium/internal/aspect"
	"github.com/astrarium/astrarium/internal/zodiac"
)

// Main bodies in traditional order. Declaration order is the deterministic
// tie break for strength rankings.
var MainBodies = []string{
	"Sun", "Moon", "Mercury", "Venus", "Mars",
	"Jupiter", "Saturn", "Uranus", "Neptune", "Pluto",
}

// ExtraBodies are the optional points a provider may supply when asked.
var ExtraBodies = []string{
	"North Node", "South Node", "Chiron", "Ceres", "Pallas", "Juno", "Vesta",
}

// PlanetPosition is one body's ecliptic state at an instant. Produced by
// the ephemeris provider; immutable once created.
type PlanetPosition struct {
	Body       string  `json:"body"`
	Longitude  float64 `json:"longitude"`
	Speed      float64 `json:"speed,omitempty"`
	Retrograde bool    `json:"retrograde"`
	Sign       string  `json:"sign"`
	SignDegree float64 `json:"sign_degree"`
	House      int     `json:"house,omitempty"`
}

// HousePlacement is one whole-sign house: its number, cusp longitude, and
// the sign on the cusp.
type HousePlacement struct {
	House         int     `json:"house"`
	CuspLongitude float64 `json:"cusp_longitude"`
	Sign          string  `json:"sign"`
}

// Chart is a complete computed chart for one instant and place.
type Chart struct {
	Instant   time.Time        `json:"instant"`
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	Timezone  string           `json:"timezone,omitempty"`
	Ascendant float64          `json:"ascendant"`
	Planets   []PlanetPosition `json:"planets"`
	Houses    []HousePlacement `json:"houses"`
}

// Position returns the chart's position for a body, or false when absent.
func (c *Chart) Position(body string) (PlanetPosition, bool) {
	for _, p := range c.Planets {
		if p.Body == body {
			return p, true
		}
	}
	return PlanetPosition{}, false
}

// AspectPositions converts chart planets into engine inputs.
func (c *Chart) AspectPositions() []aspect.Position {
	out := make([]aspect.Position, len(c.Planets))
	for i, p := range c.Planets {
		out[i] = aspect.Position{Body: p.Body, Longitude: p.Longitude}
	}
	return out
}

// SelfAspects runs the aspect engine over the chart's own planets.
func (c *Chart) SelfAspects() []aspect.Match {
	set := c.AspectPositions()
	return aspect.Compute(set, set, aspect.SameChart)
}

// Annotate fills in the derived fields of each planet (sign, degree within
// sign, whole-sign house) from its longitude and the chart's ascendant.
func (c *Chart) Annotate() {
	for i := range c.Planets {
		p := &c.Planets[i]
		p.Longitude = zodiac.Normalize(p.Longitude)
		p.Sign = zodiac.SignOf(p.Longitude).String()
		p.SignDegree = zodiac.DegreeInSign(p.Longitude)
		p.House = zodiac.WholeSignHouse(p.Longitude, c.Ascendant)
	}
}

// WholeSignHouses builds the twelve whole-sign houses from the ascendant:
// house 1 starts at 0 degrees of the rising sign.
func WholeSignHouses(ascendant float64) []HousePlacement {
	risingSign := zodiac.SignOf(ascendant)
	houses := make([]HousePlacement, 12)
	for i := 0; i < 12; i++ {
		sign := (int(risingSign) + i) % 12
		cusp := float64(sign * 30)
		houses[i] = HousePlacement{
			House:         i + 1,
			CuspLongitude: cusp,
			Sign:          zodiac.Sign(sign).String(),
		}
	}
	return houses
}

// Statistics aggregates a chart's distribution across elements and
// qualities plus retrograde counts, for the natal chart summary.
type Statistics struct {
	PlanetCount     int            `json:"planet_count"`
	RetrogradeCount int            `json:"retrograde_count"`
	Elements        map[string]int `json:"elements"`
	Qualities       map[string]int `json:"qualities"`
}

// Stats computes distribution statistics over the chart's planets.
func (c *Chart) Stats() Statistics {
	s := Statistics{
		PlanetCount: len(c.Planets),
		Elements:    make(map[string]int, 4),
		Qualities:   make(map[string]int, 3),
	}
	for _, p := range c.Planets {
		sign := zodiac.SignOf(p.Longitude)
		s.Elements[string(sign.Element())]++
		s.Qualities[string(sign.Quality())]++
		if p.Retrograde {
			s.RetrogradeCount++
		}
	}
	return s
}
