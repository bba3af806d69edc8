// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package aspect

import (
	"fmt"
	"math"
	"sort"

	"github.com/astrarium/astrarium/internal/zodiac"
)

// Position is the minimal input the engine needs: a named body and its
// ecliptic longitude. Callers build these from full chart positions.
type Position struct {
	Body      string
	Longitude float64
}

// Match is one classified aspect between two bodies. At most one Match is
// produced per unordered body pair: when a separation falls within orb of
// several definitions, the one with the smallest deviation from its exact
// angle wins, with major aspects preferred on an exact tie.
type Match struct {
	BodyA       string  `json:"body_a"`
	BodyB       string  `json:"body_b"`
	Name        string  `json:"aspect"`
	Orb         float64 `json:"orb"`
	Major       bool    `json:"is_major"`
	Color       string  `json:"color"`
	LineStyle   string  `json:"line_style"`
	Description string  `json:"description"`
}

// Mode selects pair enumeration behavior.
type Mode int

const (
	// CrossChart evaluates every (a, b) pair between two distinct sets,
	// such as transiting versus natal positions.
	CrossChart Mode = iota

	// SameChart evaluates unordered pairs within a single set, skipping
	// identical bodies. Pass the same set as both arguments.
	SameChart
)

// Summary aggregates match counts for API responses.
type Summary struct {
	Total int `json:"total"`
	Major int `json:"major"`
	Minor int `json:"minor"`
}

// Summarize counts major and minor matches.
func Summarize(matches []Match) Summary {
	s := Summary{Total: len(matches)}
	for _, m := range matches {
		if m.Major {
			s.Major++
		} else {
			s.Minor++
		}
	}
	return s
}

// Compute classifies all aspects between two position sets and returns the
// matches sorted by measured orb ascending. The orb boundary is inclusive.
// Compute is pure; malformed longitudes are the caller's responsibility.
func Compute(setA, setB []Position, mode Mode) []Match {
	matches := make([]Match, 0, len(setA))

	for i, a := range setA {
		for j, b := range setB {
			if mode == SameChart {
				// Unordered pairs only, never a body with itself.
				if j <= i {
					continue
				}
			}

			sep := zodiac.Separation(a.Longitude, b.Longitude)
			def, deviation, ok := classify(sep)
			if !ok {
				continue
			}

			matches = append(matches, Match{
				BodyA:     a.Body,
				BodyB:     b.Body,
				Name:      def.Name,
				Orb:       deviation,
				Major:     def.Major,
				Color:     def.Color,
				LineStyle: def.LineStyle,
				Description: fmt.Sprintf("%s %s %s (orb: %.1f°)",
					a.Body, def.Name, b.Body, deviation),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Orb < matches[j].Orb
	})
	return matches
}

// classify finds the best aspect definition for a separation. Candidates
// are definitions whose orb window contains the separation; the candidate
// minimizing the deviation from its exact angle wins, preferring the major
// aspect on an exact tie.
func classify(sep float64) (Definition, float64, bool) {
	var (
		best          Definition
		bestDeviation float64
		found         bool
	)

	for _, def := range catalog {
		deviation := math.Abs(sep - def.Angle)
		if deviation > def.Orb {
			continue
		}
		if !found || deviation < bestDeviation ||
			(deviation == bestDeviation && def.Major && !best.Major) {
			best = def
			bestDeviation = deviation
			found = true
		}
	}

	return best, bestDeviation, found
}
