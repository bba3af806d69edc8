// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package chart

import (
	"github.com/astrarium/astrarium/internal/aspect"
	"github.com/astrarium/astrarium/internal/zodiac"
)

// CompositePoint is the shorter-arc midpoint of one planet shared by two
// charts.
type CompositePoint struct {
	Planet             string  `json:"planet"`
	LongitudeA         float64 `json:"longitude_a"`
	LongitudeB         float64 `json:"longitude_b"`
	CompositeLongitude float64 `json:"composite_longitude"`
	CompositeSign      string  `json:"composite_sign"`
}

// SynastryWeights is the tunable compatibility weight table. Aspects not
// listed under Major fall back to DefaultMajor; minor aspects always score
// Minor. The score is normalized against PerAspectMax per matched aspect
// and clamped to 0..100.
type SynastryWeights struct {
	Major        map[string]int `json:"major" koanf:"major"`
	DefaultMajor int            `json:"default_major" koanf:"default_major"`
	Minor        int            `json:"minor" koanf:"minor"`
	PerAspectMax int            `json:"per_aspect_max" koanf:"per_aspect_max"`
}

// DefaultSynastryWeights returns the stock weight table: harmonious major
// aspects 3, conjunctions 2, challenging majors 1, minors 1, normalized by
// a per-aspect maximum of 3.
func DefaultSynastryWeights() SynastryWeights {
	return SynastryWeights{
		Major: map[string]int{
			"Trine":       3,
			"Sextile":     3,
			"Conjunction": 2,
			"Square":      1,
			"Opposition":  1,
		},
		DefaultMajor: 2,
		Minor:        1,
		PerAspectMax: 3,
	}
}

// SynastryReport is the full relationship analysis between two charts.
type SynastryReport struct {
	Aspects            []aspect.Match   `json:"aspects"`
	CompositePoints    []CompositePoint `json:"composite_points"`
	CompatibilityScore int              `json:"compatibility_score"`
	Summary            aspect.Summary   `json:"summary"`
}

// ComputeSynastry classifies all cross-aspects between two charts, builds
// composite midpoints for every body present in both, and scores overall
// compatibility against the weight table.
func ComputeSynastry(personA, personB *Chart, weights SynastryWeights) SynastryReport {
	matches := aspect.Compute(personA.AspectPositions(), personB.AspectPositions(), aspect.CrossChart)

	points := make([]CompositePoint, 0, len(personA.Planets))
	for _, pa := range personA.Planets {
		pb, ok := personB.Position(pa.Body)
		if !ok {
			continue
		}
		mid := zodiac.Midpoint(pa.Longitude, pb.Longitude)
		points = append(points, CompositePoint{
			Planet:             pa.Body,
			LongitudeA:         pa.Longitude,
			LongitudeB:         pb.Longitude,
			CompositeLongitude: mid,
			CompositeSign:      zodiac.SignOf(mid).String(),
		})
	}

	return SynastryReport{
		Aspects:            matches,
		CompositePoints:    points,
		CompatibilityScore: CompatibilityScore(matches, weights),
		Summary:            aspect.Summarize(matches),
	}
}

// CompatibilityScore aggregates weighted aspect contributions, normalizes
// by the per-aspect maximum, and clamps into 0..100. No matched aspects
// scores zero.
func CompatibilityScore(matches []aspect.Match, weights SynastryWeights) int {
	if len(matches) == 0 {
		return 0
	}

	score := 0
	for _, m := range matches {
		if !m.Major {
			score += weights.Minor
			continue
		}
		if w, ok := weights.Major[m.Name]; ok {
			score += w
		} else {
			score += weights.DefaultMajor
		}
	}

	maxPossible := len(matches) * weights.PerAspectMax
	if maxPossible <= 0 {
		return 0
	}

	normalized := score * 100 / maxPossible
	if normalized > 100 {
		normalized = 100
	}
	if normalized < 0 {
		normalized = 0
	}
	return normalized
}
