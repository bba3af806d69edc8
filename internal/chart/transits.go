// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package chart

import (
	"time"

	"github.com/astrarium/astrarium/internal/aspect"
)

// TransitReport pairs a natal chart with transiting positions and the
// cross-aspects between them. A derived view, recomputed per call.
type TransitReport struct {
	Instant  time.Time        `json:"instant"`
	Natal    []PlanetPosition `json:"natal_planets"`
	Transits []PlanetPosition `json:"transit_planets"`
	Aspects  []aspect.Match   `json:"transits"`
	Summary  aspect.Summary   `json:"summary"`
}

// ComputeTransits classifies every transiting-to-natal aspect. Every cross
// pair is valid, including a body transiting itself.
func ComputeTransits(natal *Chart, transiting []PlanetPosition, instant time.Time) TransitReport {
	transitSet := make([]aspect.Position, len(transiting))
	for i, p := range transiting {
		transitSet[i] = aspect.Position{Body: p.Body, Longitude: p.Longitude}
	}

	matches := aspect.Compute(transitSet, natal.AspectPositions(), aspect.CrossChart)

	return TransitReport{
		Instant:  instant,
		Natal:    natal.Planets,
		Transits: transiting,
		Aspects:  matches,
		Summary:  aspect.Summarize(matches),
	}
}
