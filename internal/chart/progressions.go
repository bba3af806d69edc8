// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package chart

import (
	"time"

	"github.com/astrarium/astrarium/internal/zodiac"
)

// ProgressedPlanet pairs a natal longitude with its secondary-progressed
// longitude.
type ProgressedPlanet struct {
	Planet              string  `json:"planet"`
	NatalLongitude      float64 `json:"natal_longitude"`
	ProgressedLongitude float64 `json:"progressed_longitude"`
	ProgressedSign      string  `json:"progressed_sign"`
}

// ProgressionReport is the secondary-progression view of a natal chart.
type ProgressionReport struct {
	DaysSinceBirth int                `json:"days_since_birth"`
	Progressions   []ProgressedPlanet `json:"progressions"`
}

// DaysSinceBirth returns the whole calendar days between birth and the
// progression date, truncated toward zero. Dates before birth yield a
// negative count; that is valid input, not an error.
func DaysSinceBirth(birth, progression time.Time) int {
	return int(progression.Sub(birth).Hours() / 24)
}

// ProgressedInstant applies the day-for-a-year rule: the progressed chart
// is cast for the birth instant advanced by days-since-birth years.
func ProgressedInstant(birth time.Time, days int) time.Time {
	return birth.AddDate(days, 0, 0)
}

// ComputeProgressions pairs natal positions with progressed positions
// obtained from the provider at the progressed instant. Bodies missing
// from either set are skipped.
func ComputeProgressions(natal *Chart, progressed []PlanetPosition, days int) ProgressionReport {
	byBody := make(map[string]PlanetPosition, len(progressed))
	for _, p := range progressed {
		byBody[p.Body] = p
	}

	report := ProgressionReport{
		DaysSinceBirth: days,
		Progressions:   make([]ProgressedPlanet, 0, len(natal.Planets)),
	}

	for _, np := range natal.Planets {
		pp, ok := byBody[np.Body]
		if !ok {
			continue
		}
		lon := zodiac.Normalize(pp.Longitude)
		report.Progressions = append(report.Progressions, ProgressedPlanet{
			Planet:              np.Body,
			NatalLongitude:      np.Longitude,
			ProgressedLongitude: lon,
			ProgressedSign:      zodiac.SignOf(lon).String(),
		})
	}

	return report
}
