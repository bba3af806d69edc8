// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package chart

import "github.com/astrarium/astrarium/internal/zodiac"

// MoonPhase is the Moon's phase derived from its elongation from the Sun.
type MoonPhase struct {
	Angle         float64 `json:"angle"`
	Phase         string  `json:"phase_name"`
	SunLongitude  float64 `json:"sun_longitude"`
	MoonLongitude float64 `json:"moon_longitude"`
}

// phaseNames in 45-degree bins starting at the new moon.
var phaseNames = [8]string{
	"New Moon", "Waxing Crescent", "First Quarter", "Waxing Gibbous",
	"Full Moon", "Waning Gibbous", "Last Quarter", "Waning Crescent",
}

// ComputeMoonPhase names the phase from the Sun and Moon longitudes. The
// elongation angle moon minus sun, normalized to [0, 360), falls into one
// of eight 45-degree bins.
func ComputeMoonPhase(sunLon, moonLon float64) MoonPhase {
	angle := zodiac.Normalize(moonLon - sunLon)
	return MoonPhase{
		Angle:         angle,
		Phase:         phaseNames[int(angle/45)%8],
		SunLongitude:  zodiac.Normalize(sunLon),
		MoonLongitude: zodiac.Normalize(moonLon),
	}
}
