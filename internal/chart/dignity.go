// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package chart

// DignityKind is the kind of essential dignity a planet holds in a sign.
type DignityKind string

const (
	Exaltation DignityKind = "exaltation"
	Fall       DignityKind = "fall"
	Rulership  DignityKind = "rulership"
	Neutral    DignityKind = "neutral"
)

// Score deltas per dignity kind.
const (
	exaltationDelta = 20
	fallDelta       = -20
	rulershipDelta  = 15
)

// dignityEntry is one planet's essential dignity signs. Exaltation and fall
// are single signs; classical planets may rule two signs.
type dignityEntry struct {
	exaltation string
	fall       string
	rulership  []string
}

// dignities covers the seven classical planets. Outer planets carry no
// essential dignity here and score neutral.
var dignities = map[string]dignityEntry{
	"Sun":     {exaltation: "Aries", fall: "Libra", rulership: []string{"Leo"}},
	"Moon":    {exaltation: "Taurus", fall: "Scorpio", rulership: []string{"Cancer"}},
	"Mercury": {exaltation: "Virgo", fall: "Pisces", rulership: []string{"Gemini", "Virgo"}},
	"Venus":   {exaltation: "Pisces", fall: "Virgo", rulership: []string{"Taurus", "Libra"}},
	"Mars":    {exaltation: "Capricorn", fall: "Cancer", rulership: []string{"Aries", "Scorpio"}},
	"Jupiter": {exaltation: "Cancer", fall: "Capricorn", rulership: []string{"Sagittarius", "Pisces"}},
	"Saturn":  {exaltation: "Libra", fall: "Aries", rulership: []string{"Capricorn", "Aquarius"}},
}

// Dignity returns the dignity kind and score delta for a planet in a sign.
// Exaltation is checked before fall before rulership, so Mercury in Virgo
// is exalted rather than merely in rulership.
func Dignity(planet, sign string) (DignityKind, int) {
	entry, ok := dignities[planet]
	if !ok {
		return Neutral, 0
	}

	switch {
	case sign == entry.exaltation:
		return Exaltation, exaltationDelta
	case sign == entry.fall:
		return Fall, fallDelta
	default:
		for _, r := range entry.rulership {
			if sign == r {
				return Rulership, rulershipDelta
			}
		}
		return Neutral, 0
	}
}
