// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package chart

import "testing"

func TestDignityTable(t *testing.T) {
	tests := []struct {
		planet, sign string
		kind         DignityKind
		delta        int
	}{
		{"Sun", "Aries", Exaltation, 20},
		{"Sun", "Libra", Fall, -20},
		{"Sun", "Leo", Rulership, 15},
		{"Sun", "Gemini", Neutral, 0},
		{"Moon", "Taurus", Exaltation, 20},
		{"Moon", "Scorpio", Fall, -20},
		{"Moon", "Cancer", Rulership, 15},
		{"Mercury", "Virgo", Exaltation, 20}, // exaltation beats rulership
		{"Mercury", "Gemini", Rulership, 15},
		{"Venus", "Taurus", Rulership, 15},
		{"Venus", "Libra", Rulership, 15},
		{"Venus", "Virgo", Fall, -20},
		{"Mars", "Capricorn", Exaltation, 20},
		{"Mars", "Scorpio", Rulership, 15},
		{"Jupiter", "Pisces", Rulership, 15},
		{"Saturn", "Aquarius", Rulership, 15},
		{"Saturn", "Aries", Fall, -20},
		{"Uranus", "Aquarius", Neutral, 0}, // outer planets score neutral
		{"Pluto", "Scorpio", Neutral, 0},
	}

	for _, tt := range tests {
		kind, delta := Dignity(tt.planet, tt.sign)
		if kind != tt.kind || delta != tt.delta {
			t.Errorf("Dignity(%s, %s) = %v/%d, want %v/%d",
				tt.planet, tt.sign, kind, delta, tt.kind, tt.delta)
		}
	}
}

func TestStrengthRulershipAngularBeatsFallCadent(t *testing.T) {
	// Venus in Taurus in the 1st house versus Venus in Virgo in the 6th,
	// all else equal.
	dignified := &Chart{
		Ascendant: 35, // Taurus rising
		Planets:   []PlanetPosition{{Body: "Venus", Longitude: 40}},
	}
	dignified.Annotate()

	debilitated := &Chart{
		Ascendant: 35, // Taurus rising; Virgo is the 5th sign = 5th house?
		Planets:   []PlanetPosition{{Body: "Venus", Longitude: 160}},
	}
	debilitated.Annotate()
	// Force the cadent house to isolate the comparison.
	debilitated.Planets[0].House = 6

	strong := ComputeStrength(dignified)
	weak := ComputeStrength(debilitated)

	if strong.Planets[0].Score <= weak.Planets[0].Score {
		t.Errorf("Venus rulership/angular (%d) should beat fall/cadent (%d)",
			strong.Planets[0].Score, weak.Planets[0].Score)
	}
	if strong.Planets[0].Score != 15+10 {
		t.Errorf("expected 25 for rulership + angular, got %d", strong.Planets[0].Score)
	}
	if weak.Planets[0].Score != -20-5 {
		t.Errorf("expected -25 for fall + cadent, got %d", weak.Planets[0].Score)
	}
}

func TestStrengthScoreCanGoNegative(t *testing.T) {
	c := &Chart{
		Ascendant: 5, // Aries rising
		Planets: []PlanetPosition{
			{Body: "Saturn", Longitude: 6},   // Aries: fall
			{Body: "Mars", Longitude: 96},    // Cancer: fall, square Saturn
		},
	}
	c.Annotate()

	report := ComputeStrength(c)

	var saturn PlanetStrength
	for _, ps := range report.Planets {
		if ps.Planet == "Saturn" {
			saturn = ps
		}
	}
	// Fall -20, angular 1st house +10, square with Mars -3.
	if saturn.Score != -13 {
		t.Errorf("expected Saturn score -13, got %d (%v)", saturn.Score, saturn.Factors)
	}
	if saturn.Dignity != Fall {
		t.Errorf("expected fall dignity, got %v", saturn.Dignity)
	}
}

func TestStrengthConjunctionToBenefic(t *testing.T) {
	c := &Chart{
		Ascendant: 95, // Cancer rising
		Planets: []PlanetPosition{
			{Body: "Sun", Longitude: 100},
			{Body: "Jupiter", Longitude: 103}, // Cancer: exaltation, conjunct Sun
		},
	}
	c.Annotate()

	report := ComputeStrength(c)

	var sun, jupiter PlanetStrength
	for _, ps := range report.Planets {
		switch ps.Planet {
		case "Sun":
			sun = ps
		case "Jupiter":
			jupiter = ps
		}
	}

	// Sun: neutral in Cancer, angular +10, conjunct benefic Jupiter +5.
	if sun.Score != 15 {
		t.Errorf("expected Sun score 15, got %d (%v)", sun.Score, sun.Factors)
	}
	// Jupiter: exaltation +20, angular +10. Jupiter itself conjunct a
	// non-benefic Sun gains nothing from the aspect.
	if jupiter.Score != 30 {
		t.Errorf("expected Jupiter score 30, got %d (%v)", jupiter.Score, jupiter.Factors)
	}
	if report.Strongest != "Jupiter" || report.Weakest != "Sun" {
		t.Errorf("unexpected ranking: strongest=%s weakest=%s", report.Strongest, report.Weakest)
	}
}

func TestStrengthRankingTieBreaksByDeclarationOrder(t *testing.T) {
	c := &Chart{
		Ascendant: 65, // Gemini rising
		Planets: []PlanetPosition{
			{Body: "Uranus", Longitude: 70},  // neutral, angular
			{Body: "Neptune", Longitude: 250}, // neutral, house 8 succedent
		},
	}
	c.Annotate()
	// Equalize scores: put both in the same kind of house.
	c.Planets[1].House = 4

	report := ComputeStrength(c)
	if report.Strongest != "Uranus" {
		t.Errorf("tie should prefer first-declared planet, got %s", report.Strongest)
	}
}
