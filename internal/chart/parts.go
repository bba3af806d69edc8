// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package chart

import "github.com/astrarium/astrarium/internal/zodiac"

// ArabicPart is a derived sensitive point following the classical formula
// Asc + (first body - second body), mod 360. The day formula is used
// throughout.
type ArabicPart struct {
	Name      string  `json:"name"`
	Longitude float64 `json:"longitude"`
	Sign      string  `json:"sign"`
	Formula   string  `json:"formula"`
}

// partDefs in declaration order. A part is only emitted when both of its
// bodies are present in the chart.
var partDefs = []struct {
	name, add, sub, formula string
}{
	{"Part of Fortune", "Moon", "Sun", "Asc + (Moon - Sun)"},
	{"Part of Spirit", "Sun", "Moon", "Asc + (Sun - Moon)"},
	{"Part of Marriage", "Venus", "Saturn", "Asc + (Venus - Saturn)"},
}

// ComputeParts derives the Arabic parts available from a chart's bodies.
func ComputeParts(c *Chart) []ArabicPart {
	parts := make([]ArabicPart, 0, len(partDefs))

	for _, def := range partDefs {
		add, okA := c.Position(def.add)
		sub, okB := c.Position(def.sub)
		if !okA || !okB {
			continue
		}

		lon := zodiac.Normalize(c.Ascendant + add.Longitude - sub.Longitude)
		parts = append(parts, ArabicPart{
			Name:      def.name,
			Longitude: lon,
			Sign:      zodiac.SignOf(lon).String(),
			Formula:   def.formula,
		})
	}

	return parts
}
