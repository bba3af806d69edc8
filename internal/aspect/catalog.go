// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

// Package aspect provides the aspect catalog and the matching engine that
// classifies angular separations between planetary positions into named
// aspects. The catalog is immutable for the process lifetime; the engine is
// a pure function over its inputs and safe for concurrent use.
package aspect

// Definition describes a single aspect type: its exact angle, the orb
// tolerance within which a separation still counts as this aspect, and the
// rendering hints carried through to API responses.
type Definition struct {
	Name      string  `json:"name"`
	Angle     float64 `json:"angle"`
	Orb       float64 `json:"orb"`
	Major     bool    `json:"is_major"`
	Color     string  `json:"color"`
	LineStyle string  `json:"line_style"`
}

// catalog is the full aspect table in declaration order. Declaration order
// is load-bearing: it is the deterministic tie break for equal scores
// elsewhere in the system.
var catalog = []Definition{
	{Name: "Conjunction", Angle: 0, Orb: 8, Major: true, Color: "#FF0000", LineStyle: "solid"},
	{Name: "Opposition", Angle: 180, Orb: 8, Major: true, Color: "#FF0000", LineStyle: "solid"},
	{Name: "Trine", Angle: 120, Orb: 8, Major: true, Color: "#0000FF", LineStyle: "solid"},
	{Name: "Square", Angle: 90, Orb: 8, Major: true, Color: "#FF0000", LineStyle: "solid"},
	{Name: "Sextile", Angle: 60, Orb: 6, Major: true, Color: "#0000FF", LineStyle: "dashed"},
	{Name: "Quincunx", Angle: 150, Orb: 3, Major: false, Color: "#808080", LineStyle: "dotted"},
	{Name: "Semisextile", Angle: 30, Orb: 3, Major: false, Color: "#808080", LineStyle: "dotted"},
	{Name: "Quintile", Angle: 72, Orb: 2, Major: false, Color: "#800080", LineStyle: "dotted"},
	{Name: "Biquintile", Angle: 144, Orb: 2, Major: false, Color: "#800080", LineStyle: "dotted"},
	{Name: "Sesquiquadrate", Angle: 135, Orb: 3, Major: false, Color: "#FF8C00", LineStyle: "dotted"},
}

// Catalog returns the full aspect table in declaration order.
// Callers must not mutate the returned slice.
func Catalog() []Definition {
	return catalog
}

// Lookup returns the definition for an aspect name.
func Lookup(name string) (Definition, bool) {
	for _, d := range catalog {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Harmonious reports whether a major aspect is classically harmonious.
// Conjunctions are contextual (benefic-dependent) and handled by callers.
func Harmonious(name string) bool {
	return name == "Trine" || name == "Sextile"
}

// Challenging reports whether a major aspect is classically challenging.
func Challenging(name string) bool {
	return name == "Square" || name == "Opposition"
}
