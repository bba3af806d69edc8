// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

// Package zodiac provides the zodiac sign table and the angular math shared
// by every chart operation: longitude normalization, angular separation,
// circular midpoints, and whole-sign house assignment.
//
// All longitudes are ecliptic degrees in [0, 360). Separations are in
// [0, 180]. The functions here are pure and allocation-free.
package zodiac

import "math"

// Sign is a zodiac sign, ordered from Aries (0) to Pisces (11).
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

// signNames is indexed by Sign.
var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// Element is one of the four classical elements.
type Element string

const (
	Fire  Element = "Fire"
	Earth Element = "Earth"
	Air   Element = "Air"
	Water Element = "Water"
)

// Quality is a sign's modality.
type Quality string

const (
	Cardinal Quality = "Cardinal"
	Fixed    Quality = "Fixed"
	Mutable  Quality = "Mutable"
)

// String returns the sign's English name, or "Unknown" for out-of-range values.
func (s Sign) String() string {
	if s < Aries || s > Pisces {
		return "Unknown"
	}
	return signNames[s]
}

// Element returns the sign's classical element. Signs cycle
// Fire, Earth, Air, Water starting from Aries.
func (s Sign) Element() Element {
	switch s % 4 {
	case 0:
		return Fire
	case 1:
		return Earth
	case 2:
		return Air
	default:
		return Water
	}
}

// Quality returns the sign's modality. Signs cycle
// Cardinal, Fixed, Mutable starting from Aries.
func (s Sign) Quality() Quality {
	switch s % 3 {
	case 0:
		return Cardinal
	case 1:
		return Fixed
	default:
		return Mutable
	}
}

// SignFromName returns the Sign for an English sign name.
// The second return is false when the name is not a zodiac sign.
func SignFromName(name string) (Sign, bool) {
	for i, n := range signNames {
		if n == name {
			return Sign(i), true
		}
	}
	return 0, false
}

// Normalize maps any longitude onto [0, 360).
func Normalize(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lon
}

// SignOf returns the zodiac sign containing the given ecliptic longitude.
// Each sign spans exactly 30 degrees starting from 0 Aries.
func SignOf(lon float64) Sign {
	return Sign(int(Normalize(lon)/30) % 12)
}

// DegreeInSign returns the position within the sign, in [0, 30).
func DegreeInSign(lon float64) float64 {
	return math.Mod(Normalize(lon), 30)
}

// Separation returns the angular separation between two longitudes,
// always in [0, 180].
func Separation(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Midpoint returns the circular midpoint of two longitudes: the midpoint of
// the shorter arc between them. The arithmetic mean is wrong when the arc
// crosses 0 Aries, so both candidate midpoints are tested and the one within
// 90 degrees of the first input wins.
func Midpoint(a, b float64) float64 {
	a = Normalize(a)
	b = Normalize(b)

	mid := Normalize((a + b) / 2)
	if Separation(mid, a) <= 90 {
		return mid
	}
	return Normalize(mid + 180)
}

// WholeSignHouse returns the house (1..12) of a body under whole-sign
// houses: the body's house is the count of signs from the ascendant's sign
// to the body's sign, inclusive.
func WholeSignHouse(bodyLon, ascendantLon float64) int {
	diff := int(SignOf(bodyLon)) - int(SignOf(ascendantLon))
	if diff < 0 {
		diff += 12
	}
	return diff + 1
}

// HouseKind classifies a house number as angular, succedent, or cadent.
type HouseKind string

const (
	Angular   HouseKind = "angular"
	Succedent HouseKind = "succedent"
	Cadent    HouseKind = "cadent"
)

// KindOfHouse returns the classification for a house number in 1..12.
func KindOfHouse(house int) HouseKind {
	switch house {
	case 1, 4, 7, 10:
		return Angular
	case 2, 5, 8, 11:
		return Succedent
	default:
		return Cadent
	}
}
