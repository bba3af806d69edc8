// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package chart

import (
	"fmt"

	"github.com/astrarium/astrarium/internal/aspect"
	"github.com/astrarium/astrarium/internal/zodiac"
)

// House and aspect score deltas.
const (
	angularBonus    = 10
	succedentBonus  = 5
	cadentPenalty   = -5
	harmoniousBonus = 5
	challengingCost = -3
)

// benefics receive the harmonious bonus when conjunct another body.
var benefics = map[string]bool{"Venus": true, "Jupiter": true}

// PlanetStrength is one planet's scored condition in a natal chart. The
// total is an open-ended sum of dignity, house, and aspect contributions;
// it may be negative.
type PlanetStrength struct {
	Planet     string      `json:"planet"`
	Sign       string      `json:"sign"`
	House      int         `json:"house"`
	Dignity    DignityKind `json:"dignity"`
	HouseBonus int         `json:"house_bonus"`
	Factors    []string    `json:"factors"`
	Score      int         `json:"score"`
}

// StrengthReport is the full strength analysis of a chart.
type StrengthReport struct {
	Planets   []PlanetStrength `json:"planets"`
	Aspects   []aspect.Match   `json:"aspects"`
	Summary   aspect.Summary   `json:"summary"`
	Strongest string           `json:"strongest"`
	Weakest   string           `json:"weakest"`
}

// ComputeStrength scores every planet in the chart. Per planet: the
// essential dignity delta for its sign, the house bonus by angularity, and
// a delta per major self-aspect touching it (harmonious aspects and
// conjunctions to a benefic score up, squares and oppositions score down).
// Strongest and weakest break ties by declaration order in the chart.
func ComputeStrength(c *Chart) StrengthReport {
	selfAspects := c.SelfAspects()

	report := StrengthReport{
		Planets: make([]PlanetStrength, 0, len(c.Planets)),
		Aspects: selfAspects,
		Summary: aspect.Summarize(selfAspects),
	}

	for _, p := range c.Planets {
		report.Planets = append(report.Planets, scorePlanet(p, selfAspects))
	}

	if len(report.Planets) > 0 {
		strongest, weakest := 0, 0
		for i, ps := range report.Planets {
			if ps.Score > report.Planets[strongest].Score {
				strongest = i
			}
			if ps.Score < report.Planets[weakest].Score {
				weakest = i
			}
		}
		report.Strongest = report.Planets[strongest].Planet
		report.Weakest = report.Planets[weakest].Planet
	}

	return report
}

func scorePlanet(p PlanetPosition, selfAspects []aspect.Match) PlanetStrength {
	ps := PlanetStrength{
		Planet:  p.Body,
		Sign:    p.Sign,
		House:   p.House,
		Factors: []string{},
	}

	kind, delta := Dignity(p.Body, p.Sign)
	ps.Dignity = kind
	ps.Score += delta
	if kind != Neutral {
		ps.Factors = append(ps.Factors, fmt.Sprintf("%s in %s", kind, p.Sign))
	}

	switch zodiac.KindOfHouse(p.House) {
	case zodiac.Angular:
		ps.HouseBonus = angularBonus
		ps.Factors = append(ps.Factors, fmt.Sprintf("angular house %d", p.House))
	case zodiac.Succedent:
		ps.HouseBonus = succedentBonus
		ps.Factors = append(ps.Factors, fmt.Sprintf("succedent house %d", p.House))
	case zodiac.Cadent:
		ps.HouseBonus = cadentPenalty
		ps.Factors = append(ps.Factors, fmt.Sprintf("cadent house %d", p.House))
	}
	ps.Score += ps.HouseBonus

	for _, m := range selfAspects {
		if m.BodyA != p.Body && m.BodyB != p.Body {
			continue
		}
		if !m.Major {
			continue
		}

		other := m.BodyA
		if other == p.Body {
			other = m.BodyB
		}

		switch {
		case aspect.Harmonious(m.Name):
			ps.Score += harmoniousBonus
			ps.Factors = append(ps.Factors, fmt.Sprintf("harmonious %s with %s", m.Name, other))
		case m.Name == "Conjunction" && benefics[other]:
			ps.Score += harmoniousBonus
			ps.Factors = append(ps.Factors, fmt.Sprintf("Conjunction with benefic %s", other))
		case aspect.Challenging(m.Name):
			ps.Score += challengingCost
			ps.Factors = append(ps.Factors, fmt.Sprintf("challenging %s with %s", m.Name, other))
		}
	}

	return ps
}
