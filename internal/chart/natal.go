// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package chart

import "github.com/astrarium/astrarium/internal/aspect"

// NatalChart is the full natal chart view: annotated positions, whole-sign
// houses, self-aspects, Arabic parts, and distribution statistics.
type NatalChart struct {
	Chart      *Chart         `json:"chart"`
	Aspects    []aspect.Match `json:"aspects"`
	Parts      []ArabicPart   `json:"arabic_parts,omitempty"`
	Statistics Statistics     `json:"statistics"`
	Summary    aspect.Summary `json:"summary"`
}

// BuildNatal assembles the natal chart view from an annotated chart. The
// chart must already carry provider positions and an ascendant; houses are
// derived here when absent.
func BuildNatal(c *Chart) NatalChart {
	c.Annotate()
	if len(c.Houses) == 0 {
		c.Houses = WholeSignHouses(c.Ascendant)
	}

	selfAspects := c.SelfAspects()

	return NatalChart{
		Chart:      c,
		Aspects:    selfAspects,
		Parts:      ComputeParts(c),
		Statistics: c.Stats(),
		Summary:    aspect.Summarize(selfAspects),
	}
}
