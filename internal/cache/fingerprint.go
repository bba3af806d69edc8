// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package cache

import (
	"crypto/sha256"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// coordPrecision is the decimal precision coordinates are rounded to
// before fingerprinting, so float formatting noise cannot bust the cache.
const coordPrecision = 1e4

// RoundCoord rounds a coordinate to four decimal places (about 11 meters),
// the canonical precision for fingerprints.
func RoundCoord(v float64) float64 {
	return math.Round(v*coordPrecision) / coordPrecision
}

// Fingerprint builds the canonical cache key for an endpoint and its
// request-determining parameters. Parameters are JSON-marshaled with
// sorted keys, hashed, and prefixed with the endpoint name. Callers must
// pass coordinates through RoundCoord first.
func Fingerprint(endpoint string, params map[string]interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Marshal of a plain map cannot realistically fail; fall back
		// to a non-hashed key rather than erroring the request.
		return fmt.Sprintf("%s:%v", endpoint, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", endpoint, hash[:16])
}
