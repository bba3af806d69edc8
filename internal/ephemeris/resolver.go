// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package ephemeris

import (
	"fmt"
	"math"
)

// TimezoneFromLongitude approximates an IANA timezone from the longitude
// offset alone, one zone per 15 degrees. It ignores political boundaries
// and daylight saving, and is used only when no explicit timezone is
// available for a set of coordinates.
//
// Etc/GMT zone names invert the sign: Etc/GMT-5 is five hours ahead of
// UTC, so positive (eastern) longitudes map to Etc/GMT-N.
func TimezoneFromLongitude(lon float64) string {
	offset := int(math.Round(lon / 15))
	switch {
	case offset > 0:
		return fmt.Sprintf("Etc/GMT-%d", offset)
	case offset < 0:
		return fmt.Sprintf("Etc/GMT+%d", -offset)
	default:
		return "Etc/GMT"
	}
}
