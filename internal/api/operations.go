// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package api

import "github.com/astrarium/astrarium/internal/keys"

// Operation identifies one API operation for authorization and cache
// fingerprinting. Handlers dispatch through these constants; permission
// lookups never go through free-form strings.
type Operation string

const (
	OpPositions    Operation = "positions"
	OpAspects      Operation = "aspects"
	OpHouses       Operation = "houses"
	OpMoonPhase    Operation = "moon-phase"
	OpNatalChart   Operation = "natal-chart"
	OpTransits     Operation = "transits"
	OpProgressions Operation = "progressions"
	OpSynastry     Operation = "synastry"
	OpStrength     Operation = "strength"

	OpKeyCreate Operation = "key-create"
	OpKeyList   Operation = "key-list"
	OpKeyRevoke Operation = "key-revoke"
	OpKeyStats  Operation = "key-stats"
)

var operationPermissions = map[Operation]keys.Permission{
	OpPositions:    keys.PermissionRead,
	OpAspects:      keys.PermissionRead,
	OpHouses:       keys.PermissionRead,
	OpMoonPhase:    keys.PermissionRead,
	OpNatalChart:   keys.PermissionRead,
	OpTransits:     keys.PermissionRead,
	OpProgressions: keys.PermissionRead,
	OpSynastry:     keys.PermissionRead,
	OpStrength:     keys.PermissionRead,

	OpKeyCreate: keys.PermissionAdmin,
	OpKeyList:   keys.PermissionAdmin,
	OpKeyRevoke: keys.PermissionAdmin,
	OpKeyStats:  keys.PermissionAdmin,
}

// RequiredPermission returns the permission an operation demands.
// Unknown operations require admin, failing closed.
func (op Operation) RequiredPermission() keys.Permission {
	if p, ok := operationPermissions[op]; ok {
		return p
	}
	return keys.PermissionAdmin
}
