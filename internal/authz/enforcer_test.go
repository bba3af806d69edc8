// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package authz

import (
	"testing"

	"github.com/astrarium/astrarium/internal/keys"
)

func TestAllowed(t *testing.T) {
	e, err := NewEnforcer()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		perms    []keys.Permission
		required keys.Permission
		want     bool
	}{
		{"read satisfies read", []keys.Permission{keys.PermissionRead}, keys.PermissionRead, true},
		{"read lacks write", []keys.Permission{keys.PermissionRead}, keys.PermissionWrite, false},
		{"read lacks admin", []keys.Permission{keys.PermissionRead}, keys.PermissionAdmin, false},
		{"write satisfies write", []keys.Permission{keys.PermissionWrite}, keys.PermissionWrite, true},
		{"write lacks read", []keys.Permission{keys.PermissionWrite}, keys.PermissionRead, false},
		{"admin implies read", []keys.Permission{keys.PermissionAdmin}, keys.PermissionRead, true},
		{"admin implies write", []keys.Permission{keys.PermissionAdmin}, keys.PermissionWrite, true},
		{"admin satisfies admin", []keys.Permission{keys.PermissionAdmin}, keys.PermissionAdmin, true},
		{"combined set", []keys.Permission{keys.PermissionRead, keys.PermissionWrite}, keys.PermissionWrite, true},
		{"empty set denies", nil, keys.PermissionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := &keys.APIKey{Permissions: tt.perms}
			got, err := e.Allowed(key, "transits", tt.required)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Allowed(%v, %v) = %v, want %v", tt.perms, tt.required, got, tt.want)
			}
		})
	}
}

func TestAllowedAcrossOperations(t *testing.T) {
	e, err := NewEnforcer()
	if err != nil {
		t.Fatal(err)
	}

	key := &keys.APIKey{Permissions: []keys.Permission{keys.PermissionAdmin}}
	for _, op := range []string{"positions", "natal_chart", "admin_keys_create"} {
		ok, err := e.Allowed(key, op, keys.PermissionAdmin)
		if err != nil || !ok {
			t.Errorf("admin denied on %s: %v, %v", op, ok, err)
		}
	}
}
