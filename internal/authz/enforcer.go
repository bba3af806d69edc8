// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

// Package authz decides whether an API key's permission set satisfies an
// operation's requirement. The read/write/admin lattice is expressed as a
// Casbin RBAC policy: admin inherits read and write.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/astrarium/astrarium/internal/keys"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Enforcer answers permission checks. Safe for concurrent use.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds the enforcer from the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, fmt.Errorf("load casbin policy: %w", err)
	}

	return &Enforcer{enforcer: enforcer}, nil
}

// Allowed reports whether any of the key's permissions satisfies the
// required permission for the named operation.
func (e *Enforcer) Allowed(key *keys.APIKey, operation string, required keys.Permission) (bool, error) {
	for _, p := range key.Permissions {
		ok, err := e.enforcer.Enforce(string(p), operation, string(required))
		if err != nil {
			return false, fmt.Errorf("enforce %s on %s: %w", p, operation, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// loadPolicy parses the embedded policy CSV into the enforcer.
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch parts[0] {
		case "p":
			if _, err := enforcer.AddPolicy(toAny(parts[1:])...); err != nil {
				return fmt.Errorf("add policy %q: %w", line, err)
			}
		case "g":
			if _, err := enforcer.AddGroupingPolicy(toAny(parts[1:])...); err != nil {
				return fmt.Errorf("add grouping %q: %w", line, err)
			}
		}
	}
	return nil
}

func toAny(parts []string) []interface{} {
	out := make([]interface{}, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}
