// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

// Package keys manages API keys: creation with plaintext returned exactly
// once, SHA-256 hashed storage with exact-match lookup, permission tiers,
// expiry and revocation, usage tracking, and per-key/per-IP rate limiting.
package keys

import (
	"errors"
	"time"
)

// Permission is one grant in a key's permission set.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionAdmin Permission = "admin"
)

// Sentinel errors for the key lifecycle.
var (
	ErrKeyNotFound  = errors.New("api key not found")
	ErrKeyExpired   = errors.New("api key expired")
	ErrKeyRevoked   = errors.New("api key revoked")
	ErrHashConflict = errors.New("api key hash already exists")
)

// APIKey is a stored key record. The plaintext key is never stored; only
// its SHA-256 hex digest. Exactly one record exists per hash.
type APIKey struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Hash        string       `json:"-"`
	Permissions []Permission `json:"permissions"`
	RateLimit   int          `json:"rate_limit"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	LastUsedAt  *time.Time   `json:"last_used_at,omitempty"`
	UsageCount  int64        `json:"usage_count"`
	Revoked     bool         `json:"revoked"`
}

// IsExpired reports whether the key is past its expiry. Keys without an
// expiry never expire.
func (k *APIKey) IsExpired() bool {
	return k.ExpiresAt != nil && time.Now().After(*k.ExpiresAt)
}

// Active reports whether the key can authenticate: not revoked, not expired.
func (k *APIKey) Active() bool {
	return !k.Revoked && !k.IsExpired()
}

// HasPermission reports whether the key's permission set satisfies the
// requirement. Admin implies read and write.
func (k *APIKey) HasPermission(required Permission) bool {
	for _, p := range k.Permissions {
		if p == required {
			return true
		}
		if p == PermissionAdmin && (required == PermissionRead || required == PermissionWrite) {
			return true
		}
	}
	return false
}

// Metadata returns a copy with the hash blanked, safe to list externally.
func (k *APIKey) Metadata() APIKey {
	meta := *k
	meta.Hash = ""
	return meta
}
