// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package keys

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/astrarium/astrarium/internal/logging"
)

// keyPrefixPlain marks Astrarium plaintext keys: astr_<64 hex chars>.
const keyPrefixPlain = "astr_"

// randomBytes of key material per generated key.
const randomBytes = 32

// Manager owns key lifecycle operations over a Store. It is safe for
// concurrent use; all mutation goes through the store.
type Manager struct {
	store Store
}

// NewManager creates a key manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// CreateParams describes a key to create.
type CreateParams struct {
	Name        string
	Permissions []Permission
	RateLimit   int
	ExpiresDays int
}

// Create generates a new API key and returns the record plus the plaintext
// key. The plaintext is returned exactly once and never stored; only the
// SHA-256 digest is persisted. A digest collision with an existing record
// is a configuration error surfaced as ErrHashConflict.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*APIKey, string, error) {
	plaintext, err := generateKey()
	if err != nil {
		return nil, "", fmt.Errorf("generate key material: %w", err)
	}

	if params.RateLimit <= 0 {
		params.RateLimit = 60
	}
	if len(params.Permissions) == 0 {
		params.Permissions = []Permission{PermissionRead}
	}

	key := &APIKey{
		ID:          uuid.New().String(),
		Name:        params.Name,
		Hash:        HashKey(plaintext),
		Permissions: params.Permissions,
		RateLimit:   params.RateLimit,
		CreatedAt:   time.Now().UTC(),
	}
	if params.ExpiresDays > 0 {
		expiry := key.CreatedAt.AddDate(0, 0, params.ExpiresDays)
		key.ExpiresAt = &expiry
	}

	if err := m.store.Create(ctx, key); err != nil {
		return nil, "", fmt.Errorf("store api key: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("key_id", key.ID).
		Str("name", key.Name).
		Int("rate_limit", key.RateLimit).
		Msg("api key created")

	return key, plaintext, nil
}

// Authenticate verifies a presented plaintext key: hash it, look up the
// exact record, and reject absent, revoked, or expired keys. On success
// the usage counter and last-used timestamp are updated asynchronously so
// the request path never waits on the store.
func (m *Manager) Authenticate(ctx context.Context, presented string) (*APIKey, error) {
	if !strings.HasPrefix(presented, keyPrefixPlain) {
		return nil, ErrKeyNotFound
	}

	key, err := m.store.GetByHash(ctx, HashKey(presented))
	if err != nil {
		return nil, err
	}

	if key.Revoked {
		return nil, ErrKeyRevoked
	}
	if key.IsExpired() {
		return nil, ErrKeyExpired
	}

	go m.recordUsage(key.ID)

	return key, nil
}

// recordUsage bumps usage_count and last_used_at, best effort.
func (m *Manager) recordUsage(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.store.Touch(ctx, id, time.Now().UTC()); err != nil {
		logging.Warn().Err(err).Str("key_id", id).Msg("usage update failed")
	}
}

// Revoke marks a key revoked. The record is retained; subsequent
// Authenticate calls fail with ErrKeyRevoked.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	key, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if key.Revoked {
		return nil
	}

	key.Revoked = true
	if err := m.store.Update(ctx, key); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}

	logging.Ctx(ctx).Info().Str("key_id", id).Msg("api key revoked")
	return nil
}

// List returns metadata for all keys. Hashes and plaintext never leave
// the store layer.
func (m *Manager) List(ctx context.Context) ([]APIKey, error) {
	records, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]APIKey, 0, len(records))
	for _, k := range records {
		out = append(out, k.Metadata())
	}
	return out, nil
}

// Stats summarizes the key population for the health and admin surfaces.
type Stats struct {
	Total   int   `json:"total"`
	Active  int   `json:"active"`
	Expired int   `json:"expired"`
	Revoked int   `json:"revoked"`
	Usage   int64 `json:"total_usage"`
}

// GetStats counts keys by state.
func (m *Manager) GetStats(ctx context.Context) (Stats, error) {
	records, err := m.store.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	stats.Total = len(records)
	for _, k := range records {
		switch {
		case k.Revoked:
			stats.Revoked++
		case k.IsExpired():
			stats.Expired++
		default:
			stats.Active++
		}
		stats.Usage += k.UsageCount
	}
	return stats, nil
}

// ActiveCount returns the number of keys that can currently authenticate.
func (m *Manager) ActiveCount(ctx context.Context) (int, error) {
	stats, err := m.GetStats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.Active, nil
}

// HashKey returns the SHA-256 hex digest of a plaintext key.
func HashKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// generateKey produces astr_ plus 64 hex chars of cryptographic randomness.
func generateKey() (string, error) {
	buf := make([]byte, randomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return keyPrefixPlain + hex.EncodeToString(buf), nil
}
