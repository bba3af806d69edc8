// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package keys

import (
	"context"
	"sync"
	"time"
)

// Store persists API key records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Create stores a new key. Fails with ErrHashConflict when a record
	// with the same hash already exists.
	Create(ctx context.Context, key *APIKey) error

	// Get retrieves a key by ID.
	Get(ctx context.Context, id string) (*APIKey, error)

	// GetByHash retrieves a key by its hash, the authentication path.
	GetByHash(ctx context.Context, hash string) (*APIKey, error)

	// Update overwrites an existing record.
	Update(ctx context.Context, key *APIKey) error

	// Touch atomically increments the usage counter and stamps the
	// last-used time, without disturbing concurrent state changes.
	Touch(ctx context.Context, id string, at time.Time) error

	// List returns all records.
	List(ctx context.Context) ([]*APIKey, error)
}

// MemoryStore is an in-memory Store for tests and ephemeral deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*APIKey
	byHash map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*APIKey),
		byHash: make(map[string]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, key *APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHash[key.Hash]; exists {
		return ErrHashConflict
	}

	stored := *key
	s.byID[key.ID] = &stored
	s.byHash[key.Hash] = key.ID
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.byID[id]
	if !ok {
		return nil, ErrKeyNotFound
	}
	copied := *key
	return &copied, nil
}

func (s *MemoryStore) GetByHash(_ context.Context, hash string) (*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[hash]
	if !ok {
		return nil, ErrKeyNotFound
	}
	key, ok := s.byID[id]
	if !ok {
		return nil, ErrKeyNotFound
	}
	copied := *key
	return &copied, nil
}

func (s *MemoryStore) Update(_ context.Context, key *APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[key.ID]; !ok {
		return ErrKeyNotFound
	}
	stored := *key
	s.byID[key.ID] = &stored
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.byID[id]
	if !ok {
		return ErrKeyNotFound
	}
	key.UsageCount++
	key.LastUsedAt = &at
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*APIKey, 0, len(s.byID))
	for _, key := range s.byID {
		copied := *key
		out = append(out, &copied)
	}
	return out, nil
}
