// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package keys

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB storage.
const (
	keyPrefix     = "apikey:"
	keyHashPrefix = "apikey_hash:"
)

// BadgerStore implements Store on BadgerDB. Records are stored as JSON
// under apikey:<id>, with a hash index apikey_hash:<hash> -> id for the
// authentication lookup.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a BadgerDB-backed key store.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Create(_ context.Context, key *APIKey) error {
	record, err := json.Marshal(storedKey{Key: key, Hash: key.Hash})
	if err != nil {
		return fmt.Errorf("marshal api key record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		hashKey := []byte(keyHashPrefix + key.Hash)
		if _, err := txn.Get(hashKey); err == nil {
			return ErrHashConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check hash index: %w", err)
		}

		if err := txn.Set([]byte(keyPrefix+key.ID), record); err != nil {
			return fmt.Errorf("set api key: %w", err)
		}
		if err := txn.Set(hashKey, []byte(key.ID)); err != nil {
			return fmt.Errorf("set hash index: %w", err)
		}
		return nil
	})
}

// storedKey carries the hash alongside the record, since APIKey excludes
// it from JSON.
type storedKey struct {
	Key  *APIKey `json:"key"`
	Hash string  `json:"hash"`
}

func (s *BadgerStore) Get(_ context.Context, id string) (*APIKey, error) {
	var key *APIKey

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		key, err = getRecord(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (s *BadgerStore) GetByHash(_ context.Context, hash string) (*APIKey, error) {
	var key *APIKey

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyHashPrefix + hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		if err != nil {
			return fmt.Errorf("get hash index: %w", err)
		}

		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		key, err = getRecord(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (s *BadgerStore) Update(_ context.Context, key *APIKey) error {
	record, err := json.Marshal(storedKey{Key: key, Hash: key.Hash})
	if err != nil {
		return fmt.Errorf("marshal api key record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		dbKey := []byte(keyPrefix + key.ID)
		if _, err := txn.Get(dbKey); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrKeyNotFound
		} else if err != nil {
			return fmt.Errorf("get api key: %w", err)
		}
		return txn.Set(dbKey, record)
	})
}

func (s *BadgerStore) Touch(_ context.Context, id string, at time.Time) error {
	// Read-modify-write inside one transaction keeps the bump atomic with
	// respect to concurrent revocations.
	return s.db.Update(func(txn *badger.Txn) error {
		key, err := getRecord(txn, id)
		if err != nil {
			return err
		}

		key.UsageCount++
		key.LastUsedAt = &at

		record, err := json.Marshal(storedKey{Key: key, Hash: key.Hash})
		if err != nil {
			return fmt.Errorf("marshal api key record: %w", err)
		}
		return txn.Set([]byte(keyPrefix+id), record)
	})
}

func (s *BadgerStore) List(_ context.Context) ([]*APIKey, error) {
	var out []*APIKey

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec storedKey
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("unmarshal api key: %w", err)
				}
				rec.Key.Hash = rec.Hash
				out = append(out, rec.Key)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func getRecord(txn *badger.Txn, id string) (*APIKey, error) {
	item, err := txn.Get([]byte(keyPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get api key: %w", err)
	}

	var rec storedKey
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal api key: %w", err)
	}
	rec.Key.Hash = rec.Hash
	return rec.Key, nil
}
