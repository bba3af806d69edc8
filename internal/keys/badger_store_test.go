// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package keys

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

func newTestBadger(t *testing.T) *badger.DB {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	store := NewBadgerStore(newTestBadger(t))
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	expiry := now.AddDate(0, 0, 30)
	key := &APIKey{
		ID:          "id-1",
		Name:        "test",
		Hash:        HashKey("astr_deadbeef"),
		Permissions: []Permission{PermissionRead, PermissionWrite},
		RateLimit:   30,
		ExpiresAt:   &expiry,
		CreatedAt:   now,
	}

	if err := store.Create(ctx, key); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "id-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "test" || got.Hash != key.Hash || got.RateLimit != 30 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(expiry) {
		t.Errorf("expiry mismatch: %v", got.ExpiresAt)
	}
	if len(got.Permissions) != 2 {
		t.Errorf("permissions mismatch: %v", got.Permissions)
	}

	byHash, err := store.GetByHash(ctx, key.Hash)
	if err != nil {
		t.Fatal(err)
	}
	if byHash.ID != "id-1" {
		t.Errorf("hash lookup returned %s", byHash.ID)
	}
}

func TestBadgerStoreNotFound(t *testing.T) {
	store := NewBadgerStore(newTestBadger(t))
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get missing = %v", err)
	}
	if _, err := store.GetByHash(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("GetByHash missing = %v", err)
	}
	if err := store.Update(ctx, &APIKey{ID: "missing"}); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Update missing = %v", err)
	}
}

func TestBadgerStoreHashConflict(t *testing.T) {
	store := NewBadgerStore(newTestBadger(t))
	ctx := context.Background()

	if err := store.Create(ctx, &APIKey{ID: "a", Hash: "h"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, &APIKey{ID: "b", Hash: "h"}); !errors.Is(err, ErrHashConflict) {
		t.Errorf("duplicate hash = %v", err)
	}
}

func TestBadgerStoreUpdateAndList(t *testing.T) {
	store := NewBadgerStore(newTestBadger(t))
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := store.Create(ctx, &APIKey{ID: id, Hash: "hash-" + id, Name: id}); err != nil {
			t.Fatal(err)
		}
	}

	key, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	key.Revoked = true
	key.UsageCount = 7
	if err := store.Update(ctx, key); err != nil {
		t.Fatal(err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("List returned %d records", len(list))
	}
	for _, k := range list {
		if k.ID == "a" && (!k.Revoked || k.UsageCount != 7) {
			t.Errorf("update not visible in list: %+v", k)
		}
		if k.Hash == "" {
			t.Error("store layer should retain hashes")
		}
	}
}

func TestManagerOverBadger(t *testing.T) {
	m := NewManager(NewBadgerStore(newTestBadger(t)))
	ctx := context.Background()

	created, plaintext, err := m.Create(ctx, CreateParams{
		Name:        "integration",
		Permissions: []Permission{PermissionAdmin},
		RateLimit:   10,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := m.Authenticate(ctx, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != created.ID || !got.HasPermission(PermissionRead) {
		t.Errorf("unexpected key %+v", got)
	}

	if err := m.Revoke(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Authenticate(ctx, plaintext); !errors.Is(err, ErrKeyRevoked) {
		t.Errorf("revoked key = %v", err)
	}
}
