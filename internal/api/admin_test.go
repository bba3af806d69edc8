// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package api

import (
	"net/http"
	"strings"
	"testing"
)

func TestCreateKeyReturnsPlaintextOnce(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/admin/keys", a.adminKey, CreateKeyRequest{
		Name:        "integration",
		Permissions: []string{"read"},
		RateLimit:   60,
		ExpiresDays: 30,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	plaintext := data["plaintext"].(string)
	if !strings.HasPrefix(plaintext, "astr_") {
		t.Errorf("unexpected plaintext format %q", plaintext)
	}

	key := data["key"].(map[string]interface{})
	if key["name"] != "integration" {
		t.Errorf("unexpected key name %v", key["name"])
	}
	if _, ok := key["hash"]; ok {
		t.Error("hash must not be serialized")
	}
	if key["expires_at"] == nil {
		t.Error("expected an expiry")
	}

	// The minted key authenticates immediately.
	readRec := a.do(t, http.MethodGet, positionsQuery, plaintext, nil)
	if readRec.Code != http.StatusOK {
		t.Errorf("minted key should read, got %d", readRec.Code)
	}

	// Listing returns metadata only, never the plaintext or hash.
	listRec := a.do(t, http.MethodGet, "/api/v1/admin/keys", a.adminKey, nil)
	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listRec.Code)
	}
	if strings.Contains(listRec.Body.String(), plaintext) {
		t.Error("plaintext leaked in key listing")
	}
	listResp := decodeResponse(t, listRec)
	listData := listResp.Data.(map[string]interface{})
	if listData["count"].(float64) != 4 {
		t.Errorf("expected 4 keys listed, got %v", listData["count"])
	}
}

func TestReadKeyCannotAdministerKeys(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/admin/keys", a.readKey, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for read key, got %d", rec.Code)
	}

	rec = a.do(t, http.MethodPost, "/api/v1/admin/keys", a.readKey, CreateKeyRequest{Name: "sneaky"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for read key create, got %d", rec.Code)
	}
}

func TestRevokeKeyEndpoint(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/admin/keys", a.adminKey, CreateKeyRequest{
		Name:        "doomed",
		Permissions: []string{"read"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	plaintext := data["plaintext"].(string)
	id := data["key"].(map[string]interface{})["id"].(string)

	rec = a.do(t, http.MethodDelete, "/api/v1/admin/keys/"+id, a.adminKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// The revoked key stops authenticating.
	rec = a.do(t, http.MethodGet, positionsQuery, plaintext, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("revoked key should fail auth, got %d", rec.Code)
	}
	resp = decodeResponse(t, rec)
	if resp.Error == nil || !strings.Contains(resp.Error.Message, "revoked") {
		t.Errorf("expected revocation message, got %+v", resp.Error)
	}

	// Revoking an unknown ID is a 404.
	rec = a.do(t, http.MethodDelete, "/api/v1/admin/keys/no-such-id", a.adminKey, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown key, got %d", rec.Code)
	}
}

func TestKeyStatsEndpoint(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/admin/keys/stats", a.adminKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	if data["total"].(float64) != 3 {
		t.Errorf("expected 3 total keys, got %v", data["total"])
	}
	if data["active"].(float64) != 3 {
		t.Errorf("expected 3 active keys, got %v", data["active"])
	}
}
