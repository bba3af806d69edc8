// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/astrarium/astrarium/internal/keys"
	"github.com/astrarium/astrarium/internal/logging"
	"github.com/astrarium/astrarium/internal/metrics"
	"github.com/astrarium/astrarium/internal/validation"
)

// CreateKeyRequest is the admin payload for minting a new API key.
type CreateKeyRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,oneof=read write admin"`
	RateLimit   int      `json:"rate_limit" validate:"omitempty,gte=1,lte=100000"`
	ExpiresDays int      `json:"expires_days" validate:"omitempty,gte=1,lte=3650"`
}

// CreateKeyResponse returns the plaintext key exactly once, at creation.
type CreateKeyResponse struct {
	Key      keys.APIKey `json:"key"`
	Plaintext string     `json:"plaintext"`
}

// CreateKey serves POST /api/v1/admin/keys.
func (h *Handler) CreateKey(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondValidation(rw, err)
		return
	}
	if verr := validation.Struct(&req); verr != nil {
		respondValidation(rw, verr)
		return
	}

	permissions := make([]keys.Permission, len(req.Permissions))
	for i, p := range req.Permissions {
		permissions[i] = keys.Permission(p)
	}

	key, plaintext, err := h.manager.Create(r.Context(), keys.CreateParams{
		Name:        req.Name,
		Permissions: permissions,
		RateLimit:   req.RateLimit,
		ExpiresDays: req.ExpiresDays,
	})
	metrics.RecordKeyOperation("create", err)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("key creation failed")
		rw.InternalError("failed to create key")
		return
	}

	rw.Created(CreateKeyResponse{
		Key:       key.Metadata(),
		Plaintext: plaintext,
	})
}

// ListKeys serves GET /api/v1/admin/keys. Hashes never leave the store.
func (h *Handler) ListKeys(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	list, err := h.manager.List(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("key listing failed")
		rw.InternalError("failed to list keys")
		return
	}

	rw.Success(map[string]interface{}{
		"keys":  list,
		"count": len(list),
	})
}

// RevokeKey serves DELETE /api/v1/admin/keys/{id}.
func (h *Handler) RevokeKey(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id := chi.URLParam(r, "id")
	if id == "" {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, "key id is required")
		return
	}

	err := h.manager.Revoke(r.Context(), id)
	metrics.RecordKeyOperation("revoke", err)
	if err != nil {
		if errors.Is(err, keys.ErrKeyNotFound) {
			rw.NotFound("key not found")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Str("key_id", id).Msg("key revocation failed")
		rw.InternalError("failed to revoke key")
		return
	}

	rw.Success(map[string]interface{}{
		"id":      id,
		"revoked": true,
	})
}

// KeyStats serves GET /api/v1/admin/keys/stats.
func (h *Handler) KeyStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats, err := h.manager.GetStats(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("key stats failed")
		rw.InternalError("failed to compute key stats")
		return
	}

	metrics.ActiveKeys.Set(float64(stats.Active))
	rw.Success(stats)
}
