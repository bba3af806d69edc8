// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package api

import (
	"net/http"
	"time"

	"github.com/astrarium/astrarium/internal/logging"
)

// HealthStatus is the payload for GET /api/v1/health.
type HealthStatus struct {
	Status       string          `json:"status"`
	Version      string          `json:"version,omitempty"`
	UptimeSecs   int64           `json:"uptime_seconds"`
	CacheEntries int             `json:"cache_entries"`
	CacheHitRate float64         `json:"cache_hit_rate"`
	ActiveKeys   int             `json:"active_keys"`
	Features     map[string]bool `json:"features"`
}

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Health serves GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	activeKeys, err := h.manager.ActiveCount(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("active key count unavailable")
		activeKeys = -1
	}

	rw.Success(HealthStatus{
		Status:       "ok",
		Version:      Version,
		UptimeSecs:   int64(time.Since(h.started).Seconds()),
		CacheEntries: h.cache.EntryCount(),
		CacheHitRate: h.cache.HitRate(),
		ActiveKeys:   activeKeys,
		Features: map[string]bool{
			"natal_chart":  true,
			"transits":     true,
			"progressions": true,
			"synastry":     true,
			"strength":     true,
			"moon_phase":   true,
			"arabic_parts": true,
			"geocoding":    h.resolver != nil,
		},
	})
}

// Live serves GET /health/live: process is up.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"alive"}`))
}

// Ready serves GET /health/ready: dependencies reachable enough to take
// traffic. The key store is the only hard dependency; the ephemeris
// breaker degrades gracefully.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, err := h.manager.ActiveCount(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
