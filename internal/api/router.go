// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/astrarium/astrarium/internal/config"
	"github.com/astrarium/astrarium/internal/middleware"
)

// NewRouter assembles the full route tree: authenticated chart and admin
// endpoints under /api/v1, plus unauthenticated health and metrics.
func NewRouter(cfg *config.Config, handler *Handler, auth *Authenticator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Unauthenticated health surface, IP rate limited so probes cannot
	// be weaponized.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(30, time.Minute))
		r.Get("/api/v1/health", handler.Health)
		r.Get("/health/live", handler.Live)
		r.Get("/health/ready", handler.Ready)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Chart computation endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Metrics)
		r.Use(auth.Authenticate)

		r.With(auth.Require(OpPositions)).Get("/positions", handler.Positions)
		r.With(auth.Require(OpAspects)).Get("/aspects", handler.Aspects)
		r.With(auth.Require(OpHouses)).Get("/houses", handler.Houses)
		r.With(auth.Require(OpMoonPhase)).Get("/moon-phase", handler.MoonPhase)

		r.With(auth.Require(OpNatalChart)).Post("/natal-chart", handler.NatalChart)
		r.With(auth.Require(OpTransits)).Post("/transits", handler.Transits)
		r.With(auth.Require(OpProgressions)).Post("/progressions", handler.Progressions)
		r.With(auth.Require(OpSynastry)).Post("/synastry", handler.Synastry)
		r.With(auth.Require(OpStrength)).Post("/strength", handler.Strength)

		// Key administration.
		r.Route("/admin/keys", func(r chi.Router) {
			r.With(auth.Require(OpKeyCreate)).Post("/", handler.CreateKey)
			r.With(auth.Require(OpKeyList)).Get("/", handler.ListKeys)
			r.With(auth.Require(OpKeyStats)).Get("/stats", handler.KeyStats)
			r.With(auth.Require(OpKeyRevoke)).Delete("/{id}", handler.RevokeKey)
		})
	})

	return r
}
