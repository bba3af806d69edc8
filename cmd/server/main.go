// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

// Package main is the entry point for the Astrarium server application.
//
// Astrarium is a self-hosted astrological computation API. It turns raw
// planetary positions from an upstream ephemeris service into charts,
// aspects, houses, dignities, transits, progressions, and synastry
// comparisons, served over an authenticated REST API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Key store: Open BadgerDB for persistent API key records
//  3. Ephemeris: HTTP client with retry and a circuit breaker wrapper
//  4. Cache: In-memory TTL cache with single-flight computation
//  5. Authorization: Casbin RBAC model mapping key permissions to operations
//  6. Supervisor tree: Background workers and the HTTP server under suture
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (ASTRARIUM_ prefix, e.g. ASTRARIUM_SERVER_PORT)
//   - Config file (config.yaml, or the path in ASTRARIUM_CONFIG)
//   - Built-in defaults
//
// # Bootstrap
//
// On first start against an empty key store, an admin key is minted and
// its plaintext is written to the log exactly once. Use it to create
// scoped keys through the admin API, then rotate it.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (shutdown timeout)
//   - Stops background workers and closes the key store
//
// # Example Usage
//
// Development with an in-memory key store:
//
//	export ASTRARIUM_DATABASE_IN_MEMORY=true
//	export ASTRARIUM_EPHEMERIS_URL=http://localhost:8747
//	./astrarium
//
// Production:
//
//	export ASTRARIUM_DATABASE_PATH=/data/astrarium
//	export ASTRARIUM_EPHEMERIS_URL=http://ephemeris:8747
//	export ASTRARIUM_SERVER_ENVIRONMENT=production
//	export ASTRARIUM_SERVER_CORS_ORIGINS=https://app.example.com
//	./astrarium
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/astrarium/astrarium/internal/api"
	"github.com/astrarium/astrarium/internal/authz"
	"github.com/astrarium/astrarium/internal/cache"
	"github.com/astrarium/astrarium/internal/config"
	"github.com/astrarium/astrarium/internal/ephemeris"
	"github.com/astrarium/astrarium/internal/keys"
	"github.com/astrarium/astrarium/internal/logging"
	"github.com/astrarium/astrarium/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", api.Version).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Astrarium")

	logging.Info().
		Str("ephemeris_url", cfg.Ephemeris.URL).
		Str("db_path", cfg.Database.Path).
		Bool("db_in_memory", cfg.Database.InMemory).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("Configuration loaded")

	db, err := openKeyStore(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open key store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing key store")
		}
	}()

	manager := keys.NewManager(keys.NewBadgerStore(db))
	limiter := keys.NewRateLimiter(cfg.RateLimit.PerIPRequests, cfg.RateLimit.Window)

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bootstrapAdminKey(ctx, manager); err != nil {
		logging.Fatal().Err(err).Msg("Failed to bootstrap admin key")
	}

	client := ephemeris.NewClient(cfg.Ephemeris.URL, cfg.Ephemeris.Timeout)
	provider := ephemeris.NewBreakerProvider(client)

	chartCache := cache.New(cfg.Cache.TTL)

	handler := api.NewHandler(cfg, chartCache, provider, client, manager)
	auth := api.NewAuthenticator(manager, limiter, enforcer)
	router := api.NewRouter(cfg, handler, auth)

	// Bridge zerolog to slog for sutureslog compatibility
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	tree.AddWorker(supervisor.NewCacheSweeper(chartCache, cfg.Cache.SweepInterval))
	tree.AddWorker(supervisor.NewLimiterCleanup(limiter, cfg.RateLimit.CleanupInterval, cfg.RateLimit.LimiterIdle))
	if !cfg.Database.InMemory {
		tree.AddWorker(supervisor.NewBadgerGC(db, cfg.Database.GCInterval, cfg.Database.GCDiscardRatio))
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// openKeyStore opens the BadgerDB instance backing API key records.
// Badger's own logger is silenced; relevant events already surface
// through our metrics and the GC worker's logs.
func openKeyStore(cfg *config.DatabaseConfig) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	return badger.Open(opts.WithLogger(nil))
}

// bootstrapAdminKey mints an admin key when the store is empty so a
// fresh deployment can reach the admin API. The plaintext is logged
// exactly once and never recoverable afterwards.
func bootstrapAdminKey(ctx context.Context, manager *keys.Manager) error {
	existing, err := manager.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	key, plaintext, err := manager.Create(ctx, keys.CreateParams{
		Name:        "bootstrap-admin",
		Permissions: []keys.Permission{keys.PermissionAdmin},
		RateLimit:   1000,
	})
	if err != nil {
		return err
	}

	logging.Warn().
		Str("key_id", key.ID).
		Str("api_key", plaintext).
		Msg("Key store was empty; minted bootstrap admin key. Store this key now, it will not be shown again. Rotate it once scoped keys exist.")
	return nil
}
