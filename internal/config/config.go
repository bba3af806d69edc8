// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

// Package config loads layered configuration: built-in defaults, an
// optional YAML file, then ASTRARIUM_-prefixed environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/astrarium/astrarium/internal/chart"
)

// Config is the root configuration for the Astrarium server.
type Config struct {
	Server    ServerConfig          `koanf:"server"`
	Logging   LoggingConfig         `koanf:"logging"`
	Database  DatabaseConfig        `koanf:"database"`
	Cache     CacheConfig           `koanf:"cache"`
	Ephemeris EphemerisConfig       `koanf:"ephemeris"`
	RateLimit RateLimitConfig       `koanf:"rate_limit"`
	Synastry  chart.SynastryWeights `koanf:"synastry"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig controls structured logging output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig controls the badger key store.
type DatabaseConfig struct {
	Path           string        `koanf:"path"`
	InMemory       bool          `koanf:"in_memory"`
	GCInterval     time.Duration `koanf:"gc_interval"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio"`
}

// CacheConfig controls the computation result cache.
type CacheConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// EphemerisConfig points at the external ephemeris service.
type EphemerisConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// RateLimitConfig controls per-key and per-IP request limits.
type RateLimitConfig struct {
	PerIPRequests   int           `koanf:"per_ip_requests"`
	Window          time.Duration `koanf:"window"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	LimiterIdle     time.Duration `koanf:"limiter_idle"`
}

// Validate checks cross-field constraints the type system cannot express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Ephemeris.URL == "" {
		return fmt.Errorf("ephemeris.url is required")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}
	if c.RateLimit.PerIPRequests <= 0 {
		return fmt.Errorf("rate_limit.per_ip_requests must be positive, got %d", c.RateLimit.PerIPRequests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %v", c.RateLimit.Window)
	}
	if c.Database.GCDiscardRatio <= 0 || c.Database.GCDiscardRatio >= 1 {
		return fmt.Errorf("database.gc_discard_ratio must be in (0, 1), got %v", c.Database.GCDiscardRatio)
	}
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("database.path is required unless database.in_memory is set")
	}
	if c.Synastry.PerAspectMax <= 0 {
		return fmt.Errorf("synastry.per_aspect_max must be positive, got %d", c.Synastry.PerAspectMax)
	}
	return nil
}

// IsProduction reports whether the server runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
