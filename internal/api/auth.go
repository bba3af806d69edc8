// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/astrarium/astrarium/internal/authz"
	"github.com/astrarium/astrarium/internal/keys"
	"github.com/astrarium/astrarium/internal/logging"
	"github.com/astrarium/astrarium/internal/metrics"
)

type contextKey string

const apiKeyContextKey contextKey = "api_key"

// KeyFromContext returns the authenticated API key, or nil outside an
// authenticated route.
func KeyFromContext(ctx context.Context) *keys.APIKey {
	if key, ok := ctx.Value(apiKeyContextKey).(*keys.APIKey); ok {
		return key
	}
	return nil
}

// Authenticator authenticates API keys and enforces per-key and per-IP
// rate limits before a request reaches its handler.
type Authenticator struct {
	manager  *keys.Manager
	limiter  *keys.RateLimiter
	enforcer *authz.Enforcer
}

// NewAuthenticator wires the key manager, the rate limiter, and the
// casbin enforcer into one middleware source.
func NewAuthenticator(manager *keys.Manager, limiter *keys.RateLimiter, enforcer *authz.Enforcer) *Authenticator {
	return &Authenticator{manager: manager, limiter: limiter, enforcer: enforcer}
}

// Authenticate resolves the presented API key and attaches it to the
// request context. The key is read from the X-API-Key header first, then
// an Authorization bearer token, then the api_key query parameter.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := NewResponseWriter(w, r)

		presented := extractKey(r)
		if presented == "" {
			rw.Unauthorized("API key required")
			return
		}

		key, err := a.manager.Authenticate(r.Context(), presented)
		if err != nil {
			metrics.RecordKeyOperation("authenticate", err)
			switch {
			case errors.Is(err, keys.ErrKeyRevoked):
				rw.Unauthorized("API key has been revoked")
			case errors.Is(err, keys.ErrKeyExpired):
				rw.Unauthorized("API key has expired")
			default:
				rw.Unauthorized("invalid API key")
			}
			return
		}

		if !a.limiter.AllowIP(clientIP(r)) {
			metrics.RecordRateLimitRejection("ip")
			rw.TooManyRequests("too many requests from this address")
			return
		}
		if !a.limiter.AllowKey(key.ID, key.RateLimit) {
			metrics.RecordRateLimitRejection("key")
			rw.TooManyRequests("rate limit exceeded for this key")
			return
		}

		ctx := context.WithValue(r.Context(), apiKeyContextKey, key)
		logger := logging.LoggerFromContext(ctx).With().Str("key_id", key.ID).Logger()
		ctx = logging.ContextWithLogger(ctx, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require returns middleware enforcing the operation's permission against
// the authenticated key's roles.
func (a *Authenticator) Require(op Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := NewResponseWriter(w, r)

			key := KeyFromContext(r.Context())
			if key == nil {
				rw.Unauthorized("API key required")
				return
			}

			allowed, err := a.enforcer.Allowed(key, string(op), op.RequiredPermission())
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Str("operation", string(op)).Msg("authorization check failed")
				rw.InternalError("authorization check failed")
				return
			}
			if !allowed {
				rw.Forbidden("insufficient permissions for this operation")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("api_key")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
