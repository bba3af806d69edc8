// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/astrarium/astrarium/internal/aspect"
	"github.com/astrarium/astrarium/internal/cache"
	"github.com/astrarium/astrarium/internal/chart"
	"github.com/astrarium/astrarium/internal/config"
	"github.com/astrarium/astrarium/internal/ephemeris"
	"github.com/astrarium/astrarium/internal/keys"
	"github.com/astrarium/astrarium/internal/logging"
	"github.com/astrarium/astrarium/internal/metrics"
	"github.com/astrarium/astrarium/internal/validation"
	"github.com/astrarium/astrarium/internal/zodiac"
)

// Handler serves the chart computation endpoints. All astrological state
// is request-local; the only shared mutable pieces are the result cache
// and the key store.
type Handler struct {
	cfg      *config.Config
	cache    *cache.Cache
	provider ephemeris.Provider
	resolver ephemeris.Resolver
	manager  *keys.Manager
	started  time.Time
}

// NewHandler wires the handler's collaborators.
func NewHandler(cfg *config.Config, c *cache.Cache, provider ephemeris.Provider, resolver ephemeris.Resolver, manager *keys.Manager) *Handler {
	return &Handler{
		cfg:      cfg,
		cache:    c,
		provider: provider,
		resolver: resolver,
		manager:  manager,
		started:  time.Now(),
	}
}

// subject is a resolved chart subject: where and when.
type subject struct {
	Latitude  float64
	Longitude float64
	Timezone  string
	Instant   time.Time
}

// resolveSubject turns validated birth data into concrete coordinates,
// timezone, and instant, geocoding when only a city/nation was given.
func (h *Handler) resolveSubject(ctx context.Context, b *BirthData) (subject, error) {
	var s subject

	switch {
	case b.HasCoordinates():
		s.Latitude = *b.Latitude
		s.Longitude = *b.Longitude
		s.Timezone = timezoneFor(b, s.Longitude)
	case b.City != "" && b.Nation != "":
		lat, lon, tz, err := h.resolver.Resolve(ctx, b.City, b.Nation)
		if err != nil {
			return s, err
		}
		s.Latitude, s.Longitude = lat, lon
		s.Timezone = tz
		if b.Timezone != "" {
			s.Timezone = b.Timezone
		}
	default:
		return s, errMissingLocation
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return s, errors.New("unknown timezone: " + s.Timezone)
	}

	s.Instant, err = b.Instant(loc)
	return s, err
}

// buildChart fetches positions and houses for a subject and assembles an
// annotated chart.
func (h *Handler) buildChart(ctx context.Context, s subject, extra bool) (*chart.Chart, error) {
	positions, err := h.provider.Positions(ctx, s.Instant, s.Latitude, s.Longitude, extra)
	if err != nil {
		return nil, err
	}
	asc, houses, err := h.provider.Houses(ctx, s.Instant, s.Latitude, s.Longitude)
	if err != nil {
		return nil, err
	}

	c := &chart.Chart{
		Instant:   s.Instant,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Timezone:  s.Timezone,
		Ascendant: asc,
		Planets:   positions,
		Houses:    houses,
	}
	c.Annotate()
	return c, nil
}

// cached runs compute through the single-flight cache under the
// operation's fingerprint and records hit/miss metrics.
func (h *Handler) cached(ctx context.Context, op Operation, params map[string]interface{}, compute func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	endpoint := string(op)
	fingerprint := cache.Fingerprint(endpoint, params)

	computed := false
	result, err := h.cache.GetOrCompute(ctx, fingerprint, h.cfg.Cache.TTL, func(ctx context.Context) (interface{}, error) {
		computed = true
		start := time.Now()
		value, err := compute(ctx)
		if err == nil {
			metrics.RecordChartComputation(endpoint, time.Since(start))
		}
		return value, err
	})

	if err == nil {
		if computed {
			metrics.RecordCacheMiss(endpoint)
		} else {
			metrics.RecordCacheHit(endpoint)
		}
		metrics.CacheEntries.Set(float64(h.cache.EntryCount()))
	}
	return result, err
}

func (s subject) cacheParams() map[string]interface{} {
	return map[string]interface{}{
		"instant":   s.Instant.UTC().Unix(),
		"latitude":  cache.RoundCoord(s.Latitude),
		"longitude": cache.RoundCoord(s.Longitude),
	}
}

// respondError maps a compute failure onto the error taxonomy.
func respondError(rw *ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ephemeris.ErrUpstream):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("upstream ephemeris failure")
		rw.Error(http.StatusBadGateway, ErrCodeUpstreamFailed, "ephemeris service unavailable")
	case errors.Is(err, ephemeris.ErrUnresolvedLocation):
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("computation failed")
		rw.InternalError("computation failed")
	}
}

// respondValidation writes a validation failure, from either struct
// validation or ad-hoc request checks.
func respondValidation(rw *ResponseWriter, err error) {
	var verr *validation.RequestError
	if errors.As(err, &verr) {
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed, verr.Error(), verr.Details())
		return
	}
	rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
}

// birthFromQuery parses and validates birth data for the GET endpoints.
func birthFromQuery(r *http.Request) (BirthData, error) {
	b, err := parseBirthQuery(r.URL.Query())
	if err != nil {
		return b, err
	}
	if verr := validation.Struct(&b); verr != nil {
		return b, verr
	}
	return b, nil
}

// Positions serves GET /api/v1/positions.
func (h *Handler) Positions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	b, err := birthFromQuery(r)
	if err != nil {
		respondValidation(rw, err)
		return
	}
	s, err := h.resolveSubject(r.Context(), &b)
	if err != nil {
		respondError(rw, r, err)
		return
	}

	params := s.cacheParams()
	params["extra"] = b.ExtraBodies
	result, err := h.cached(r.Context(), OpPositions, params, func(ctx context.Context) (interface{}, error) {
		positions, err := h.provider.Positions(ctx, s.Instant, s.Latitude, s.Longitude, b.ExtraBodies)
		if err != nil {
			return nil, err
		}
		fillSigns(positions)
		return map[string]interface{}{
			"instant":  s.Instant,
			"timezone": s.Timezone,
			"planets":  positions,
		}, nil
	})
	if err != nil {
		respondError(rw, r, err)
		return
	}
	rw.Success(result)
}

// Aspects serves GET /api/v1/aspects.
func (h *Handler) Aspects(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	b, err := birthFromQuery(r)
	if err != nil {
		respondValidation(rw, err)
		return
	}
	s, err := h.resolveSubject(r.Context(), &b)
	if err != nil {
		respondError(rw, r, err)
		return
	}

	params := s.cacheParams()
	params["extra"] = b.ExtraBodies
	result, err := h.cached(r.Context(), OpAspects, params, func(ctx context.Context) (interface{}, error) {
		positions, err := h.provider.Positions(ctx, s.Instant, s.Latitude, s.Longitude, b.ExtraBodies)
		if err != nil {
			return nil, err
		}
		set := make([]aspect.Position, len(positions))
		for i, p := range positions {
			set[i] = aspect.Position{Body: p.Body, Longitude: p.Longitude}
		}
		matches := aspect.Compute(set, set, aspect.SameChart)
		return map[string]interface{}{
			"instant": s.Instant,
			"aspects": matches,
			"summary": aspect.Summarize(matches),
		}, nil
	})
	if err != nil {
		respondError(rw, r, err)
		return
	}
	rw.Success(result)
}

// Houses serves GET /api/v1/houses.
func (h *Handler) Houses(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	b, err := birthFromQuery(r)
	if err != nil {
		respondValidation(rw, err)
		return
	}
	s, err := h.resolveSubject(r.Context(), &b)
	if err != nil {
		respondError(rw, r, err)
		return
	}

	result, err := h.cached(r.Context(), OpHouses, s.cacheParams(), func(ctx context.Context) (interface{}, error) {
		asc, houses, err := h.provider.Houses(ctx, s.Instant, s.Latitude, s.Longitude)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"instant":        s.Instant,
			"ascendant":      asc,
			"ascendant_sign": zodiac.SignOf(asc).String(),
			"houses":         houses,
		}, nil
	})
	if err != nil {
		respondError(rw, r, err)
		return
	}
	rw.Success(result)
}

// MoonPhase serves GET /api/v1/moon-phase.
func (h *Handler) MoonPhase(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	b, err := birthFromQuery(r)
	if err != nil {
		respondValidation(rw, err)
		return
	}
	s, err := h.resolveSubject(r.Context(), &b)
	if err != nil {
		respondError(rw, r, err)
		return
	}

	result, err := h.cached(r.Context(), OpMoonPhase, s.cacheParams(), func(ctx context.Context) (interface{}, error) {
		positions, err := h.provider.Positions(ctx, s.Instant, s.Latitude, s.Longitude, false)
		if err != nil {
			return nil, err
		}
		var sun, moon *chart.PlanetPosition
		for i := range positions {
			switch positions[i].Body {
			case "Sun":
				sun = &positions[i]
			case "Moon":
				moon = &positions[i]
			}
		}
		if sun == nil || moon == nil {
			return nil, errors.New("provider response missing Sun or Moon")
		}
		return map[string]interface{}{
			"instant": s.Instant,
			"phase":   chart.ComputeMoonPhase(sun.Longitude, moon.Longitude),
		}, nil
	})
	if err != nil {
		respondError(rw, r, err)
		return
	}
	rw.Success(result)
}

// NatalChart serves POST /api/v1/natal-chart.
func (h *Handler) NatalChart(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req BirthData
	if err := decodeJSON(r, &req); err != nil {
		respondValidation(rw, err)
		return
	}
	if verr := validation.Struct(&req); verr != nil {
		respondValidation(rw, verr)
		return
	}
	s, err := h.resolveSubject(r.Context(), &req)
	if err != nil {
		respondError(rw, r, err)
		return
	}

	params := s.cacheParams()
	params["extra"] = req.ExtraBodies
	result, err := h.cached(r.Context(), OpNatalChart, params, func(ctx context.Context) (interface{}, error) {
		c, err := h.buildChart(ctx, s, req.ExtraBodies)
		if err != nil {
			return nil, err
		}
		return chart.BuildNatal(c), nil
	})
	if err != nil {
		respondError(rw, r, err)
		return
	}
	rw.Success(result)
}

// Transits serves POST /api/v1/transits.
func (h *Handler) Transits(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req TransitsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondValidation(rw, err)
		return
	}
	if verr := validation.Struct(&req); verr != nil {
		respondValidation(rw, verr)
		return
	}
	s, err := h.resolveSubject(r.Context(), &req.Natal)
	if err != nil {
		respondError(rw, r, err)
		return
	}

	transitInstant := time.Now().UTC()
	if req.Instant != "" {
		transitInstant, err = time.Parse(time.RFC3339, req.Instant)
		if err != nil {
			respondValidation(rw, err)
			return
		}
	}

	params := s.cacheParams()
	params["transit_instant"] = transitInstant.Unix()
	result, err := h.cached(r.Context(), OpTransits, params, func(ctx context.Context) (interface{}, error) {
		natal, err := h.buildChart(ctx, s, req.Natal.ExtraBodies)
		if err != nil {
			return nil, err
		}
		// Transiting positions are computed for the natal place.
		transiting, err := h.provider.Positions(ctx, transitInstant, s.Latitude, s.Longitude, req.Natal.ExtraBodies)
		if err != nil {
			return nil, err
		}
		return chart.ComputeTransits(natal, transiting, transitInstant), nil
	})
	if err != nil {
		respondError(rw, r, err)
		return
	}
	rw.Success(result)
}

// Progressions serves POST /api/v1/progressions.
func (h *Handler) Progressions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ProgressionsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondValidation(rw, err)
		return
	}
	if verr := validation.Struct(&req); verr != nil {
		respondValidation(rw, verr)
		return
	}
	s, err := h.resolveSubject(r.Context(), &req.Natal)
	if err != nil {
		respondError(rw, r, err)
		return
	}

	progressionDate := time.Now().UTC()
	if req.Date != "" {
		progressionDate, err = time.Parse(time.RFC3339, req.Date)
		if err != nil {
			respondValidation(rw, err)
			return
		}
	}

	days := chart.DaysSinceBirth(s.Instant, progressionDate)

	params := s.cacheParams()
	params["days"] = days
	result, err := h.cached(r.Context(), OpProgressions, params, func(ctx context.Context) (interface{}, error) {
		natal, err := h.buildChart(ctx, s, req.Natal.ExtraBodies)
		if err != nil {
			return nil, err
		}
		progressed, err := h.provider.Positions(ctx, chart.ProgressedInstant(s.Instant, days), s.Latitude, s.Longitude, req.Natal.ExtraBodies)
		if err != nil {
			return nil, err
		}
		return chart.ComputeProgressions(natal, progressed, days), nil
	})
	if err != nil {
		respondError(rw, r, err)
		return
	}
	rw.Success(result)
}

// Synastry serves POST /api/v1/synastry.
func (h *Handler) Synastry(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req SynastryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondValidation(rw, err)
		return
	}
	if verr := validation.Struct(&req); verr != nil {
		respondValidation(rw, verr)
		return
	}
	subjectA, err := h.resolveSubject(r.Context(), &req.PersonA)
	if err != nil {
		respondError(rw, r, err)
		return
	}
	subjectB, err := h.resolveSubject(r.Context(), &req.PersonB)
	if err != nil {
		respondError(rw, r, err)
		return
	}

	params := subjectA.cacheParams()
	for k, v := range subjectB.cacheParams() {
		params["b_"+k] = v
	}
	result, err := h.cached(r.Context(), OpSynastry, params, func(ctx context.Context) (interface{}, error) {
		chartA, err := h.buildChart(ctx, subjectA, false)
		if err != nil {
			return nil, err
		}
		chartB, err := h.buildChart(ctx, subjectB, false)
		if err != nil {
			return nil, err
		}
		return chart.ComputeSynastry(chartA, chartB, h.cfg.Synastry), nil
	})
	if err != nil {
		respondError(rw, r, err)
		return
	}
	rw.Success(result)
}

// Strength serves POST /api/v1/strength.
func (h *Handler) Strength(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req BirthData
	if err := decodeJSON(r, &req); err != nil {
		respondValidation(rw, err)
		return
	}
	if verr := validation.Struct(&req); verr != nil {
		respondValidation(rw, verr)
		return
	}
	s, err := h.resolveSubject(r.Context(), &req)
	if err != nil {
		respondError(rw, r, err)
		return
	}

	result, err := h.cached(r.Context(), OpStrength, s.cacheParams(), func(ctx context.Context) (interface{}, error) {
		c, err := h.buildChart(ctx, s, false)
		if err != nil {
			return nil, err
		}
		return chart.ComputeStrength(c), nil
	})
	if err != nil {
		respondError(rw, r, err)
		return
	}
	rw.Success(result)
}

// fillSigns annotates bare provider positions with sign and in-sign
// degree. House assignment needs an ascendant and is left to the chart
// endpoints.
func fillSigns(positions []chart.PlanetPosition) {
	for i := range positions {
		p := &positions[i]
		p.Sign = zodiac.SignOf(p.Longitude).String()
		p.SignDegree = zodiac.DegreeInSign(p.Longitude)
	}
}
