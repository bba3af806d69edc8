// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package ephemeris

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/astrarium/astrarium/internal/chart"
	"github.com/astrarium/astrarium/internal/logging"
	"github.com/astrarium/astrarium/internal/metrics"
	"github.com/astrarium/astrarium/internal/zodiac"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetryDelay = 500 * time.Millisecond

	// One retry on retryable failures. The circuit breaker above this
	// client handles sustained outages.
	maxRetries = 1
)

// Client is an HTTP implementation of Provider and Resolver against a
// configurable ephemeris service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryDelay time.Duration
}

// NewClient creates a client for the ephemeris service at baseURL.
// A zero timeout falls back to 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		retryDelay: defaultRetryDelay,
	}
}

// wirePosition is one body in the upstream positions payload.
type wirePosition struct {
	Body      string  `json:"body"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
}

type positionsResponse struct {
	Planets []wirePosition `json:"planets"`
}

type wireCusp struct {
	House     int     `json:"house"`
	Longitude float64 `json:"longitude"`
}

type housesResponse struct {
	Ascendant float64    `json:"ascendant"`
	Houses    []wireCusp `json:"houses"`
}

type geocodeResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Found     bool    `json:"found"`
}

// Positions implements Provider.
func (c *Client) Positions(ctx context.Context, instant time.Time, lat, lon float64, extra bool) ([]chart.PlanetPosition, error) {
	params := locationParams(instant, lat, lon)
	params.Set("extra", strconv.FormatBool(extra))

	start := time.Now()
	var resp positionsResponse
	err := c.getJSON(ctx, "/positions", params, &resp)
	metrics.RecordEphemerisRequest("positions", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	positions := make([]chart.PlanetPosition, 0, len(resp.Planets))
	for _, p := range resp.Planets {
		positions = append(positions, chart.PlanetPosition{
			Body:       p.Body,
			Longitude:  zodiac.Normalize(p.Longitude),
			Speed:      p.Speed,
			Retrograde: p.Speed < 0,
		})
	}
	return positions, nil
}

// Houses implements Provider.
func (c *Client) Houses(ctx context.Context, instant time.Time, lat, lon float64) (float64, []chart.HousePlacement, error) {
	start := time.Now()
	var resp housesResponse
	err := c.getJSON(ctx, "/houses", locationParams(instant, lat, lon), &resp)
	metrics.RecordEphemerisRequest("houses", time.Since(start), err)
	if err != nil {
		return 0, nil, err
	}

	asc := zodiac.Normalize(resp.Ascendant)
	houses := make([]chart.HousePlacement, 0, len(resp.Houses))
	for _, h := range resp.Houses {
		cusp := zodiac.Normalize(h.Longitude)
		houses = append(houses, chart.HousePlacement{
			House:         h.House,
			CuspLongitude: cusp,
			Sign:          zodiac.SignOf(cusp).String(),
		})
	}
	return asc, houses, nil
}

// Resolve implements Resolver via the upstream geocoding endpoint. When
// the upstream knows the place but not its timezone, the timezone is
// approximated from the longitude offset.
func (c *Client) Resolve(ctx context.Context, city, nation string) (float64, float64, string, error) {
	params := url.Values{}
	params.Set("city", city)
	params.Set("nation", nation)

	start := time.Now()
	var resp geocodeResponse
	err := c.getJSON(ctx, "/geocode", params, &resp)
	metrics.RecordEphemerisRequest("geocode", time.Since(start), err)
	if err != nil {
		return 0, 0, "", err
	}
	if !resp.Found {
		return 0, 0, "", fmt.Errorf("%w: %s, %s", ErrUnresolvedLocation, city, nation)
	}

	tz := resp.Timezone
	if tz == "" {
		tz = TimezoneFromLongitude(resp.Longitude)
	}
	return resp.Latitude, resp.Longitude, tz, nil
}

func locationParams(instant time.Time, lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("datetime", instant.UTC().Format(time.RFC3339))
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return params
}

// getJSON performs a GET with one retry on retryable failures and decodes
// the response body into result. Retryable means a transport error or a
// 5xx/429 status; a 4xx other than 429 fails immediately.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, result interface{}) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			logging.Ctx(ctx).Debug().
				Str("path", path).
				Dur("delay", delay).
				Msg("retrying ephemeris request")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return fmt.Errorf("%w: build request: %v", ErrUpstream, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUpstream, err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			err = json.NewDecoder(resp.Body).Decode(result)
			_ = resp.Body.Close()
			if err != nil {
				return fmt.Errorf("%w: decode %s response: %v", ErrUpstream, path, err)
			}
			return nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("%w: %s returned HTTP %d: %s", ErrUpstream, path, resp.StatusCode, body)
			continue
		}
		return fmt.Errorf("%w: %s returned HTTP %d: %s", ErrUpstream, path, resp.StatusCode, body)
	}
	return lastErr
}
