// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/astrarium/astrarium/internal/ephemeris"
)

// maxBodySize bounds request bodies; chart requests are small.
const maxBodySize = 1 << 20

var errMissingLocation = errors.New("either coordinates or city and nation are required")

// BirthData describes one chart subject: an instant and a place. The
// instant arrives either as an RFC3339 datetime or as calendar
// components; the place as coordinates or as a city/nation pair to
// geocode. An explicit timezone wins; otherwise it is approximated from
// the longitude.
type BirthData struct {
	Datetime string `json:"datetime" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Year     int    `json:"year" validate:"omitempty,birthyear"`
	Month    int    `json:"month" validate:"omitempty,gte=1,lte=12"`
	Day      int    `json:"day" validate:"omitempty,gte=1,lte=31"`
	Hour     int    `json:"hour" validate:"gte=0,lte=23"`
	Minute   int    `json:"minute" validate:"gte=0,lte=59"`

	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	City      string   `json:"city" validate:"omitempty,max=100"`
	Nation    string   `json:"nation" validate:"omitempty,max=100"`
	Timezone  string   `json:"timezone" validate:"omitempty,max=64"`

	ExtraBodies bool `json:"extra_bodies"`
}

// HasCoordinates reports whether both coordinates were supplied.
func (b *BirthData) HasCoordinates() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// HasInstant reports whether the request carries a usable instant.
func (b *BirthData) HasInstant() bool {
	return b.Datetime != "" || (b.Year != 0 && b.Month != 0 && b.Day != 0)
}

// Instant builds the chart instant in the given location. Datetime, when
// present, wins over the calendar components.
func (b *BirthData) Instant(loc *time.Location) (time.Time, error) {
	if b.Datetime != "" {
		t, err := time.Parse(time.RFC3339, b.Datetime)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid datetime: %w", err)
		}
		return t, nil
	}
	if !b.HasInstant() {
		return time.Time{}, errors.New("either datetime or year, month, and day are required")
	}
	return time.Date(b.Year, time.Month(b.Month), b.Day, b.Hour, b.Minute, 0, 0, loc), nil
}

// TransitsRequest asks for transiting aspects against a natal chart.
// The transit instant defaults to now; transiting positions are computed
// for the natal place.
type TransitsRequest struct {
	Natal   BirthData `json:"natal"`
	Instant string    `json:"instant" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// ProgressionsRequest asks for secondary progressions of a natal chart.
// The progression date defaults to now.
type ProgressionsRequest struct {
	Natal BirthData `json:"natal"`
	Date  string    `json:"date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// SynastryRequest compares two charts.
type SynastryRequest struct {
	PersonA BirthData `json:"person_a"`
	PersonB BirthData `json:"person_b"`
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// parseBirthQuery builds BirthData from GET query parameters.
func parseBirthQuery(query url.Values) (BirthData, error) {
	var b BirthData
	var err error

	b.Datetime = query.Get("datetime")
	if b.Year, err = intParam(query, "year"); err != nil {
		return b, err
	}
	if b.Month, err = intParam(query, "month"); err != nil {
		return b, err
	}
	if b.Day, err = intParam(query, "day"); err != nil {
		return b, err
	}
	if b.Hour, err = intParam(query, "hour"); err != nil {
		return b, err
	}
	if b.Minute, err = intParam(query, "minute"); err != nil {
		return b, err
	}
	if b.Latitude, err = floatParam(query, "latitude"); err != nil {
		return b, err
	}
	if b.Longitude, err = floatParam(query, "longitude"); err != nil {
		return b, err
	}

	b.City = query.Get("city")
	b.Nation = query.Get("nation")
	b.Timezone = query.Get("timezone")
	b.ExtraBodies = query.Get("extra_bodies") == "true"

	return b, nil
}

func intParam(query url.Values, name string) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func floatParam(query url.Values, name string) (*float64, error) {
	raw := query.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &v, nil
}

// timezoneFor picks the subject's timezone: the explicit one when given,
// otherwise the longitude-offset approximation.
func timezoneFor(b *BirthData, lon float64) string {
	if b.Timezone != "" {
		return b.Timezone
	}
	return ephemeris.TimezoneFromLongitude(lon)
}
