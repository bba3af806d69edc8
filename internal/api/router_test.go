// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/astrarium/astrarium/internal/authz"
	"github.com/astrarium/astrarium/internal/cache"
	"github.com/astrarium/astrarium/internal/chart"
	"github.com/astrarium/astrarium/internal/config"
	"github.com/astrarium/astrarium/internal/keys"
)

// fakeProvider serves a fixed sky so chart results are deterministic.
type fakeProvider struct {
	failPositions bool
}

func (f *fakeProvider) Positions(ctx context.Context, instant time.Time, lat, lon float64, extra bool) ([]chart.PlanetPosition, error) {
	if f.failPositions {
		return nil, context.DeadlineExceeded
	}
	positions := []chart.PlanetPosition{
		{Body: "Sun", Longitude: 84.1, Speed: 0.98},
		{Body: "Moon", Longitude: 150.5, Speed: 13.2},
		{Body: "Venus", Longitude: 45.2, Speed: 1.1},
		{Body: "Saturn", Longitude: 295.8, Speed: -0.05, Retrograde: true},
	}
	if extra {
		positions = append(positions, chart.PlanetPosition{Body: "Chiron", Longitude: 200.0, Speed: 0.02})
	}
	return positions, nil
}

func (f *fakeProvider) Houses(ctx context.Context, instant time.Time, lat, lon float64) (float64, []chart.HousePlacement, error) {
	return 15.0, nil, nil
}

func (f *fakeProvider) Resolve(ctx context.Context, city, nation string) (float64, float64, string, error) {
	return 40.7, -74.0, "America/New_York", nil
}

type testAPI struct {
	router   http.Handler
	readKey  string
	writeKey string
	adminKey string
	provider *fakeProvider
	cache    *cache.Cache
	manager  *keys.Manager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        8080,
			Timeout:     5 * time.Second,
			CORSOrigins: []string{"*"},
		},
		Cache: config.CacheConfig{TTL: time.Minute},
		RateLimit: config.RateLimitConfig{
			PerIPRequests: 10000,
			Window:        time.Minute,
		},
		Synastry: chart.DefaultSynastryWeights(),
	}

	manager := keys.NewManager(keys.NewMemoryStore())
	ctx := context.Background()

	_, readPlain, err := manager.Create(ctx, keys.CreateParams{
		Name:        "reader",
		Permissions: []keys.Permission{keys.PermissionRead},
		RateLimit:   10000,
	})
	if err != nil {
		t.Fatalf("failed to create read key: %v", err)
	}
	_, writePlain, err := manager.Create(ctx, keys.CreateParams{
		Name:        "writer",
		Permissions: []keys.Permission{keys.PermissionWrite},
		RateLimit:   10000,
	})
	if err != nil {
		t.Fatalf("failed to create write key: %v", err)
	}
	_, adminPlain, err := manager.Create(ctx, keys.CreateParams{
		Name:        "admin",
		Permissions: []keys.Permission{keys.PermissionAdmin},
		RateLimit:   10000,
	})
	if err != nil {
		t.Fatalf("failed to create admin key: %v", err)
	}

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		t.Fatalf("failed to build enforcer: %v", err)
	}

	provider := &fakeProvider{}
	c := cache.New(cfg.Cache.TTL)
	handler := NewHandler(cfg, c, provider, provider, manager)
	auth := NewAuthenticator(manager, keys.NewRateLimiter(cfg.RateLimit.PerIPRequests, cfg.RateLimit.Window), enforcer)

	return &testAPI{
		router:   NewRouter(cfg, handler, auth),
		readKey:  readPlain,
		writeKey: writePlain,
		adminKey: adminPlain,
		provider: provider,
		cache:    c,
		manager:  manager,
	}
}

func (a *testAPI) do(t *testing.T, method, target, key string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, target, reqBody)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

const positionsQuery = "/api/v1/positions?year=1990&month=6&day=15&hour=14&minute=30&latitude=40.7&longitude=-74.0&timezone=America/New_York"

func TestPositionsEndpoint(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, positionsQuery, a.readKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp.Error)
	}
	data := resp.Data.(map[string]interface{})
	planets := data["planets"].([]interface{})
	if len(planets) != 4 {
		t.Fatalf("expected 4 planets, got %d", len(planets))
	}
	sun := planets[0].(map[string]interface{})
	if sun["sign"] != "Gemini" {
		t.Errorf("expected Sun in Gemini, got %v", sun["sign"])
	}
	if resp.Meta == nil || resp.Meta.RequestID == "" {
		t.Error("expected request ID in meta")
	}
}

func TestAuthenticationRequired(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, positionsQuery, "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED code, got %+v", resp.Error)
	}
}

func TestAuthSourcePrecedence(t *testing.T) {
	a := newTestAPI(t)

	// Bearer token works.
	req := httptest.NewRequest(http.MethodGet, positionsQuery, nil)
	req.Header.Set("Authorization", "Bearer "+a.readKey)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("bearer auth: expected 200, got %d", rec.Code)
	}

	// Query param works.
	rec = a.do(t, http.MethodGet, positionsQuery+"&api_key="+a.readKey, "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("query auth: expected 200, got %d", rec.Code)
	}

	// Header wins over an invalid query param.
	rec = a.do(t, http.MethodGet, positionsQuery+"&api_key=bogus", a.readKey, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("header precedence: expected 200, got %d", rec.Code)
	}
}

func TestWriteKeyCannotRead(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, positionsQuery, a.writeKey, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN code, got %+v", resp.Error)
	}
}

func TestAdminImpliesRead(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, positionsQuery, a.adminKey, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected admin key to read, got %d", rec.Code)
	}
}

func TestValidationFailure(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/positions?year=1850&month=6&day=15&latitude=40.7&longitude=-74.0", a.readKey, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED, got %+v", resp.Error)
	}
}

func TestMissingLocation(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/positions?year=1990&month=6&day=15", a.readKey, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNatalChartEndpoint(t *testing.T) {
	a := newTestAPI(t)

	body := BirthData{
		Year: 1990, Month: 6, Day: 15, Hour: 14, Minute: 30,
		Latitude:  ptr(40.7),
		Longitude: ptr(-74.0),
		Timezone:  "America/New_York",
	}
	rec := a.do(t, http.MethodPost, "/api/v1/natal-chart", a.readKey, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	ch := data["chart"].(map[string]interface{})
	houses := ch["houses"].([]interface{})
	if len(houses) != 12 {
		t.Errorf("expected 12 houses, got %d", len(houses))
	}
	if _, ok := data["arabic_parts"]; !ok {
		t.Error("expected arabic parts in natal chart")
	}
	stats := data["statistics"].(map[string]interface{})
	if stats["retrograde_count"].(float64) != 1 {
		t.Errorf("expected 1 retrograde planet, got %v", stats["retrograde_count"])
	}
}

func TestNatalChartGeocodesCity(t *testing.T) {
	a := newTestAPI(t)

	body := BirthData{
		Year: 1990, Month: 6, Day: 15,
		City: "New York", Nation: "US",
	}
	rec := a.do(t, http.MethodPost, "/api/v1/natal-chart", a.readKey, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	ch := resp.Data.(map[string]interface{})["chart"].(map[string]interface{})
	if ch["latitude"].(float64) != 40.7 {
		t.Errorf("expected resolved latitude 40.7, got %v", ch["latitude"])
	}
	if ch["timezone"] != "America/New_York" {
		t.Errorf("expected resolved timezone, got %v", ch["timezone"])
	}
}

func TestTransitsEndpoint(t *testing.T) {
	a := newTestAPI(t)

	body := TransitsRequest{
		Natal: BirthData{
			Year: 1990, Month: 6, Day: 15,
			Latitude: ptr(40.7), Longitude: ptr(-74.0), Timezone: "UTC",
		},
		Instant: "2026-08-30T12:00:00Z",
	}
	rec := a.do(t, http.MethodPost, "/api/v1/transits", a.readKey, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	if _, ok := data["transits"]; !ok {
		t.Error("expected transit aspects in response")
	}
}

func TestSynastryEndpoint(t *testing.T) {
	a := newTestAPI(t)

	subject := BirthData{
		Year: 1990, Month: 6, Day: 15,
		Latitude: ptr(40.7), Longitude: ptr(-74.0), Timezone: "UTC",
	}
	rec := a.do(t, http.MethodPost, "/api/v1/synastry", a.readKey, SynastryRequest{
		PersonA: subject,
		PersonB: subject,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	score := data["compatibility_score"].(float64)
	if score < 0 || score > 100 {
		t.Errorf("compatibility score out of range: %v", score)
	}
	points := data["composite_points"].([]interface{})
	if len(points) != 4 {
		t.Errorf("expected 4 composite points, got %d", len(points))
	}
}

func TestUpstreamFailure(t *testing.T) {
	a := newTestAPI(t)
	a.provider.failPositions = true

	rec := a.do(t, http.MethodGet, positionsQuery, a.readKey, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for non-upstream compute error, got %d", rec.Code)
	}

	// Errors are never cached: recovery is immediate.
	a.provider.failPositions = false
	rec = a.do(t, http.MethodGet, positionsQuery, a.readKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected recovery after upstream failure, got %d", rec.Code)
	}
}

func TestCachedResponses(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, positionsQuery, a.readKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if a.cache.EntryCount() != 1 {
		t.Fatalf("expected 1 cache entry, got %d", a.cache.EntryCount())
	}

	// Same request again hits the cache.
	a.do(t, http.MethodGet, positionsQuery, a.readKey, nil)
	if a.cache.EntryCount() != 1 {
		t.Errorf("expected cache reuse, got %d entries", a.cache.EntryCount())
	}
	if a.cache.GetStats().Hits < 1 {
		t.Errorf("expected at least one cache hit, got %+v", a.cache.GetStats())
	}
}

func TestHealthEndpoints(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without auth, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	if data["status"] != "ok" {
		t.Errorf("expected ok status, got %v", data["status"])
	}
	if data["active_keys"].(float64) != 3 {
		t.Errorf("expected 3 active keys, got %v", data["active_keys"])
	}

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec = a.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for /metrics, got %d", rec.Code)
	}
}

func ptr(v float64) *float64 {
	return &v
}
