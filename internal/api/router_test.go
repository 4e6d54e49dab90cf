package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
	"ward-pickup-service/internal/adapters/repositories"
	"ward-pickup-service/internal/api/auth"
	"ward-pickup-service/internal/api/dto"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/platform/db"
	"ward-pickup-service/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("router-test-secret")

type testServer struct {
	handler http.Handler
	tokens  map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, repositories.InitSchema(conn))

	store := repositories.NewSqliteStore(conn)
	accounts := []domain.Account{
		{ID: "citizen-1", Role: domain.RoleCitizen, WardNumber: "4", HouseNumber: "H-1", Location: &domain.Location{Lat: 26.10, Lng: 91.70}},
		{ID: "citizen-2", Role: domain.RoleCitizen, WardNumber: "4", HouseNumber: "H-2"},
		{ID: "collector-1", Role: domain.RoleCollector, WardNumber: "4"},
	}
	ts := &testServer{tokens: map[string]string{}}
	for _, acc := range accounts {
		require.NoError(t, store.Accounts().Put(context.Background(), acc))
		tok, err := auth.SignToken(testSecret, acc.ID, string(acc.Role), time.Hour)
		require.NoError(t, err)
		ts.tokens[acc.ID] = tok
	}

	ts.handler = NewRouter(Deps{
		Lifecycle:   services.NewPickupLifecycle(store.Accounts(), store.Pickups(), store),
		Engine:      services.NewRouteEngine(store.Accounts(), store.Pickups(), services.DefaultDepot),
		Ledger:      services.NewIncentiveLedger(store.Incentives()),
		JWTSecret:   testSecret,
		CORSOrigins: []string{"http://localhost:5173"},
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, as string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+ts.tokens[as])
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) createPickup(t *testing.T, as string, body map[string]any) dto.PickupResponse {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/pickups", as, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.PickupResponse](t, rec)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUnauthenticatedIs401(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/pickups", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePickupEndpoint(t *testing.T) {
	ts := newTestServer(t)

	p := ts.createPickup(t, "citizen-1", map[string]any{
		"wasteType": "wet", "pickupTime": "2026-03-02T08:00:00Z", "overflow": true,
	})
	assert.Equal(t, "pending", p.Status)
	assert.Equal(t, "4", p.WardNumber)
	require.NotNil(t, p.Location)

	rec := ts.do(t, http.MethodPost, "/api/pickups", "citizen-1", map[string]any{"overflow": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode[map[string]string](t, rec)["code"])

	rec = ts.do(t, http.MethodPost, "/api/pickups", "collector-1", map[string]any{
		"wasteType": "wet", "pickupTime": "2026-03-02T08:00:00Z",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/pickups", "citizen-1", map[string]any{"wardNumber": "99"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePickupLocationInput(t *testing.T) {
	ts := newTestServer(t)
	registered := domain.Location{Lat: 26.10, Lng: 91.70}

	cases := []struct {
		name string
		body map[string]any
		want domain.Location
	}{
		{
			name: "nested location",
			body: map[string]any{"location": map[string]any{"lat": 26.15, "lng": 91.75}},
			want: domain.Location{Lat: 26.15, Lng: 91.75},
		},
		{
			name: "flat lat lng",
			body: map[string]any{"lat": 26.2, "lng": 91.8},
			want: domain.Location{Lat: 26.2, Lng: 91.8},
		},
		{
			name: "string lat falls back",
			body: map[string]any{"lat": "26.15", "lng": 91.75},
			want: registered,
		},
		{
			name: "nested string lat falls back",
			body: map[string]any{"location": map[string]any{"lat": "26.15", "lng": 91.75}},
			want: registered,
		},
		{
			name: "partial pair falls back",
			body: map[string]any{"location": map[string]any{"lat": 26.15}},
			want: registered,
		},
		{
			name: "location not an object falls back",
			body: map[string]any{"location": "near the market"},
			want: registered,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.body["wasteType"] = "dry"
			tc.body["pickupTime"] = "2026-03-02T08:00:00Z"

			p := ts.createPickup(t, "citizen-1", tc.body)
			require.NotNil(t, p.Location)
			assert.Equal(t, tc.want, *p.Location)
		})
	}
}

func TestListPickupsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.createPickup(t, "citizen-1", map[string]any{"wasteType": "wet", "pickupTime": "2026-03-03T08:00:00Z"})
	ts.createPickup(t, "citizen-2", map[string]any{"wasteType": "dry", "pickupTime": "2026-03-02T08:00:00Z"})

	rec := ts.do(t, http.MethodGet, "/api/pickups", "collector-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]dto.PickupResponse](t, rec)
	require.Len(t, list, 2)
	assert.True(t, list[0].PickupTime.Before(list[1].PickupTime))

	rec = ts.do(t, http.MethodGet, "/api/pickups?status=pending", "citizen-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]dto.PickupResponse](t, rec), 1)

	rec = ts.do(t, http.MethodGet, "/api/pickups?status=bogus", "citizen-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyCompleteCancelEndpoints(t *testing.T) {
	ts := newTestServer(t)
	p := ts.createPickup(t, "citizen-1", map[string]any{"wasteType": "dry", "pickupTime": "2026-03-02T08:00:00Z"})

	rec := ts.do(t, http.MethodPatch, "/api/pickups/missing/verify", "collector-1", map[string]any{"verified": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/pickups/"+p.ID+"/verify", "collector-1", map[string]any{"verified": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[dto.VerifyPickupResponse](t, rec).Pickup.SegregationVerified)

	rec = ts.do(t, http.MethodPatch, "/api/pickups/"+p.ID+"/cancel", "citizen-2", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/pickups/missing/complete", "collector-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/pickups/"+p.ID+"/complete", "collector-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[dto.CompletePickupResponse](t, rec)
	assert.Equal(t, "completed", done.Pickup.Status)
	require.NotNil(t, done.Incentive)
	assert.Equal(t, 8, done.Incentive.Points)

	rec = ts.do(t, http.MethodPatch, "/api/pickups/"+p.ID+"/cancel", "citizen-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cannot cancel a completed pickup", decode[map[string]string](t, rec)["message"])

	rec = ts.do(t, http.MethodGet, "/api/incentives/me", "citizen-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"citizenId":"citizen-1","points":8}`, rec.Body.String())
}

func TestCancelEndpoint(t *testing.T) {
	ts := newTestServer(t)
	p := ts.createPickup(t, "citizen-1", map[string]any{"wasteType": "wet", "pickupTime": "2026-03-02T08:00:00Z"})

	rec := ts.do(t, http.MethodPatch, "/api/pickups/"+p.ID+"/cancel", "citizen-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[dto.CancelPickupResponse](t, rec)
	assert.Equal(t, "Pickup cancelled successfully", res.Message)
	assert.Equal(t, "cancelled", res.Pickup.Status)
}

func TestRouteEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.createPickup(t, "citizen-2", map[string]any{"wasteType": "dry", "pickupTime": "2026-03-02T08:00:00Z", "lat": 26.20, "lng": 91.80})
	a := ts.createPickup(t, "citizen-1", map[string]any{"wasteType": "wet", "pickupTime": "2026-03-02T09:00:00Z", "overflow": true})

	rec := ts.do(t, http.MethodGet, "/api/route", "citizen-1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/route", "collector-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[dto.RouteResponse](t, rec)

	assert.Equal(t, "4", res.Meta.WardNumber)
	assert.Equal(t, 2, res.Meta.TotalStops)
	require.Len(t, res.Route, 2)
	assert.Equal(t, a.ID, res.Route[0].PickupID)
	assert.Equal(t, 1, res.Route[0].Sequence)
	assert.True(t, res.Route[0].Overflow)
	assert.False(t, res.Route[1].Overflow)
}

func TestIncentiveByCitizenDefaultsToZero(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/incentives/citizen-2", "collector-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"citizenId":"citizen-2","points":0}`, rec.Body.String())
}
