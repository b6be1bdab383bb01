package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/hkbus-eta/config"
	"github.com/theoremus-urban-solutions/hkbus-eta/favourite"
	"github.com/theoremus-urban-solutions/hkbus-eta/internal/hkbustest"
	"github.com/theoremus-urban-solutions/hkbus-eta/registry"
	"github.com/theoremus-urban-solutions/hkbus-eta/store"
	"github.com/theoremus-urban-solutions/hkbus-eta/widget"
)

func testConfig() config.AppConfig {
	return config.AppConfig{
		Server: config.ServerConfig{Port: 0, ReadTimeoutMS: 1000, WriteTimeoutMS: 1000},
		Widget: config.WidgetConfig{Language: "en", Compress: true, Workers: 2},
	}
}

func newTestServer(t *testing.T, loaded bool) *Server {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	reg := registry.New(nil, registry.DefaultOptions())
	if loaded {
		reg.Swap(hkbustest.Index())
	}
	s := New(testConfig(), reg, db, nil)
	s.now = func() time.Time { return time.Date(2024, 1, 8, 10, 5, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestServer(t, true).Handler(), http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[healthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 14, resp.Routes)
	assert.EqualValues(t, 1704067200000, resp.UpdatedTime)

	rec = do(t, newTestServer(t, false).Handler(), http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "loading", decode[healthResponse](t, rec).Status)
}

func TestRouteStops(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, true).Handler()

	rec := do(t, h, http.MethodGet, "/api/routes/stops?route=1A&bound=O&co=kmb", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[routeStopsResponse](t, rec)
	assert.Len(t, resp.Branches, 3)
	require.Len(t, resp.Stops, 7)
	assert.Equal(t, hkbustest.K1, resp.Stops[0].StopID)
	assert.Equal(t, []int{0, 1, 2}, resp.Stops[0].BranchIDs)
	assert.Equal(t, hkbustest.K6, resp.Stops[2].StopID)
	assert.Equal(t, 1, resp.Stops[2].Branch)
	assert.Equal(t, 3, resp.Stops[2].Index)

	rec = do(t, h, http.MethodGet, "/api/routes/stops?route=11&co=gmb&gmbRegion=kln", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[routeStopsResponse](t, rec).Stops, 6)

	rec = do(t, h, http.MethodGet, "/api/routes/stops?route=1A", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "route and co are required")
}

func TestAddFavourite(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, true).Handler()
	tests := []struct {
		name  string
		body  string
		code  int
		index int
	}{
		{"first occurrence", `{"routeKey":"1A+1+kmb+O","stopId":"KMB0000000000003"}`, http.StatusCreated, 4},
		{"explicit index", `{"routeKey":"1A+1+kmb+O","stopId":"KMB0000000000003","index":4,"favouriteStopMode":"closest"}`, http.StatusCreated, 4},
		{"wrong index", `{"routeKey":"1A+1+kmb+O","stopId":"KMB0000000000003","index":2}`, http.StatusBadRequest, 0},
		{"stop not on route", `{"routeKey":"1A+1+kmb+O","stopId":"20000001"}`, http.StatusBadRequest, 0},
		{"unknown route", `{"routeKey":"999+1+kmb+O","stopId":"KMB0000000000003"}`, http.StatusBadRequest, 0},
		{"wrong operator", `{"routeKey":"1A+1+kmb+O","stopId":"KMB0000000000003","co":"ctb"}`, http.StatusBadRequest, 0},
		{"missing stop", `{"routeKey":"1A+1+kmb+O"}`, http.StatusBadRequest, 0},
		{"malformed", `{"routeKey":`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		rec := do(t, h, http.MethodPost, "/api/favourites", tt.body)
		require.Equal(t, tt.code, rec.Code, "%s: %s", tt.name, rec.Body.String())
		if tt.code != http.StatusCreated {
			continue
		}
		fav := decode[favourite.RouteStop](t, rec)
		assert.Equal(t, tt.index, fav.Index, tt.name)
		assert.Equal(t, "Stop C", fav.Stop.Name.En, tt.name)
	}

	rec := do(t, h, http.MethodGet, "/api/favourites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	favs := decode[[]favourite.RouteStop](t, rec)
	require.Len(t, favs, 2)
	assert.Equal(t, []int{1, 2}, []int{favs[0].ID, favs[1].ID})
	assert.Equal(t, favourite.ModeFixed, favs[0].Mode)
	assert.Equal(t, favourite.ModeClosest, favs[1].Mode)
}

func TestListFavouritesEmpty(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestServer(t, true).Handler(), http.MethodGet, "/api/favourites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestWidgetAndDisplay(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, true)
	h := s.Handler()
	rec := do(t, h, http.MethodPost, "/api/favourites", `{"routeKey":"1A+1+kmb+O","stopId":"KMB0000000000003"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/favourites/1/display", "")
	require.Equal(t, http.StatusNotFound, rec.Code, "no snapshot before the first widget build")

	rec = do(t, h, http.MethodGet, "/api/favourites/1/widget", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	info := decode[widget.PlatformInfo](t, rec)
	assert.Equal(t, "1A", info.RouteNumber)
	assert.Equal(t, "Choi Wan", info.Dest)
	assert.Equal(t, "4. Stop C", info.SecondLine)
	etag := rec.Header().Get("ETag")
	assert.Equal(t, `"`+info.Fingerprint+`"`, etag)

	stored, err := s.store.Snapshot(1)
	require.NoError(t, err)
	data, err := widget.Decode(stored.Payload)
	require.NoError(t, err)
	assert.Equal(t, []string{hkbustest.K3, hkbustest.K7}, data.KMBStopIDs)

	rec = do(t, h, http.MethodGet, "/api/favourites/1/widget", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	rec = do(t, h, http.MethodGet, "/api/favourites/1/widget?lang=zh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "彩雲", decode[widget.PlatformInfo](t, rec).Dest)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))

	rec = do(t, h, http.MethodGet, "/api/favourites/1/display?lat=22.3&lng=114.17", "")
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[widget.Display](t, rec)
	assert.Equal(t, "4. 丙站", d.ResolvedStopName)
	assert.Equal(t, "更新時間: 10:05", d.LastUpdatedLabel)

	for target, code := range map[string]int{
		"/api/favourites/1/widget?lang=fr":      http.StatusBadRequest,
		"/api/favourites/abc/widget":            http.StatusBadRequest,
		"/api/favourites/99/widget":             http.StatusNotFound,
		"/api/favourites/1/display?lat=north":   http.StatusBadRequest,
		"/api/favourites/0/display?lat=1&lng=2": http.StatusBadRequest,
	} {
		assert.Equal(t, code, do(t, h, http.MethodGet, target, "").Code, target)
	}
}

func TestWidgetWithoutData(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, false)
	routes, _ := hkbustest.Routes()
	_, err := s.store.AddFavourite(favourite.RouteStop{StopID: hkbustest.K3, Co: "kmb", Index: 4, Route: routes[hkbustest.Route1AMain]})
	require.NoError(t, err)

	rec := do(t, s.Handler(), http.MethodGet, "/api/favourites/1/widget", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestResolveFavourites(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, true).Handler()
	for _, body := range []string{
		`{"routeKey":"1A+1+kmb+O","stopId":"KMB0000000000001","favouriteStopMode":"CLOSEST"}`,
		`{"routeKey":"1A+1+kmb+I","stopId":"KMB0000000000005","favouriteStopMode":"CLOSEST"}`,
		`{"routeKey":"11+1+gmb+O+KLN","stopId":"20000001","favouriteStopMode":"CLOSEST"}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/favourites", body).Code)
	}

	rec := do(t, h, http.MethodGet, "/api/favourites/resolve?lat=22.3011&lng=114.1701", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[[]resolution](t, rec)
	require.Len(t, res, 3)

	require.NotNil(t, res[0].Stop)
	assert.Equal(t, hkbustest.K2, res[0].Stop.StopID)
	assert.Equal(t, 2, res[0].Stop.Index)
	require.NotNil(t, res[1].Stop)
	assert.Equal(t, hkbustest.K2, res[1].Stop.StopID)
	assert.Equal(t, 4, res[1].Stop.Index)
	assert.Nil(t, res[2].Stop, "minibus stops are too far away")
}

func TestDeleteFavourite(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, true).Handler()
	require.Equal(t, http.StatusCreated,
		do(t, h, http.MethodPost, "/api/favourites", `{"routeKey":"1A+1+kmb+O","stopId":"KMB0000000000002"}`).Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/favourites/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/favourites/1", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, true).Handler()
	do(t, h, http.MethodGet, "/api/health", "")
	do(t, h, http.MethodGet, "/api/nowhere", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `hkbuseta_http_requests_total{code="200",path="GET /api/health"} 1`)
	assert.Contains(t, body, `hkbuseta_http_requests_total{code="404",path="unmatched"} 1`)
}

func TestStartAndShutdown(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, true)
	require.NoError(t, s.Start())
	require.NotEmpty(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/api/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.WaitForShutdown(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	_, err = http.Get("http://" + s.Addr() + "/api/health")
	assert.Error(t, err)
}
