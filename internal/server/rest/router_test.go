package rest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/sitepins/internal/localstore"
	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/metrics"
	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/dmitrijs2005/sitepins/internal/tracker"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, start bool) (*httptest.Server, *tracker.Tracker) {
	t.Helper()
	clock := func() time.Time { return testNow }

	store, err := localstore.NewMemory(localstore.Options{Now: clock}, logging.Discard())
	require.NoError(t, err)

	tr := tracker.New(store, tracker.Options{Now: clock}, logging.Discard())
	if start {
		require.NoError(t, tr.Start(context.Background()))
	}

	srv := httptest.NewServer(NewRouter(tr, metrics.New(true), logging.Discard(), nil).Setup())
	t.Cleanup(srv.Close)
	return srv, tr
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

const createBody = `{
	"title": "Fuite",
	"description": "Eau sous l'évier",
	"urgency": "très urgent",
	"group": "maintenance",
	"location": {"type": "map", "lat": 43.9475, "lng": 4.535}
}`

func TestHealthAndReady(t *testing.T) {
	srv, tr := newTestServer(t, false)

	resp, _ := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, tr.Start(context.Background()))
	resp, _ = do(t, srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIUnavailableUntilStarted(t *testing.T) {
	srv, tr := newTestServer(t, false)

	resp, body := do(t, srv, http.MethodPost, "/api/points", createBody)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), tracker.ErrNotReady.Error())

	resp, _ = do(t, srv, http.MethodGet, "/api/points", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodPost, "/api/import", `{"points":[]}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int64(1), tr.IDCounter())

	require.NoError(t, tr.Start(context.Background()))
	resp, body = do(t, srv, http.MethodPost, "/api/points", createBody)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
}

func TestCreateAndGetPoint(t *testing.T) {
	srv, _ := newTestServer(t, true)

	resp, body := do(t, srv, http.MethodPost, "/api/points", createBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created pointResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, models.GroupMaintenance, created.Group)
	assert.Equal(t, models.ColorRed, created.Color)
	assert.Equal(t, "Carte extérieure", created.LocationLabel)
	assert.Contains(t, created.DirectionsURL, "destination=43.9475,4.535")
	assert.Equal(t, "0 s", created.Elapsed)

	resp, body = do(t, srv, http.MethodGet, "/api/points/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got pointResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, created, got)

	resp, _ = do(t, srv, http.MethodGet, "/api/points/99", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/api/points/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreatePoint_Validation(t *testing.T) {
	srv, tr := newTestServer(t, true)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"missing title", `{"description":"d","location":{"type":"map","lat":1,"lng":2}}`},
		{"blank title", `{"title":"   ","description":"d","location":{"type":"map","lat":1,"lng":2}}`},
		{"bad urgency", `{"title":"t","description":"d","urgency":"meh","location":{"type":"map","lat":1,"lng":2}}`},
		{"no location", `{"title":"t","description":"d"}`},
		{"map without lat", `{"title":"t","description":"d","location":{"type":"map","lng":2}}`},
		{"plan without index", `{"title":"t","description":"d","location":{"type":"plan","relX":0.1}}`},
		{"plan out of range", `{"title":"t","description":"d","location":{"type":"plan","planIndex":3}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, srv, http.MethodPost, "/api/points", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

			var e errorResponse
			require.NoError(t, json.Unmarshal(body, &e))
			assert.NotEmpty(t, e.Error)
		})
	}

	assert.Equal(t, int64(1), tr.IDCounter())
}

func TestCreatePoint_Plan(t *testing.T) {
	srv, _ := newTestServer(t, true)

	resp, body := do(t, srv, http.MethodPost, "/api/points",
		`{"title":"t","description":"d","location":{"type":"plan","planIndex":1}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var p pointResponse
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "Plan bâtiment – Étage 1", p.LocationLabel)
	assert.Empty(t, p.DirectionsURL)
	require.NotNil(t, p.Location.RelX)
	assert.Equal(t, 0.5, *p.Location.RelX)
	assert.Equal(t, models.UrgencyLow, p.Urgency)
	assert.Equal(t, models.GroupUnknown, p.Group)
}

func TestCommentReclassifyResolve(t *testing.T) {
	srv, tr := newTestServer(t, true)

	resp, _ := do(t, srv, http.MethodPost, "/api/points", createBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := do(t, srv, http.MethodPost, "/api/points/1/comments", `{"text":"on it"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var p pointResponse
	require.NoError(t, json.Unmarshal(body, &p))
	require.Len(t, p.Comments, 1)
	assert.Equal(t, "on it", p.Comments[0].Text)

	resp, _ = do(t, srv, http.MethodPost, "/api/points/1/comments", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/api/points/7/comments", `{"text":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPut, "/api/points/1/group", `{"group":"Sécurité"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, models.GroupSecurity, p.Group)

	resp, body = do(t, srv, http.MethodDelete, "/api/points/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &p))
	assert.NotEmpty(t, p.DeletedAt)
	assert.Equal(t, "0 s", p.OpenFor)

	resp, _ = do(t, srv, http.MethodDelete, "/api/points/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/api/resolved", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list listResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 1, list.Total)

	active, resolved := tr.Counts()
	assert.Equal(t, 0, active)
	assert.Equal(t, 1, resolved)
}

func TestListPoints_SortAndFilter(t *testing.T) {
	srv, _ := newTestServer(t, true)

	for _, b := range []string{
		`{"title":"a","description":"d","urgency":"peu urgent","group":"Boutique","location":{"type":"map","lat":1,"lng":2}}`,
		`{"title":"b","description":"d","urgency":"très urgent","group":"Accueil","location":{"type":"map","lat":1,"lng":2}}`,
		`{"title":"c","description":"d","urgency":"urgent","group":"Boutique","location":{"type":"map","lat":1,"lng":2}}`,
	} {
		resp, _ := do(t, srv, http.MethodPost, "/api/points", b)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := do(t, srv, http.MethodGet, "/api/points", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list listResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Equal(t, 3, list.Total)
	assert.Equal(t, "b", list.Points[0].Title)
	assert.Equal(t, "c", list.Points[1].Title)

	resp, body = do(t, srv, http.MethodGet, "/api/points?groups=boutique", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 2, list.Total)

	resp, _ = do(t, srv, http.MethodGet, "/api/points?sort=random", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryAndGroups(t *testing.T) {
	srv, _ := newTestServer(t, true)

	resp, _ := do(t, srv, http.MethodPost, "/api/points", createBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := do(t, srv, http.MethodGet, "/api/history?group=Maintenance", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []historyItemDTO
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusOpen, items[0].Status)

	resp, _ = do(t, srv, http.MethodGet, "/api/history", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/api/groups", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var groups groupsResponse
	require.NoError(t, json.Unmarshal(body, &groups))
	assert.Equal(t, models.Groups(), groups.Groups)
	assert.Len(t, groups.Urgencies, 3)
}

func TestExportImport(t *testing.T) {
	src, _ := newTestServer(t, true)
	resp, _ := do(t, src, http.MethodPost, "/api/points", createBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, blob := do(t, src, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="`+tracker.ExportFilename(testNow)+`"`, resp.Header.Get("Content-Disposition"))

	dst, tr := newTestServer(t, true)
	resp, body := do(t, dst, http.MethodPost, "/api/import", string(blob))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var res importResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, 1, res.Active)
	assert.Equal(t, int64(2), res.IDCounter)

	_, ok := tr.Get(1)
	assert.True(t, ok)

	resp, _ = do(t, dst, http.MethodPost, "/api/import", `{"nope":true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, true)

	do(t, srv, http.MethodGet, "/health", "")
	resp, body := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "sitepins_http_requests_total")
}
