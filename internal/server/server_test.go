package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/pageview/internal/aggregator"
	"github.com/atikulmunna/pageview/internal/reader"
	"github.com/atikulmunna/pageview/internal/report"
	"github.com/atikulmunna/pageview/internal/validation"
)

type fakeLoader struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (f *fakeLoader) load(ctx context.Context) (*report.Report, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return nil, errors.New("source access.log: permission denied")
	}

	cfg := reader.DefaultConfig()
	cfg.Address = validation.AddressV4
	r, err := reader.New(cfg, nil, nil)
	if err != nil {
		return nil, err
	}
	res, err := r.Ingest(ctx, []reader.Source{reader.LineSource{Label: "access.log", Lines: []string{
		"/home 1.1.1.1",
		"/home 1.1.1.1",
		"/home 2.2.2.2",
		"/about 3.3.3.3",
		"/contact 999.1.1.1",
	}}})
	if err != nil {
		return nil, err
	}
	return report.Build(res), nil
}

func newTestServer(t *testing.T, ttl time.Duration) (*Server, *fakeLoader) {
	t.Helper()
	fl := &fakeLoader{}
	return New(fl.load, nil, nil, Options{CacheTTL: ttl}), fl
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, 0)

	rec := do(t, s, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["cached"])
}

func TestReportIsCached(t *testing.T) {
	s, fl := newTestServer(t, time.Minute)

	for i := 0; i < 3; i++ {
		rec := do(t, s, http.MethodGet, "/api/report")
		require.Equal(t, http.StatusOK, rec.Code)

		var rep report.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
		assert.Equal(t, 4, rep.Totals.Visits)
		assert.Equal(t, 1, rep.Warnings.Total)
	}
	assert.Equal(t, int32(1), fl.calls.Load())
}

func TestReportFormats(t *testing.T) {
	s, _ := newTestServer(t, 0)

	rec := do(t, s, http.MethodGet, "/api/report?format=yaml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "yaml")
	assert.Contains(t, rec.Body.String(), "invalid_address")

	rec = do(t, s, http.MethodGet, "/api/report?format=text")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/home 3 visits")

	rec = do(t, s, http.MethodGet, "/api/report?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPages(t *testing.T) {
	s, _ := newTestServer(t, 0)

	rec := do(t, s, http.MethodGet, "/api/pages?view=unique_views&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		View  string                `json:"view"`
		Pages []aggregator.PageStat `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unique_views", body.View)
	assert.Equal(t, []aggregator.PageStat{{Page: "/home", Count: 2}}, body.Pages)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/pages?view=bounces").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/pages?limit=-1").Code)
}

func TestWarnings(t *testing.T) {
	s, _ := newTestServer(t, 0)

	rec := do(t, s, http.MethodGet, "/api/warnings")
	require.Equal(t, http.StatusOK, rec.Code)

	var w report.Warnings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w))
	require.Len(t, w.Records, 1)
	assert.Equal(t, "access.log", w.Records[0].File)
}

func TestRefreshReloads(t *testing.T) {
	s, fl := newTestServer(t, 0)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/report").Code)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/refresh").Code)
	assert.Equal(t, int32(2), fl.calls.Load())
}

func TestLoaderFailure(t *testing.T) {
	s, fl := newTestServer(t, 0)
	fl.fail.Store(true)

	rec := do(t, s, http.MethodGet, "/api/report")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "permission denied")

	rec = do(t, s, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, 0)
	do(t, s, http.MethodGet, "/api/report")

	rec := do(t, s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pageview_visits 4")
	assert.Contains(t, rec.Body.String(), `pageview_http_requests_received{status="200"}`)
}

func TestWebSocketPushesReports(t *testing.T) {
	s, _ := newTestServer(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.Start(ctx)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first report.Report
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, 4, first.Totals.Visits)

	_, err = s.Refresh(context.Background())
	require.NoError(t, err)

	var second report.Report
	require.NoError(t, conn.ReadJSON(&second))
	assert.True(t, !second.GeneratedAt.Before(first.GeneratedAt))
}
