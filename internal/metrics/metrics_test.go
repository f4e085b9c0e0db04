package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/pageview/internal/aggregator"
	"github.com/atikulmunna/pageview/internal/model"
	"github.com/atikulmunna/pageview/internal/reader"
	"github.com/atikulmunna/pageview/internal/report"
	"github.com/atikulmunna/pageview/internal/warnings"
)

func TestObserveIngest(t *testing.T) {
	h := New()
	rep := &report.Report{
		Sources: []reader.SourceStat{{Name: "a.log", Lines: 5, Accepted: 3, Rejected: 2}},
		Totals:  aggregator.Stats{Pages: 2, Visits: 3, UniqueViews: 2},
		Warnings: report.Warnings{
			Total:    2,
			ByReason: []warnings.ReasonTotal{{Reason: model.ReasonInvalidAddress, Count: 2}},
			Failures: []warnings.SourceFailure{{File: "b.log", Error: "missing"}},
		},
	}

	h.ObserveIngest(rep, 10*time.Millisecond)
	h.ObserveIngest(nil, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.IngestRuns.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.IngestRuns.WithLabelValues("false")))
	assert.Equal(t, 3.0, testutil.ToFloat64(h.LinesTotal.WithLabelValues("accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.LinesTotal.WithLabelValues("rejected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.Warnings.WithLabelValues("invalid_address")))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.Warnings.WithLabelValues("invalid_path")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.SourceFailures))
	assert.Equal(t, 3.0, testutil.ToFloat64(h.Visits))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.UniqueViews))
}

func TestHandlersAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.IncRequests(http.StatusOK)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.RequestsReceived.WithLabelValues("200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RequestsReceived.WithLabelValues("200")))
}

func TestHTTPHandler(t *testing.T) {
	h := New()
	h.ObserveIngest(&report.Report{Totals: aggregator.Stats{Pages: 4}}, time.Millisecond)

	rec := httptest.NewRecorder()
	h.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pageview_pages 4")
}
