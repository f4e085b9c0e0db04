// Package metrics exposes ingestion results as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atikulmunna/pageview/internal/model"
	"github.com/atikulmunna/pageview/internal/report"
)

const namespace = "pageview"

// Handler owns a private registry so several servers can coexist in one process.
type Handler struct {
	registry *prometheus.Registry

	IngestRuns       *prometheus.CounterVec
	IngestDuration   prometheus.Histogram
	LinesTotal       *prometheus.GaugeVec
	Warnings         *prometheus.GaugeVec
	SourceFailures   prometheus.Gauge
	Pages            prometheus.Gauge
	Visits           prometheus.Gauge
	UniqueViews      prometheus.Gauge
	RequestsReceived *prometheus.CounterVec
}

// New registers every metric on a fresh registry.
func New() *Handler {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Handler{
		registry: reg,
		IngestRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "The total number of ingestion passes",
		}, []string{"success"}),
		IngestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "The duration of ingestion passes",
			Buckets:   prometheus.DefBuckets,
		}),
		LinesTotal: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lines",
			Help:      "Lines classified by the last ingestion pass",
		}, []string{"outcome"}),
		Warnings: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "warnings",
			Help:      "Warnings raised by the last ingestion pass",
		}, []string{"reason"}),
		SourceFailures: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_failures",
			Help:      "Sources the last ingestion pass could not read",
		}),
		Pages: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pages",
			Help:      "Distinct pages in the last report",
		}),
		Visits: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visits",
			Help:      "Total visits in the last report",
		}),
		UniqueViews: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unique_views",
			Help:      "Total unique views in the last report",
		}),
		RequestsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_received",
			Help:      "The total number of http requests received",
		}, []string{"status"}),
	}
}

// Registry returns the registry the metrics live on.
func (h *Handler) Registry() *prometheus.Registry {
	return h.registry
}

// HTTPHandler serves the registry in the Prometheus exposition format.
func (h *Handler) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{Registry: h.registry})
}

// ObserveIngest records one ingestion pass. rep is nil when the pass failed.
func (h *Handler) ObserveIngest(rep *report.Report, duration time.Duration) {
	h.IngestDuration.Observe(duration.Seconds())
	h.IngestRuns.WithLabelValues(strconv.FormatBool(rep != nil)).Inc()
	if rep == nil {
		return
	}

	var accepted, rejected int
	for _, s := range rep.Sources {
		accepted += s.Accepted
		rejected += s.Rejected
	}
	h.LinesTotal.WithLabelValues("accepted").Set(float64(accepted))
	h.LinesTotal.WithLabelValues("rejected").Set(float64(rejected))

	for _, reason := range model.Reasons() {
		h.Warnings.WithLabelValues(reason.String()).Set(0)
	}
	for _, t := range rep.Warnings.ByReason {
		h.Warnings.WithLabelValues(t.Reason.String()).Set(float64(t.Count))
	}

	h.SourceFailures.Set(float64(len(rep.Warnings.Failures)))
	h.Pages.Set(float64(rep.Totals.Pages))
	h.Visits.Set(float64(rep.Totals.Visits))
	h.UniqueViews.Set(float64(rep.Totals.UniqueViews))
}

// IncRequests counts one served HTTP request by status code.
func (h *Handler) IncRequests(status int) {
	h.RequestsReceived.WithLabelValues(strconv.Itoa(status)).Inc()
}
