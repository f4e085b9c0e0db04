// Package report joins the aggregated page counts and the warning summary of one
// ingestion pass into a single value for renderers and the HTTP API.
package report

import (
	"time"

	"github.com/atikulmunna/pageview/internal/aggregator"
	"github.com/atikulmunna/pageview/internal/model"
	"github.com/atikulmunna/pageview/internal/reader"
	"github.com/atikulmunna/pageview/internal/warnings"
)

// View is one ranked listing, e.g. page visits.
type View struct {
	Metric     aggregator.Metric     `json:"-" yaml:"-"`
	Name       string                `json:"name" yaml:"name"`
	Title      string                `json:"title" yaml:"title"`
	Descriptor string                `json:"descriptor" yaml:"descriptor"`
	Pages      []aggregator.PageStat `json:"pages" yaml:"pages"`
}

// Warnings is the warning summary at every level of detail.
type Warnings struct {
	Total    int                      `json:"total" yaml:"total"`
	ByReason []warnings.ReasonTotal   `json:"by_reason" yaml:"by_reason"`
	Records  []model.WarningRecord    `json:"records" yaml:"records"`
	Failures []warnings.SourceFailure `json:"source_failures" yaml:"source_failures"`
}

// Report is the complete outcome of one run.
type Report struct {
	GeneratedAt time.Time                   `json:"generated_at" yaml:"generated_at"`
	Sources     []reader.SourceStat         `json:"sources" yaml:"sources"`
	Totals      aggregator.Stats            `json:"totals" yaml:"totals"`
	Counts      map[string]model.ViewCounts `json:"counts" yaml:"counts"`
	Views       []View                      `json:"views" yaml:"views"`
	Warnings    Warnings                    `json:"warnings" yaml:"warnings"`
}

var (
	titles = map[aggregator.Metric]string{
		aggregator.Visits:      "Page Visits",
		aggregator.UniqueViews: "Unique Page Views",
	}
	descriptors = map[aggregator.Metric]string{
		aggregator.Visits:      "visit",
		aggregator.UniqueViews: "unique view",
	}
)

// Build aggregates res and ranks it for each requested metric, in the order given.
// With no metrics, both visits and unique views are included.
func Build(res *reader.Result, metrics ...aggregator.Metric) *Report {
	if len(metrics) == 0 {
		metrics = aggregator.Metrics()
	}

	counts := aggregator.Aggregate(res.Index)
	rep := &Report{
		GeneratedAt: time.Now().UTC(),
		Sources:     res.Sources,
		Totals:      aggregator.Summarize(counts),
		Counts:      counts,
		Warnings: Warnings{
			Total:    res.Warnings.Total(),
			ByReason: res.Warnings.ReasonTotals(),
			Records:  res.Warnings.Summary(),
			Failures: res.Warnings.Failures(),
		},
	}

	for _, m := range metrics {
		rep.Views = append(rep.Views, View{
			Metric:     m,
			Name:       m.String(),
			Title:      titles[m],
			Descriptor: descriptors[m],
			Pages:      aggregator.Rank(counts, m),
		})
	}
	return rep
}

// View returns the listing for metric, if the report includes it.
func (r *Report) View(metric aggregator.Metric) (View, bool) {
	for _, v := range r.Views {
		if v.Metric == metric {
			return v, true
		}
	}
	return View{}, false
}
