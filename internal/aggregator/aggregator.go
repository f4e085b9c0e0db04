package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/atikulmunna/pageview/internal/model"
)

// Metric selects which count a ranking is ordered by.
type Metric int

const (
	Visits Metric = iota
	UniqueViews
)

func (m Metric) String() string {
	switch m {
	case Visits:
		return "visits"
	case UniqueViews:
		return "unique_views"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// ParseMetric accepts visits or unique_views (also "unique").
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "visits", "visit":
		return Visits, nil
	case "unique_views", "unique-views", "unique", "uniq":
		return UniqueViews, nil
	default:
		return Visits, fmt.Errorf("unknown view %q (want visits or unique_views)", s)
	}
}

// Metrics lists every metric in display order.
func Metrics() []Metric { return []Metric{Visits, UniqueViews} }

// Value extracts the metric's count from c.
func (m Metric) Value(c model.ViewCounts) int {
	if m == UniqueViews {
		return c.UniqueViews
	}
	return c.Visits
}

// PageStat is one ranked row: a page and its count for the requested metric.
type PageStat struct {
	Page  string `json:"page" yaml:"page"`
	Count int    `json:"count" yaml:"count"`
}

// Stats holds the totals across every page.
type Stats struct {
	Pages       int `json:"pages" yaml:"pages"`
	Visits      int `json:"visits" yaml:"visits"`
	UniqueViews int `json:"unique_views" yaml:"unique_views"`
}

// Aggregate derives visit and unique-visitor counts for every page in index.
// It never modifies index, so calling it repeatedly yields identical results.
func Aggregate(index model.PageViewIndex) map[string]model.ViewCounts {
	counts := make(map[string]model.ViewCounts, len(index))
	for page, addrs := range index {
		seen := make(map[string]struct{}, len(addrs))
		for _, a := range addrs {
			seen[a] = struct{}{}
		}
		counts[page] = model.ViewCounts{Visits: len(addrs), UniqueViews: len(seen)}
	}
	return counts
}

// Rank orders pages by metric, highest first. Ties are broken by page path ascending,
// all in a single comparator so the order is total and reproducible.
func Rank(counts map[string]model.ViewCounts, metric Metric) []PageStat {
	rows := make([]PageStat, 0, len(counts))
	for page, c := range counts {
		rows = append(rows, PageStat{Page: page, Count: metric.Value(c)})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Page < rows[j].Page
	})
	return rows
}

// Summarize returns the totals across every page.
func Summarize(counts map[string]model.ViewCounts) Stats {
	s := Stats{Pages: len(counts)}
	for _, c := range counts {
		s.Visits += c.Visits
		s.UniqueViews += c.UniqueViews
	}
	return s
}
