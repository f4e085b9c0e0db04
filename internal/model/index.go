package model

import "sort"

// PageViewIndex maps a page path to every client address that visited it.
// Paths are case and trailing-slash sensitive; addresses keep one entry per visit.
type PageViewIndex map[string][]string

// Add records one visit of address to page.
func (idx PageViewIndex) Add(page, address string) {
	idx[page] = append(idx[page], address)
}

// Merge appends every visit from other into idx.
func (idx PageViewIndex) Merge(other PageViewIndex) {
	for page, addrs := range other {
		idx[page] = append(idx[page], addrs...)
	}
}

// Visits returns the total number of visits across all pages.
func (idx PageViewIndex) Visits() int {
	n := 0
	for _, addrs := range idx {
		n += len(addrs)
	}
	return n
}

// Pages returns the indexed page paths in ascending order.
func (idx PageViewIndex) Pages() []string {
	pages := make([]string, 0, len(idx))
	for page := range idx {
		pages = append(pages, page)
	}
	sort.Strings(pages)
	return pages
}

// ViewCounts holds the derived statistics for one page.
type ViewCounts struct {
	Visits      int `json:"visits" yaml:"visits"`
	UniqueViews int `json:"unique_views" yaml:"unique_views"`
}
