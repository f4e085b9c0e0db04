// Package warnings accumulates per-file rejection counts produced during ingestion.
package warnings

import "github.com/atikulmunna/pageview/internal/model"

// SourceFailure records a source that could not be read.
type SourceFailure struct {
	File  string `json:"file" yaml:"file"`
	Error string `json:"error" yaml:"error"`
}

// ReasonTotal is the count of one reason across all files.
type ReasonTotal struct {
	Reason model.Reason `json:"reason" yaml:"reason"`
	Count  int          `json:"count" yaml:"count"`
}

// Collector keeps one counter per (file, reason) pair rather than one entry per line.
// Files are reported in the order they were first seen.
type Collector struct {
	files    []string
	counts   map[string]*[model.NumReasons]int
	failures []SourceFailure
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{counts: make(map[string]*[model.NumReasons]int)}
}

// Record counts one rejected record from file.
func (c *Collector) Record(file string, reason model.Reason) {
	c.add(file, reason, 1)
}

// Fail records that file could not be read.
func (c *Collector) Fail(file string, err error) {
	c.failures = append(c.failures, SourceFailure{File: file, Error: err.Error()})
}

// Summary returns every non-zero counter grouped by file, then by reason.
func (c *Collector) Summary() []model.WarningRecord {
	var out []model.WarningRecord
	for _, file := range c.files {
		counts := c.counts[file]
		for _, reason := range model.Reasons() {
			if n := counts[reason]; n > 0 {
				out = append(out, model.WarningRecord{File: file, Reason: reason, Count: n})
			}
		}
	}
	return out
}

// ReasonTotals returns the count per reason across all files, in reason order.
// Reasons with no warnings are omitted.
func (c *Collector) ReasonTotals() []ReasonTotal {
	var totals [model.NumReasons]int
	for _, counts := range c.counts {
		for i, n := range counts {
			totals[i] += n
		}
	}

	var out []ReasonTotal
	for _, reason := range model.Reasons() {
		if totals[reason] > 0 {
			out = append(out, ReasonTotal{Reason: reason, Count: totals[reason]})
		}
	}
	return out
}

// Total returns the number of warnings recorded.
func (c *Collector) Total() int {
	n := 0
	for _, counts := range c.counts {
		for _, v := range counts {
			n += v
		}
	}
	return n
}

// Failures returns the unreadable sources in the order they were reported.
func (c *Collector) Failures() []SourceFailure {
	return append([]SourceFailure(nil), c.failures...)
}

// Merge folds other into c. Files new to c are appended after c's own files,
// so merging partial collectors in source order restores ingestion order.
func (c *Collector) Merge(other *Collector) {
	if other == nil {
		return
	}
	for _, file := range other.files {
		for i, n := range other.counts[file] {
			if n > 0 {
				c.add(file, model.Reason(i), n)
			}
		}
	}
	c.failures = append(c.failures, other.failures...)
}

func (c *Collector) add(file string, reason model.Reason, n int) {
	counts, ok := c.counts[file]
	if !ok {
		counts = new([model.NumReasons]int)
		c.counts[file] = counts
		c.files = append(c.files, file)
	}
	counts[reason] += n
}
