package reader

import (
	"io"
	"os"
	"strings"
)

// Source is a named stream of log lines.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// FileSource reads lines from a file on disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Open() (io.ReadCloser, error) { return os.Open(s.Path) }

// Files wraps each path in a FileSource, keeping order.
func Files(paths ...string) []Source {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, FileSource{Path: p})
	}
	return sources
}

// LineSource serves lines already held in memory.
type LineSource struct {
	Label string
	Lines []string
}

func (s LineSource) Name() string { return s.Label }

func (s LineSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(strings.Join(s.Lines, "\n"))), nil
}

// SourceError reports a source that could not be opened or read.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string { return "source " + e.Source + ": " + e.Err.Error() }

func (e *SourceError) Unwrap() error { return e.Err }
