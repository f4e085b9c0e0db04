package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/atikulmunna/pageview/internal/report"
)

// Renderer writes a Report to an output stream.
type Renderer interface {
	Render(rep *report.Report) error
}

// Verbosity controls how much of the warning summary is shown.
type Verbosity int

const (
	// Quiet shows warning totals only.
	Quiet Verbosity = iota
	// Normal shows totals per reason.
	Normal
	// Verbose shows totals per file and reason, per-source statistics and run settings.
	Verbose
)

// Setting is one run option echoed in verbose output.
type Setting struct {
	Key   string
	Value string
}

// Options configures the text renderer.
type Options struct {
	Color     bool
	Verbosity Verbosity
	Settings  []Setting
}

// New returns the renderer for format: text, json or yaml.
func New(format string, w io.Writer, opts Options) (Renderer, error) {
	switch normalizeFormat(format) {
	case "text":
		return NewTextRenderer(w, opts), nil
	case "json":
		return NewJSONRenderer(w), nil
	case "yaml":
		return NewYAMLRenderer(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (want text, json or yaml)", format)
	}
}

// CheckFormat reports whether New accepts format.
func CheckFormat(format string) error {
	switch normalizeFormat(format) {
	case "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want text, json or yaml)", format)
	}
}

func normalizeFormat(format string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "":
		return "text"
	case "yml":
		return "yaml"
	default:
		return f
	}
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints the report as one indented JSON document.
type JSONRenderer struct {
	enc *json.Encoder
}

// NewJSONRenderer returns a Renderer that writes JSON to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSONRenderer{enc: enc}
}

func (r *JSONRenderer) Render(rep *report.Report) error {
	return r.enc.Encode(rep)
}

// ---------------------------------------------------------------------------
// YAML Renderer
// ---------------------------------------------------------------------------

// YAMLRenderer prints the report as a YAML document.
type YAMLRenderer struct {
	w io.Writer
}

// NewYAMLRenderer returns a Renderer that writes YAML to w.
func NewYAMLRenderer(w io.Writer) *YAMLRenderer {
	return &YAMLRenderer{w: w}
}

func (r *YAMLRenderer) Render(rep *report.Report) error {
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// ---------------------------------------------------------------------------
// File export
// ---------------------------------------------------------------------------

// WriteFile renders rep in format (never colored) and writes it to path,
// creating the parent directory when needed.
func WriteFile(path, format string, rep *report.Report, opts Options) error {
	opts.Color = false

	var buf bytes.Buffer
	r, err := New(format, &buf, opts)
	if err != nil {
		return err
	}
	if err := r.Render(rep); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}
