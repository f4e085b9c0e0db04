package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/atikulmunna/pageview/internal/model"
	"github.com/atikulmunna/pageview/internal/report"
	"github.com/atikulmunna/pageview/internal/warnings"
)

var (
	styleTitle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	stylePage    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	styleCount   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleFailure = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleFaint   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
)

// reasonLabels are the singular nouns used when describing warnings.
var reasonLabels = map[model.Reason]string{
	model.ReasonInvalidAddress: "invalid address",
	model.ReasonInvalidPath:    "invalid path",
	model.ReasonInvalidFormat:  "unparsable line",
}

// TextRenderer prints the report as titled, optionally colored listings.
type TextRenderer struct {
	w    io.Writer
	opts Options
}

// NewTextRenderer returns a Renderer that writes text to w.
func NewTextRenderer(w io.Writer, opts Options) *TextRenderer {
	return &TextRenderer{w: w, opts: opts}
}

func (r *TextRenderer) Render(rep *report.Report) error {
	var lines []string

	if r.opts.Verbosity == Verbose {
		lines = append(lines, r.settingsLines()...)
		lines = append(lines, r.sourceLines(rep)...)
	}

	for _, v := range rep.Views {
		lines = append(lines, r.viewLines(v)...)
	}

	lines = append(lines, r.warningLines(rep.Warnings)...)

	_, err := io.WriteString(r.w, strings.Join(lines, "\n")+"\n")
	return err
}

// viewLines renders a title framed by dashes followed by one row per page.
func (r *TextRenderer) viewLines(v report.View) []string {
	lines := r.title(v.Title)
	for _, p := range v.Pages {
		row := fmt.Sprintf("%s %s",
			r.style(stylePage, p.Page),
			r.style(styleCount, Describe(p.Count, v.Descriptor)))
		lines = append(lines, row)
	}
	return lines
}

func (r *TextRenderer) warningLines(w report.Warnings) []string {
	if w.Total == 0 && len(w.Failures) == 0 {
		return nil
	}

	var lines []string
	switch r.opts.Verbosity {
	case Quiet:
		lines = append(lines, r.style(styleWarn, quietSummary(w)))
	case Normal:
		lines = append(lines, r.title("Warnings")...)
		for _, t := range w.ByReason {
			lines = append(lines, r.style(styleWarn, Describe(t.Count, reasonLabels[t.Reason])))
		}
	default:
		lines = append(lines, r.title("Warnings")...)
		lines = append(lines, r.fileWarningLines(w.Records)...)
	}

	if r.opts.Verbosity != Quiet {
		for _, f := range w.Failures {
			lines = append(lines, r.style(styleFailure, fmt.Sprintf("%s: unreadable: %s", f.File, f.Error)))
		}
	}
	return lines
}

// fileWarningLines prints one line per file listing its counts in reason order.
func (r *TextRenderer) fileWarningLines(records []model.WarningRecord) []string {
	var (
		lines []string
		file  string
		parts []string
	)
	flush := func() {
		if len(parts) > 0 {
			lines = append(lines, r.style(styleWarn, file+": "+strings.Join(parts, ", ")))
		}
	}
	for _, rec := range records {
		if rec.File != file {
			flush()
			file, parts = rec.File, nil
		}
		parts = append(parts, Describe(rec.Count, reasonLabels[rec.Reason]))
	}
	flush()
	return lines
}

func (r *TextRenderer) settingsLines() []string {
	if len(r.opts.Settings) == 0 {
		return nil
	}
	lines := r.title("Options")
	for _, s := range r.opts.Settings {
		lines = append(lines, r.style(styleFaint, s.Key+": "+s.Value))
	}
	return lines
}

func (r *TextRenderer) sourceLines(rep *report.Report) []string {
	if len(rep.Sources) == 0 {
		return nil
	}
	lines := r.title("Log Files")
	for _, s := range rep.Sources {
		if s.Err != "" {
			lines = append(lines, r.style(styleFailure, s.Name+": "+s.Err))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s, %d accepted, %d rejected",
			s.Name, Describe(s.Lines, "line"), s.Accepted, s.Rejected))
	}
	return lines
}

func (r *TextRenderer) title(t string) []string {
	rule := strings.Repeat("-", len(t))
	return []string{rule, r.style(styleTitle, t), rule}
}

func (r *TextRenderer) style(s lipgloss.Style, text string) string {
	if !r.opts.Color {
		return text
	}
	return s.Render(text)
}

func quietSummary(w report.Warnings) string {
	s := Describe(w.Total, "warning")
	if n := len(w.Failures); n > 0 {
		s += fmt.Sprintf(" (%s)", Describe(n, "unreadable file"))
	}
	return s
}

// Describe prefixes noun with n, pluralising it unless n is 1.
func Describe(n int, noun string) string {
	return fmt.Sprintf("%d %s", n, Pluralise(noun, n))
}

// Pluralise returns the plural of noun unless n is 1.
func Pluralise(noun string, n int) string {
	if n == 1 || noun == "" {
		return noun
	}
	for _, suffix := range []string{"s", "x", "ch", "sh"} {
		if strings.HasSuffix(noun, suffix) {
			return noun + "es"
		}
	}
	return noun + "s"
}

// ReasonTotalsLine describes per-reason totals on one line, e.g. for log messages.
func ReasonTotalsLine(totals []warnings.ReasonTotal) string {
	parts := make([]string, 0, len(totals))
	for _, t := range totals {
		parts = append(parts, Describe(t.Count, reasonLabels[t.Reason]))
	}
	return strings.Join(parts, ", ")
}
