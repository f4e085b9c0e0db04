// Package reader turns log sources into a page view index, classifying every line
// as accepted or rejected along the way.
package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atikulmunna/pageview/internal/model"
	"github.com/atikulmunna/pageview/internal/parser"
	"github.com/atikulmunna/pageview/internal/validation"
	"github.com/atikulmunna/pageview/internal/warnings"
)

// maxLineSize bounds a single log line; longer lines are rejected as unparsable.
const maxLineSize = 1024 * 1024

var (
	// ErrNoSources is returned (wrapped in a ConfigError) when Ingest has nothing to read.
	ErrNoSources = errors.New("no sources configured")
	// ErrLineTooLong is the rejection error of a line longer than the line size limit.
	ErrLineTooLong = errors.New("line too long")
)

// SourceStat summarises how one source was classified.
type SourceStat struct {
	Name     string `json:"name" yaml:"name"`
	Lines    int    `json:"lines" yaml:"lines"`
	Accepted int    `json:"accepted" yaml:"accepted"`
	Rejected int    `json:"rejected" yaml:"rejected"`
	Err      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result is everything one ingestion pass produced.
type Result struct {
	Index    model.PageViewIndex
	Warnings *warnings.Collector
	Sources  []SourceStat
}

// Reader applies a parser and the configured validators to every line of every source.
type Reader struct {
	cfg    Config
	parser parser.Parser
	logger *zap.Logger
}

// New creates a Reader. A nil parser uses the fields parser; a nil logger discards logs.
func New(cfg Config, p parser.Parser, logger *zap.Logger) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if p == nil {
		p = parser.NewFieldsParser()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{cfg: cfg, parser: p, logger: logger}, nil
}

// Classify runs one parsed record through the configured validators.
func (r *Reader) Classify(rec model.ParsedRecord) model.Outcome {
	if err := validation.CheckAddress(r.cfg.Address, rec.Address); err != nil {
		return model.Outcome{Kind: model.RejectedAddress, Err: err}
	}
	if r.cfg.ValidatePath {
		if err := validation.CheckPath(rec.Path); err != nil {
			return model.Outcome{Kind: model.RejectedPath, Err: err}
		}
	}
	return model.Outcome{Kind: model.Accepted}
}

// Ingest reads every source in order. Rejected records never stop the run. An
// unreadable source is recorded on the warning collector and skipped, unless the
// reader is strict, in which case Ingest returns a *SourceError and no result.
func (r *Reader) Ingest(ctx context.Context, sources []Source) (*Result, error) {
	if len(sources) == 0 {
		return nil, &ConfigError{Err: ErrNoSources}
	}

	parts := make([]*partial, len(sources))
	if r.cfg.Workers > 1 && len(sources) > 1 {
		if err := r.ingestParallel(ctx, sources, parts); err != nil {
			return nil, err
		}
	} else {
		for i, src := range sources {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			parts[i] = r.ingestSource(ctx, src)
			if parts[i].err != nil && r.cfg.Strict {
				return nil, parts[i].err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	// Merge in declaration order so warning grouping never depends on completion order.
	res := &Result{
		Index:    make(model.PageViewIndex),
		Warnings: warnings.New(),
		Sources:  make([]SourceStat, 0, len(sources)),
	}
	for _, part := range parts {
		res.Index.Merge(part.index)
		res.Warnings.Merge(part.warnings)
		res.Sources = append(res.Sources, part.stat)
	}
	return res, nil
}

func (r *Reader) ingestParallel(ctx context.Context, sources []Source, parts []*partial) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for i, src := range sources {
		g.Go(func() error {
			parts[i] = r.ingestSource(gctx, src)
			if parts[i].err != nil && r.cfg.Strict {
				return parts[i].err
			}
			return nil
		})
	}
	waitErr := g.Wait()

	if r.cfg.Strict {
		// Report the first failing source by declaration order, not by arrival.
		for _, part := range parts {
			var srcErr *SourceError
			if part != nil && errors.As(part.err, &srcErr) {
				return srcErr
			}
		}
	}
	if waitErr != nil {
		return waitErr
	}
	return ctx.Err()
}

// partial is the output of reading one source.
type partial struct {
	index    model.PageViewIndex
	warnings *warnings.Collector
	stat     SourceStat
	err      error
}

func (r *Reader) ingestSource(ctx context.Context, src Source) *partial {
	name := src.Name()
	part := &partial{
		index:    make(model.PageViewIndex),
		warnings: warnings.New(),
		stat:     SourceStat{Name: name},
	}

	rc, err := src.Open()
	if err != nil {
		return r.sourceFailed(part, err)
	}
	defer rc.Close()

	lines := newLineReader(rc, maxLineSize)
	number := 0
	for {
		text, tooLong, err := lines.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return r.sourceFailed(part, fmt.Errorf("line %d: %w", number+1, err))
		}
		number++
		if number%4096 == 0 {
			if err := ctx.Err(); err != nil {
				part.err = err
				return part
			}
		}

		line := model.LogLine{Text: text, Source: name, Number: number}
		if tooLong {
			part.stat.Lines++
			r.reject(part, line, model.Outcome{
				Kind: model.RejectedFormat,
				Err:  fmt.Errorf("%w: longer than %d bytes", ErrLineTooLong, maxLineSize),
			})
			continue
		}
		r.ingestLine(part, line)
	}

	r.logger.Debug("source ingested",
		zap.String("source", name),
		zap.Int("lines", part.stat.Lines),
		zap.Int("accepted", part.stat.Accepted),
		zap.Int("rejected", part.stat.Rejected))
	return part
}

func (r *Reader) ingestLine(part *partial, line model.LogLine) {
	if strings.TrimSpace(line.Text) == "" {
		return
	}
	part.stat.Lines++

	var outcome model.Outcome
	rec, err := r.parser.Parse(line.Text, line.Source)
	if err != nil {
		outcome = model.Outcome{Kind: model.RejectedFormat, Err: err}
	} else {
		outcome = r.Classify(rec)
	}

	if outcome.Accepted() {
		part.stat.Accepted++
		part.index.Add(rec.Path, rec.Address)
		return
	}

	r.reject(part, line, outcome)
}

// reject counts a rejected line and warns about it when the policy asks for it.
func (r *Reader) reject(part *partial, line model.LogLine, outcome model.Outcome) {
	part.stat.Rejected++
	reason, _ := outcome.Reason()
	if r.cfg.OnInvalid == DropAndWarn {
		part.warnings.Record(line.Source, reason)
	}
	if ce := r.logger.Check(zap.DebugLevel, "record rejected"); ce != nil {
		ce.Write(
			zap.String("source", line.Source),
			zap.Int("line", line.Number),
			zap.Stringer("reason", reason),
			zap.Error(outcome.Err))
	}
}

// sourceFailed discards anything read from a failing source so a source is
// either fully counted or not at all.
func (r *Reader) sourceFailed(part *partial, err error) *partial {
	srcErr := &SourceError{Source: part.stat.Name, Err: err}
	r.logger.Warn("cannot read source", zap.String("source", part.stat.Name), zap.Error(err))

	part.index = make(model.PageViewIndex)
	part.warnings = warnings.New()
	part.warnings.Fail(part.stat.Name, err)
	part.stat = SourceStat{Name: part.stat.Name, Err: err.Error()}
	part.err = srcErr
	return part
}
