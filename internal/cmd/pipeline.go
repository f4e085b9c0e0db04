package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/atikulmunna/pageview/internal/config"
	"github.com/atikulmunna/pageview/internal/reader"
	"github.com/atikulmunna/pageview/internal/report"
	"github.com/atikulmunna/pageview/internal/server"
	"github.com/atikulmunna/pageview/internal/watcher"
)

// newLoader returns the ingestion pass shared by report and serve. Patterns are
// expanded on every pass so files matching a glob later are picked up.
func newLoader(opts *config.Options, logger *zap.Logger) (server.Loader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := opts.Parser()
	if err != nil {
		return nil, &reader.ConfigError{Err: err}
	}
	r, err := reader.New(opts.Reader, p, logger)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) (*report.Report, error) {
		files, err := watcher.Expand(opts.Files)
		if err != nil {
			return nil, &reader.ConfigError{Err: err}
		}
		if len(files) == 0 && len(opts.Files) > 0 {
			return nil, &reader.ConfigError{Err: fmt.Errorf("no files match %v", opts.Files)}
		}
		logger.Debug("ingesting", zap.Strings("files", files))

		res, err := r.Ingest(ctx, reader.Files(files...))
		if err != nil {
			return nil, err
		}
		return report.Build(res, opts.Metrics...), nil
	}, nil
}
