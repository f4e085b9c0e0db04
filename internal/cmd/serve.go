package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atikulmunna/pageview/internal/config"
	"github.com/atikulmunna/pageview/internal/metrics"
	"github.com/atikulmunna/pageview/internal/reader"
	"github.com/atikulmunna/pageview/internal/server"
	"github.com/atikulmunna/pageview/internal/watcher"
)

const watchDebounce = 250 * time.Millisecond

var serveCmd = &cobra.Command{
	Use:   "serve [files|globs...]",
	Short: "Serve the page view report over HTTP",
	Long: `Serve the report for one or more access logs as a JSON API, push every new
report to websocket clients on /ws, and expose Prometheus metrics on /metrics.

Examples:
  pageview serve webserver.log
  pageview serve "/var/log/nginx/*.log" --format clf --watch --addr :9090`,
	Args: cobra.MinimumNArgs(1),
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.String(config.KeyAddr, ":8080", "listen address")
	flags.Bool(config.KeyWatch, false, "rebuild the report when a log file changes")
	flags.Duration(config.KeyCacheTTL, 30*time.Second, "how long a report is served before it is rebuilt (0 keeps it until refreshed)")

	serveCmd.PreRun = func(cmd *cobra.Command, _ []string) {
		bindFlags(cmd.Flags())
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	opts, logger, err := loadOptions(args)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	load, err := newLoader(opts, logger)
	if err != nil {
		return err
	}

	s := server.New(load, metrics.New(), logger, server.Options{
		Addr:     opts.Addr,
		CacheTTL: opts.CacheTTL,
	})

	// Misconfiguration is fatal; anything else is reported through the API.
	if _, err := s.Refresh(ctx); err != nil {
		var cerr *reader.ConfigError
		if errors.As(err, &cerr) {
			return err
		}
	}

	if opts.Watch {
		if err := watchSources(ctx, s, opts.Files, logger); err != nil {
			return err
		}
	}

	return s.Start(ctx)
}

// watchSources refreshes s whenever one of the files behind patterns changes.
func watchSources(ctx context.Context, s *server.Server, patterns []string, logger *zap.Logger) error {
	files, err := watcher.Expand(patterns)
	if err != nil {
		return err
	}
	w, err := watcher.New(files, logger)
	if err != nil {
		return err
	}
	go w.Start(ctx)

	go func() {
		for range watcher.Debounce(w.Events, watchDebounce) {
			if _, err := s.Refresh(ctx); err != nil {
				logger.Warn("refresh after change failed", zap.Error(err))
			}
		}
	}()
	logger.Info("watching sources", zap.Strings("files", w.Paths()))
	return nil
}
