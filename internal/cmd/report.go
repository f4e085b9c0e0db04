package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atikulmunna/pageview/internal/config"
	"github.com/atikulmunna/pageview/internal/output"
	"github.com/atikulmunna/pageview/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [files|globs...]",
	Short: "Print page visit and unique view rankings for log files",
	Long: `Read one or more access logs (or glob patterns) and print the pages ranked by
visits and by unique views, followed by a summary of rejected records.

Examples:
  pageview report webserver.log
  pageview report "/var/log/nginx/**/*.log" --format clf --address either
  pageview report webserver.log --validate-path --verbose
  pageview report webserver.log --output json --output-file report.json`,
	RunE: runReport,
}

func init() {
	flags := reportCmd.Flags()
	flags.StringP(config.KeyOutput, "o", "text", "output format: text, json, yaml")
	flags.String(config.KeyOutputFile, "", "also write the report to this file")
	flags.BoolP(config.KeyQuiet, "q", false, "only print warning totals")
	flags.BoolP(config.KeyVerbose, "v", false, "print warnings per file, per-file statistics and the options used")
	flags.Bool(config.KeyColor, true, "color text output")

	// Bound in PreRun so flags of other commands with the same key do not clash.
	reportCmd.PreRun = func(cmd *cobra.Command, _ []string) {
		bindFlags(cmd.Flags())
	}
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
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
	rep, err := load(ctx)
	if err != nil {
		return err
	}

	if rep.Warnings.Total > 0 || len(rep.Warnings.Failures) > 0 {
		logger.Info("records rejected",
			zap.Int("warnings", rep.Warnings.Total),
			zap.String("reasons", output.ReasonTotalsLine(rep.Warnings.ByReason)),
			zap.Int("unreadable_files", len(rep.Warnings.Failures)))
	}

	return writeReport(cmd.OutOrStdout(), opts, rep, logger)
}

// writeReport prints rep to w and, when an output file is configured, also saves it there.
func writeReport(w io.Writer, opts *config.Options, rep *report.Report, logger *zap.Logger) error {
	r, err := output.New(opts.Output, w, opts.OutputOptions())
	if err != nil {
		return err
	}
	if err := r.Render(rep); err != nil {
		return err
	}

	if opts.OutputFile != "" {
		if err := output.WriteFile(opts.OutputFile, opts.Output, rep, opts.OutputOptions()); err != nil {
			return err
		}
		logger.Info("report written", zap.String("path", opts.OutputFile))
	}
	return nil
}
