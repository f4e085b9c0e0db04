package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atikulmunna/pageview/internal/config"
)

var cfgFile string

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "pageview",
	Short: "Pageview: web server log page view reports",
	Long: `Pageview reads web server access logs, validates each record's client address
and request path, and reports per-page visits and unique views together with a
summary of every rejected record.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Fatal errors go to stderr and exit with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pageview:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.pageview.yaml)")
	flags.String(config.KeyLogLevel, "warn", "log level: debug, info, warn, error")
	flags.StringP(config.KeyAddress, "a", "none", "address validation: none, v4, v6, either")
	flags.Bool(config.KeyValidatePath, false, "reject records whose path is not a valid URL path")
	flags.String(config.KeyOnInvalid, "drop_and_warn", "invalid records: drop or drop_and_warn")
	flags.Bool(config.KeyStrict, false, "fail the run when a log file cannot be read")
	flags.StringP(config.KeyFormat, "f", "fields", "log format: fields, clf, json, regex, auto")
	flags.String(config.KeyPattern, "", "regex with (?P<path>...) and (?P<address>...) groups, for --format regex")
	flags.IntP(config.KeyWorkers, "w", 1, "log files read concurrently")
	flags.StringSlice(config.KeyViews, []string{"visits", "unique_views"}, "views to report: visits, unique_views")

	bindFlags(flags)
}

func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		cobra.CheckErr(viper.BindPFlag(f.Name, f))
	})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".pageview")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PAGEVIEW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			cobra.CheckErr(fmt.Errorf("read config: %w", err))
		}
	}
}

// loadOptions resolves the configuration for a command invocation.
func loadOptions(args []string) (*config.Options, *zap.Logger, error) {
	opts, err := config.Load(viper.GetViper(), args)
	if err != nil {
		return nil, nil, err
	}
	return opts, newLogger(opts.LogLevel), nil
}

// newLogger builds a JSON logger on stderr so stdout carries only the report.
func newLogger(level zapcore.Level) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
