// Package config turns flag, environment and file settings (via viper) into the
// typed options every command runs with.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/atikulmunna/pageview/internal/aggregator"
	"github.com/atikulmunna/pageview/internal/output"
	"github.com/atikulmunna/pageview/internal/parser"
	"github.com/atikulmunna/pageview/internal/reader"
	"github.com/atikulmunna/pageview/internal/validation"
)

// Keys shared by flags, the config file and PAGEVIEW_* environment variables.
const (
	KeyFiles        = "files"
	KeyAddress      = "address"
	KeyValidatePath = "validate-path"
	KeyOnInvalid    = "on-invalid"
	KeyStrict       = "strict"
	KeyFormat       = "format"
	KeyPattern      = "pattern"
	KeyWorkers      = "workers"
	KeyViews        = "views"
	KeyQuiet        = "quiet"
	KeyVerbose      = "verbose"
	KeyColor        = "color"
	KeyOutput       = "output"
	KeyOutputFile   = "output-file"
	KeyLogLevel     = "log-level"
	KeyAddr         = "addr"
	KeyWatch        = "watch"
	KeyCacheTTL     = "cache-ttl"
)

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAddress, "none")
	v.SetDefault(KeyValidatePath, false)
	v.SetDefault(KeyOnInvalid, "drop_and_warn")
	v.SetDefault(KeyStrict, false)
	v.SetDefault(KeyFormat, string(parser.FormatFields))
	v.SetDefault(KeyWorkers, 1)
	v.SetDefault(KeyViews, []string{"visits", "unique_views"})
	v.SetDefault(KeyColor, true)
	v.SetDefault(KeyOutput, "text")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyCacheTTL, 30*time.Second)
}

// Options is the validated configuration of one run.
type Options struct {
	Files      []string
	Reader     reader.Config
	Format     parser.Format
	Pattern    string
	Metrics    []aggregator.Metric
	Verbosity  output.Verbosity
	Color      bool
	Output     string
	OutputFile string
	LogLevel   zapcore.Level
	Addr       string
	Watch      bool
	CacheTTL   time.Duration
}

// Load reads every key from v. Positional args, when given, replace the files key.
// All problems are reported together in a single *reader.ConfigError.
func Load(v *viper.Viper, args []string) (*Options, error) {
	var errs error
	note := func(err error) {
		errs = multierr.Append(errs, err)
	}

	o := &Options{
		Files:      args,
		Reader:     reader.DefaultConfig(),
		Format:     parser.Format(strings.ToLower(strings.TrimSpace(v.GetString(KeyFormat)))),
		Pattern:    v.GetString(KeyPattern),
		Verbosity:  output.Normal,
		Color:      v.GetBool(KeyColor),
		Output:     strings.ToLower(strings.TrimSpace(v.GetString(KeyOutput))),
		OutputFile: v.GetString(KeyOutputFile),
		Addr:       v.GetString(KeyAddr),
		Watch:      v.GetBool(KeyWatch),
		CacheTTL:   v.GetDuration(KeyCacheTTL),
	}
	if len(o.Files) == 0 {
		o.Files = splitList(v.GetStringSlice(KeyFiles))
	}

	mode, err := validation.ParseAddressMode(v.GetString(KeyAddress))
	note(err)
	o.Reader.Address = mode

	policy, err := reader.ParseInvalidPolicy(v.GetString(KeyOnInvalid))
	note(err)
	o.Reader.OnInvalid = policy

	o.Reader.ValidatePath = v.GetBool(KeyValidatePath)
	o.Reader.Strict = v.GetBool(KeyStrict)
	o.Reader.Workers = v.GetInt(KeyWorkers)
	if err := o.Reader.Validate(); err != nil {
		var cerr *reader.ConfigError
		if errors.As(err, &cerr) {
			err = cerr.Err
		}
		note(err)
	}

	if _, err := parser.New(o.Format, o.Pattern); err != nil {
		note(err)
	}

	for _, name := range splitList(v.GetStringSlice(KeyViews)) {
		m, err := aggregator.ParseMetric(name)
		if err != nil {
			note(err)
			continue
		}
		o.Metrics = append(o.Metrics, m)
	}

	quiet, verbose := v.GetBool(KeyQuiet), v.GetBool(KeyVerbose)
	switch {
	case quiet && verbose:
		note(fmt.Errorf("--%s and --%s are mutually exclusive", KeyQuiet, KeyVerbose))
	case quiet:
		o.Verbosity = output.Quiet
	case verbose:
		o.Verbosity = output.Verbose
	}

	note(output.CheckFormat(o.Output))

	level, err := zapcore.ParseLevel(v.GetString(KeyLogLevel))
	note(err)
	o.LogLevel = level

	if o.CacheTTL < 0 {
		note(fmt.Errorf("cache TTL must not be negative, got %s", o.CacheTTL))
	}

	if errs != nil {
		return nil, &reader.ConfigError{Err: errs}
	}
	return o, nil
}

// Parser builds the log line parser for the configured format.
func (o *Options) Parser() (parser.Parser, error) {
	return parser.New(o.Format, o.Pattern)
}

// OutputOptions returns the renderer options, echoing the run settings in verbose mode.
func (o *Options) OutputOptions() output.Options {
	return output.Options{
		Color:     o.Color,
		Verbosity: o.Verbosity,
		Settings:  o.Settings(),
	}
}

// Settings lists the options that shape ingestion, in display order.
func (o *Options) Settings() []output.Setting {
	views := make([]string, 0, len(o.Metrics))
	for _, m := range o.Metrics {
		views = append(views, m.String())
	}
	return []output.Setting{
		{Key: "format", Value: string(o.Format)},
		{Key: "address validation", Value: o.Reader.Address.String()},
		{Key: "path validation", Value: strconv.FormatBool(o.Reader.ValidatePath)},
		{Key: "invalid records", Value: o.Reader.OnInvalid.String()},
		{Key: "strict", Value: strconv.FormatBool(o.Reader.Strict)},
		{Key: "workers", Value: strconv.Itoa(o.Reader.Workers)},
		{Key: "views", Value: strings.Join(views, ", ")},
	}
}

// splitList flattens comma separated entries, as given by env vars or a single flag value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
