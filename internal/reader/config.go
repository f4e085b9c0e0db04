package reader

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/atikulmunna/pageview/internal/validation"
)

// InvalidPolicy decides what happens to a record that fails parsing or validation.
type InvalidPolicy int

const (
	DropAndWarn InvalidPolicy = iota
	Drop
)

func (p InvalidPolicy) String() string {
	switch p {
	case Drop:
		return "drop"
	case DropAndWarn:
		return "drop_and_warn"
	default:
		return fmt.Sprintf("InvalidPolicy(%d)", int(p))
	}
}

// ParseInvalidPolicy accepts drop or drop_and_warn (also "warn").
func ParseInvalidPolicy(s string) (InvalidPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn", "drop_and_warn", "drop-and-warn":
		return DropAndWarn, nil
	case "drop", "silent":
		return Drop, nil
	default:
		return DropAndWarn, fmt.Errorf("unknown invalid-record policy %q (want drop or drop_and_warn)", s)
	}
}

// Config controls which validators gate acceptance and how failures are handled.
type Config struct {
	Address      validation.AddressMode
	ValidatePath bool
	OnInvalid    InvalidPolicy
	// Strict turns an unreadable source into a fatal error.
	Strict bool
	// Workers > 1 reads sources concurrently.
	Workers int
}

// DefaultConfig validates nothing, warns on unparsable lines and reads sequentially.
func DefaultConfig() Config {
	return Config{
		Address:   validation.AddressNone,
		OnInvalid: DropAndWarn,
		Workers:   1,
	}
}

// ConfigError reports an invalid configuration. It is returned before any source is read.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "invalid configuration: " + e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }

// Validate checks the configuration for values the reader cannot honour.
func (c Config) Validate() error {
	var errs error

	switch c.Address {
	case validation.AddressNone, validation.AddressV4, validation.AddressV6, validation.AddressEither:
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown address mode %d", int(c.Address)))
	}

	switch c.OnInvalid {
	case Drop, DropAndWarn:
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown invalid-record policy %d", int(c.OnInvalid)))
	}

	if c.Workers < 0 {
		errs = multierr.Append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}

	if errs != nil {
		return &ConfigError{Err: errs}
	}
	return nil
}
