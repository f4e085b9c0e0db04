package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/pageview/internal/validation"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := Config{Address: validation.AddressMode(42), OnInvalid: InvalidPolicy(7), Workers: -1}
	err := cfg.Validate()

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "unknown address mode")
	assert.Contains(t, err.Error(), "unknown invalid-record policy")
	assert.Contains(t, err.Error(), "workers must not be negative")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{Workers: -2}, nil, nil)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestParseInvalidPolicy(t *testing.T) {
	for in, want := range map[string]InvalidPolicy{
		"":              DropAndWarn,
		"warn":          DropAndWarn,
		"drop_and_warn": DropAndWarn,
		"DROP":          Drop,
	} {
		got, err := ParseInvalidPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseInvalidPolicy("keep")
	assert.Error(t, err)
}
