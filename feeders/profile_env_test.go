package feeders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileEnvFeeder_FeedWithoutProfileIsNoop(t *testing.T) {
	t.Setenv("BASE_URL", "http://plain.test")

	feeder := NewProfileEnvFeeder(func(p string) string { return "STEPKIT_" + p + "_" }, nil)

	var cfg envSuiteConfig
	require.NoError(t, feeder.Feed(&cfg))
	assert.Empty(t, cfg.BaseURL)
}

func TestProfileEnvFeeder_SelectedProfile(t *testing.T) {
	t.Setenv("STEPKIT_CI_BASE_URL", "http://ci.test")
	t.Setenv("STEPKIT_CI_BROWSER_DRIVER", "chrome")

	feeder := NewProfileEnvFeeder(func(p string) string { return "STEPKIT_" + p + "_" }, nil)
	feeder.SetPrefixFunc("CI")
	require.Equal(t, "STEPKIT_CI_", feeder.Prefix)

	var cfg envSuiteConfig
	require.NoError(t, feeder.Feed(&cfg))
	assert.Equal(t, "http://ci.test", cfg.BaseURL)
	assert.Equal(t, "chrome", cfg.Browser.Driver)
}

func TestProfileEnvFeeder_FeedKeyPreservesPreselectedProfile(t *testing.T) {
	t.Setenv("STEPKIT_CI_BASE_URL", "http://ci.test")
	t.Setenv("STEPKIT_MAIN_BASE_URL", "http://main.test")

	feeder := NewProfileEnvFeeder(func(p string) string { return "STEPKIT_" + p + "_" }, nil)
	feeder.SetPrefixFunc("CI")

	var cfg envSuiteConfig
	require.NoError(t, feeder.FeedKey("MAIN", &cfg))
	assert.Equal(t, "STEPKIT_CI_", feeder.Prefix)
	assert.Equal(t, "http://ci.test", cfg.BaseURL)
}

func TestProfileEnvFeeder_FeedKeySelectsProfile(t *testing.T) {
	t.Setenv("NIGHTLY_BASE_URL_X", "http://nightly.test")

	feeder := NewProfileEnvFeeder(
		func(p string) string { return p + "_" },
		func(string) string { return "_X" },
	)

	var cfg envSuiteConfig
	require.NoError(t, feeder.FeedKey("NIGHTLY", &cfg))
	assert.Equal(t, "http://nightly.test", cfg.BaseURL)
}

func TestProfileEnvFeeder_FeedKeyWithoutFuncs(t *testing.T) {
	feeder := NewProfileEnvFeeder(nil, nil)
	var cfg envSuiteConfig
	assert.ErrorIs(t, feeder.FeedKey("CI", &cfg), ErrProfileNotDefined)
}
