package feeders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coreSettings struct {
	MaxModules       int `yaml:"maxModules" toml:"maxModules" env:"MAX_MODULES"`
	MaxPipelineSteps int `yaml:"maxPipelineSteps" toml:"maxPipelineSteps" env:"MAX_PIPELINE_STEPS"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestYamlFeeder(t *testing.T) {
	path := writeFile(t, "core.yaml", "maxModules: 16\nmaxPipelineSteps: 8\n")

	var cfg coreSettings
	require.NoError(t, NewYamlFeeder(path).Feed(&cfg))
	assert.Equal(t, 16, cfg.MaxModules)
	assert.Equal(t, 8, cfg.MaxPipelineSteps)
}

func TestYamlFeederErrors(t *testing.T) {
	var cfg coreSettings
	assert.Error(t, NewYamlFeeder(filepath.Join(t.TempDir(), "absent.yaml")).Feed(&cfg))

	bad := writeFile(t, "bad.yaml", "maxModules: [unbalanced")
	assert.Error(t, NewYamlFeeder(bad).Feed(&cfg))
}

func TestYamlFeederFeedKey(t *testing.T) {
	path := writeFile(t, "app.yaml", `
core:
  maxModules: 24
bus:
  maxHandlersPerType: 4
`)

	var cfg coreSettings
	require.NoError(t, NewYamlFeeder(path).FeedKey("core", &cfg))
	assert.Equal(t, 24, cfg.MaxModules)

	// A missing section leaves the target untouched.
	before := cfg
	require.NoError(t, NewYamlFeeder(path).FeedKey("loader", &cfg))
	assert.Equal(t, before, cfg)
}

func TestTomlFeeder(t *testing.T) {
	path := writeFile(t, "core.toml", "maxModules = 16\nmaxPipelineSteps = 8\n")

	var cfg coreSettings
	require.NoError(t, NewTomlFeeder(path).Feed(&cfg))
	assert.Equal(t, 16, cfg.MaxModules)
	assert.Equal(t, 8, cfg.MaxPipelineSteps)

	assert.Error(t, NewTomlFeeder(filepath.Join(t.TempDir(), "absent.toml")).Feed(&cfg))
}

func TestEnvFeeder(t *testing.T) {
	t.Setenv("GALACTIC_MAX_MODULES", "48")
	t.Setenv("GALACTIC_MAX_PIPELINE_STEPS", "12")

	var cfg coreSettings
	require.NoError(t, NewEnvFeeder("galactic").Feed(&cfg))
	assert.Equal(t, 48, cfg.MaxModules)
	assert.Equal(t, 12, cfg.MaxPipelineSteps)
}

func TestEnvFeederWithoutPrefix(t *testing.T) {
	t.Setenv("MAX_MODULES", "7")

	var cfg coreSettings
	require.NoError(t, NewEnvFeeder("").Feed(&cfg))
	assert.Equal(t, 7, cfg.MaxModules)
	assert.Zero(t, cfg.MaxPipelineSteps, "unset variables leave fields alone")
}

func TestEnvFeederNestedStruct(t *testing.T) {
	type wrapper struct {
		Core coreSettings
	}
	t.Setenv("SF_MAX_MODULES", "9")

	var cfg wrapper
	require.NoError(t, NewEnvFeeder("sf").Feed(&cfg))
	assert.Equal(t, 9, cfg.Core.MaxModules)
}

func TestEnvFeederErrors(t *testing.T) {
	assert.ErrorIs(t, NewEnvFeeder("").Feed(coreSettings{}), ErrEnvInvalidStructure)
	assert.ErrorIs(t, NewEnvFeeder("").Feed(nil), ErrEnvInvalidStructure)

	t.Setenv("MAX_MODULES", "not-a-number")
	var cfg coreSettings
	assert.Error(t, NewEnvFeeder("").Feed(&cfg))
}
