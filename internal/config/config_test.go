package config

import (
	"os"
	"path/filepath"
	"testing"

	"trialstat/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TRIALSTAT_CONFIG", "")
	t.Setenv("DATA_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "trx", cfg.Analysis.GroupColumn)
	assert.Equal(t, "Drug", cfg.Analysis.GroupA)
	assert.Equal(t, "Placebo", cfg.Analysis.GroupB)
	assert.Equal(t, 0.05, cfg.Analysis.Alpha)
	assert.Equal(t, 30, cfg.Output.HistBins)

	_, err = cfg.RequireDataFile()
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trialstat.yaml")
	body := `
data:
  file: trial.csv
analysis:
  alpha: 0.01
  continuous_column: wbc
output:
  hist_bins: 12
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv("TRIALSTAT_CONFIG", path)
	t.Setenv("HIST_BINS", "20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "trial.csv", cfg.Data.File)
	assert.Equal(t, 0.01, cfg.Analysis.Alpha)
	assert.Equal(t, "wbc", cfg.Analysis.ContinuousColumn)
	assert.Equal(t, "Drug", cfg.Analysis.GroupA, "unset YAML keys keep defaults")
	assert.Equal(t, 20, cfg.Output.HistBins, "environment overrides YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"alpha zero", func(c *Config) { c.Analysis.Alpha = 0 }},
		{"alpha one", func(c *Config) { c.Analysis.Alpha = 1 }},
		{"same groups", func(c *Config) { c.Analysis.GroupB = c.Analysis.GroupA }},
		{"missing column", func(c *Config) { c.Analysis.CountColumn = " " }},
		{"bad alternative", func(c *Config) { c.Analysis.Alternative = "sideways" }},
		{"no bins", func(c *Config) { c.Output.HistBins = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}

	assert.NoError(t, Validate(Default()))
}

func TestLoad_MissingYAMLFile(t *testing.T) {
	t.Setenv("TRIALSTAT_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeIOError, errors.GetCode(err))
}
