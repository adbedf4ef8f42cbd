package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudlens/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "fraud_combined", cfg.Columns.FraudFlag)
	assert.Equal(t, "sessionid", cfg.Columns.SessionID)
	assert.Equal(t, 10, cfg.Chart.DefaultBinCount)
	assert.Equal(t, 800, cfg.Chart.Width)
	assert.Equal(t, 500, cfg.Chart.Height)
	assert.Equal(t, Margins{Top: 40, Right: 40, Bottom: 60, Left: 60}, cfg.Chart.Margins)
	assert.Equal(t, int64(50<<20), cfg.Ingest.MaxUploadBytes())
	assert.Equal(t, 4, cfg.Ingest.Workers)
	assert.Equal(t, 30, cfg.Stats.CompareBins)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FRAUD_FLAG_COLUMN", "is_fraud")
	t.Setenv("SESSION_ID_COLUMN", "session")
	t.Setenv("DEFAULT_BIN_COUNT", "15")
	t.Setenv("CHART_WIDTH", "1200")
	t.Setenv("CHART_MARGIN_LEFT", "80")
	t.Setenv("INGEST_WORKERS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "is_fraud", cfg.Columns.FraudFlag)
	assert.Equal(t, "session", cfg.Columns.SessionID)
	assert.Equal(t, 15, cfg.Chart.DefaultBinCount)
	assert.Equal(t, 1200, cfg.Chart.Width)
	assert.Equal(t, 80, cfg.Chart.Margins.Left)
	assert.Equal(t, 4, cfg.Ingest.Workers, "unparsable values keep the default")
}

func TestLoad_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fraudlens.yaml")
	yamlDoc := `
columns:
  fraud_flag: label
chart:
  default_bin_count: 12
  margins:
    top: 10
stats:
  kde_bandwidth: 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DEFAULT_BIN_COUNT", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "label", cfg.Columns.FraudFlag)
	assert.Equal(t, "sessionid", cfg.Columns.SessionID)
	assert.Equal(t, 8, cfg.Chart.DefaultBinCount, "environment wins over the file")
	assert.Equal(t, 10, cfg.Chart.Margins.Top)
	assert.Equal(t, 40, cfg.Chart.Margins.Right)
	assert.Equal(t, 0.25, cfg.Stats.KDEBandwidth)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.Classify(err))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bins too low", func(c *Config) { c.Chart.DefaultBinCount = 2 }},
		{"bins too high", func(c *Config) { c.Chart.DefaultBinCount = 21 }},
		{"empty flag column", func(c *Config) { c.Columns.FraudFlag = " " }},
		{"same columns", func(c *Config) { c.Columns.SessionID = "FRAUD_COMBINED" }},
		{"zero width", func(c *Config) { c.Chart.Width = 0 }},
		{"margins swallow plot", func(c *Config) { c.Chart.Margins.Top = 300; c.Chart.Margins.Bottom = 300 }},
		{"negative margin", func(c *Config) { c.Chart.Margins.Left = -1 }},
		{"zero upload limit", func(c *Config) { c.Ingest.MaxUploadMB = 0 }},
		{"no workers", func(c *Config) { c.Ingest.Workers = 0 }},
		{"no port", func(c *Config) { c.Server.Port = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.Classify(err))
		})
	}

	assert.NoError(t, validateConfig(Default()))
}

func TestParse_RejectsMalformedYAML(t *testing.T) {
	err := Parse([]byte("chart: [unclosed"), Default())
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.Classify(err))
}
