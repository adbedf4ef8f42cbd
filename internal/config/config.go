package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"fraudlens/adapters/stats/engine"
	"fraudlens/domain/dataset"
	"fraudlens/internal/errors"
)

// Bin count bounds the chart controls accept
const (
	MinBinCount = 3
	MaxBinCount = 20
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig          `yaml:"server"`
	Columns dataset.ColumnMapping `yaml:"columns"`
	Chart   ChartConfig           `yaml:"chart"`
	Ingest  IngestConfig          `yaml:"ingest"`
	Stats   engine.Config         `yaml:"stats"`
	Log     LogConfig             `yaml:"log"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

// Margins are the chart plot-area insets in pixels
type Margins struct {
	Top    int `yaml:"top" json:"top"`
	Right  int `yaml:"right" json:"right"`
	Bottom int `yaml:"bottom" json:"bottom"`
	Left   int `yaml:"left" json:"left"`
}

// ChartConfig holds chart defaults and export geometry
type ChartConfig struct {
	DefaultBinCount int     `yaml:"default_bin_count"`
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	Margins         Margins `yaml:"margins"`
}

// IngestConfig bounds upload parsing
type IngestConfig struct {
	MaxUploadMB int `yaml:"max_upload_mb"`
	Workers     int `yaml:"workers"`
}

// MaxUploadBytes returns the per-file size limit
func (c IngestConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// LogConfig holds the logger verbosity
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", GinMode: "debug"},
		Columns: dataset.DefaultColumnMapping(),
		Chart: ChartConfig{
			DefaultBinCount: 10,
			Width:           800,
			Height:          500,
			Margins:         Margins{Top: 40, Right: 40, Bottom: 60, Left: 60},
		},
		Ingest: IngestConfig{MaxUploadMB: 50, Workers: 4},
		Stats:  engine.DefaultConfig(),
		Log:    LogConfig{Level: "INFO"},
	}
}

// Load reads configuration from an optional CONFIG_FILE overlay and then
// environment variables, and validates it. Environment values win.
func Load() (*Config, error) {
	config := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, errors.Wrap(err, "failed to load configuration file")
		}
	}

	loadServerConfig(&config.Server)
	loadColumnConfig(&config.Columns)
	loadChartConfig(&config.Chart)
	loadIngestConfig(&config.Ingest)
	config.Log.Level = getEnvOrDefault("LOG_LEVEL", config.Log.Level)

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return Parse(data, config)
}

// Parse overlays YAML onto config. Keys absent from data keep their values.
func Parse(data []byte, config *Config) error {
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

func loadServerConfig(c *ServerConfig) {
	c.Port = getEnvOrDefault("PORT", c.Port)
	c.GinMode = getEnvOrDefault("GIN_MODE", c.GinMode)
}

func loadColumnConfig(c *dataset.ColumnMapping) {
	c.FraudFlag = getEnvOrDefault("FRAUD_FLAG_COLUMN", c.FraudFlag)
	c.SessionID = getEnvOrDefault("SESSION_ID_COLUMN", c.SessionID)
}

func loadChartConfig(c *ChartConfig) {
	c.DefaultBinCount = getEnvIntOrDefault("DEFAULT_BIN_COUNT", c.DefaultBinCount)
	c.Width = getEnvIntOrDefault("CHART_WIDTH", c.Width)
	c.Height = getEnvIntOrDefault("CHART_HEIGHT", c.Height)
	c.Margins.Top = getEnvIntOrDefault("CHART_MARGIN_TOP", c.Margins.Top)
	c.Margins.Right = getEnvIntOrDefault("CHART_MARGIN_RIGHT", c.Margins.Right)
	c.Margins.Bottom = getEnvIntOrDefault("CHART_MARGIN_BOTTOM", c.Margins.Bottom)
	c.Margins.Left = getEnvIntOrDefault("CHART_MARGIN_LEFT", c.Margins.Left)
}

func loadIngestConfig(c *IngestConfig) {
	c.MaxUploadMB = getEnvIntOrDefault("MAX_UPLOAD_MB", c.MaxUploadMB)
	c.Workers = getEnvIntOrDefault("INGEST_WORKERS", c.Workers)
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	cols := config.Columns
	if strings.TrimSpace(cols.FraudFlag) == "" || strings.TrimSpace(cols.SessionID) == "" {
		return errors.ConfigInvalid("fraud flag and session id columns are required")
	}
	if strings.EqualFold(cols.FraudFlag, cols.SessionID) {
		return errors.ConfigInvalid("fraud flag and session id columns must differ")
	}
	if n := config.Chart.DefaultBinCount; n < MinBinCount || n > MaxBinCount {
		return errors.ConfigInvalid("default bin count must be between 3 and 20, got " + strconv.Itoa(n))
	}
	if config.Chart.Width <= 0 || config.Chart.Height <= 0 {
		return errors.ConfigInvalid("chart width and height must be positive")
	}
	m := config.Chart.Margins
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return errors.ConfigInvalid("chart margins cannot be negative")
	}
	if m.Left+m.Right >= config.Chart.Width || m.Top+m.Bottom >= config.Chart.Height {
		return errors.ConfigInvalid("chart margins leave no plot area")
	}
	if config.Ingest.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("max upload size must be positive")
	}
	if config.Ingest.Workers <= 0 {
		return errors.ConfigInvalid("ingest workers must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
