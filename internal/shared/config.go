package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Sheet    SheetConfig    `toml:"sheet"`
	Sync     SyncConfig     `toml:"sync"`
	Analysis AnalysisConfig `toml:"analysis"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// SheetConfig describes the remote spreadsheet that feeds the local store.
type SheetConfig struct {
	URL               string  `toml:"url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerMinute float64 `toml:"requests_per_minute"`
}

// SyncConfig contains settings for the ingestion loop.
type SyncConfig struct {
	StorePath       string `toml:"store_path"`
	IntervalSeconds int    `toml:"interval_seconds"`
}

// AnalysisConfig contains defaults for the aggregation engine.
type AnalysisConfig struct {
	OutputPath string `toml:"output_path"`
	Format     string `toml:"format"`
	TopK       int    `toml:"top_k"`
	Year       int    `toml:"year"` // 0 selects the current year
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Interval returns the sync interval as a [time.Duration].
func (c SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Timeout returns the HTTP timeout for sheet requests as a [time.Duration].
func (c SheetConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate reports the first configuration value that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.Sync.StorePath == "":
		return fmt.Errorf("%w: sync.store_path is empty", ErrInvalidConfig)
	case c.Sync.IntervalSeconds <= 0:
		return fmt.Errorf("%w: sync.interval_seconds must be positive, got %d", ErrInvalidConfig, c.Sync.IntervalSeconds)
	case c.Analysis.TopK < 0:
		return fmt.Errorf("%w: analysis.top_k must not be negative, got %d", ErrInvalidConfig, c.Analysis.TopK)
	case c.Analysis.Year < 0:
		return fmt.Errorf("%w: analysis.year must not be negative, got %d", ErrInvalidConfig, c.Analysis.Year)
	case c.Sheet.TimeoutSeconds < 0:
		return fmt.Errorf("%w: sheet.timeout_seconds must not be negative", ErrInvalidConfig)
	case c.Sheet.RequestsPerMinute < 0:
		return fmt.Errorf("%w: sheet.requests_per_minute must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
