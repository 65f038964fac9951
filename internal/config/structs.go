package config

import (
	"fmt"

	"github.com/MeKo-Tech/nonmax/internal/geometry"
)

// Config represents the complete configuration for the nonmax tool.
// It covers all commands (run, batch, render, serve) and supports loading
// from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Suppression engine settings
	Suppression SuppressionConfig `mapstructure:"suppression" yaml:"suppression" json:"suppression"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// SuppressionConfig contains the NMS engine settings.
type SuppressionConfig struct {
	// Threshold is the IoU at or above which overlapping boxes are suppressed.
	Threshold float64 `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
	// Coordinates selects "inclusive" pixel or "exclusive" continuous semantics.
	Coordinates string `mapstructure:"coordinates" yaml:"coordinates" json:"coordinates"`
	// MinScore drops detections scoring below it before suppression (0 = off).
	MinScore float64 `mapstructure:"min_score" yaml:"min_score" json:"min_score"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format          string `mapstructure:"format" yaml:"format" json:"format"`
	File            string `mapstructure:"file" yaml:"file" json:"file"`
	OverlayKept     string `mapstructure:"overlay_kept_color" yaml:"overlay_kept_color" json:"overlay_kept_color"`
	OverlayDropped  string `mapstructure:"overlay_dropped_color" yaml:"overlay_dropped_color" json:"overlay_dropped_color"`
	OverlayShowDrop bool   `mapstructure:"overlay_show_dropped" yaml:"overlay_show_dropped" json:"overlay_show_dropped"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxBodyMB       int64  `mapstructure:"max_body_mb" yaml:"max_body_mb" json:"max_body_mb"`
	TimeoutSec      int    `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers   int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive bool   `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Suppression: SuppressionConfig{
			Threshold:   0.5,
			Coordinates: "inclusive",
			MinScore:    0,
		},
		Output: OutputConfig{
			Format:          "json",
			OverlayKept:     "#00FF00",
			OverlayDropped:  "#FF0000",
			OverlayShowDrop: false,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxBodyMB:       10,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
		Batch: BatchConfig{
			Workers:   0, // 0 = runtime.NumCPU()
			Recursive: false,
		},
	}
}

// Mode maps the configured coordinate semantics to the engine's CoordMode.
func (c SuppressionConfig) Mode() (geometry.CoordMode, error) {
	switch c.Coordinates {
	case "", "inclusive":
		return geometry.Inclusive, nil
	case "exclusive":
		return geometry.Exclusive, nil
	default:
		return geometry.Inclusive, fmt.Errorf("invalid coordinate semantics %q (want inclusive or exclusive)", c.Coordinates)
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.Suppression.Threshold < 0 || c.Suppression.Threshold > 1 {
		return fmt.Errorf("suppression threshold must be in [0, 1], got %v", c.Suppression.Threshold)
	}
	if _, err := c.Suppression.Mode(); err != nil {
		return err
	}
	if c.Suppression.MinScore < 0 || c.Suppression.MinScore > 1 {
		return fmt.Errorf("min score must be in [0, 1], got %v", c.Suppression.MinScore)
	}

	switch c.Output.Format {
	case "", "json", "csv", "text":
	default:
		return fmt.Errorf("invalid output format: %s", c.Output.Format)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxBodyMB < 0 {
		return fmt.Errorf("max body size must be non-negative, got %d", c.Server.MaxBodyMB)
	}
	if c.Server.TimeoutSec < 0 {
		return fmt.Errorf("server timeout must be non-negative, got %d", c.Server.TimeoutSec)
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch workers must be non-negative, got %d", c.Batch.Workers)
	}

	return nil
}
