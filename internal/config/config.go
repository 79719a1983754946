// Package config handles configuration loading using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the client configuration. Flags override the file; env vars use
// the GAMEDIG_ prefix (e.g. GAMEDIG_LOG_LEVEL).
type Config struct {
	Query   QueryConfig   `mapstructure:"query"`
	Capture CaptureConfig `mapstructure:"capture"`
	Log     LogConfig     `mapstructure:"log"`
}

// QueryConfig contains query behavior settings.
type QueryConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// CaptureConfig contains synthetic capture settings.
type CaptureConfig struct {
	// Output is the pcapng file to write. Empty disables capture.
	Output string `mapstructure:"output"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`  // debug / info / warn / error
	Format  string           `mapstructure:"format"` // json / text
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig contains log output destinations besides stdout.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// Load loads configuration from file. An empty path loads defaults and
// environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variable overrides: key "log.level" → env "GAMEDIG_LOG_LEVEL".
	v.SetEnvPrefix("gamedig")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("query.timeout", "5s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.outputs.file.enabled", false)
	v.SetDefault("log.outputs.file.path", "gamedig.log")
	v.SetDefault("log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("log.outputs.file.rotation.compress", true)
}

// Validate checks field values the decoder cannot.
func (cfg *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}
	if cfg.Query.Timeout <= 0 {
		return fmt.Errorf("query.timeout must be positive, got %s", cfg.Query.Timeout)
	}
	return nil
}
