// Package config loads gpuverify settings from a YAML file, GPUVERIFY_*
// environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/gogpu/gpuverify"
	"github.com/gogpu/gpuverify/device"
)

// Config represents the application configuration.
type Config struct {
	Profile     string                `mapstructure:"profile"`
	Constraints gpuverify.Constraints `mapstructure:"constraints"`
	Logging     LoggingConfig         `mapstructure:"logging"`
	History     HistoryConfig         `mapstructure:"history"`
}

// LoggingConfig sets the slog level of the command line tool: debug,
// info, warn or error.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// HistoryConfig points at the ClickHouse server that receives verdicts.
type HistoryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Table    string `mapstructure:"table"`
}

var validLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Profile:     "webgpu",
		Constraints: gpuverify.Constraints{},
		Logging: LoggingConfig{
			Level: "warn",
		},
		History: HistoryConfig{
			Enabled:  false,
			Addr:     "localhost:9000",
			Database: "gpuverify",
			Username: "default",
			Table:    "verdicts",
		},
	}
}

// Load loads configuration from cfgFile, or from config.yaml in
// $HOME/.gpuverify or the working directory when cfgFile is empty.
// A missing default file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".gpuverify"))
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("GPUVERIFY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Profile == "" {
		return errors.New("profile must not be empty")
	}
	if _, err := device.Lookup(c.Profile); err != nil {
		return err
	}

	for k, val := range c.Constraints {
		if !gpuverify.IsKey(k) {
			return fmt.Errorf("constraints: unknown key %q (known: %s)", k, strings.Join(gpuverify.Keys(), ", "))
		}
		if val < 0 {
			return fmt.Errorf("constraints.%s must not be negative", k)
		}
	}

	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	if c.History.Enabled {
		if c.History.Addr == "" {
			return errors.New("history.addr is required when history is enabled")
		}
		if c.History.Table == "" {
			return errors.New("history.table is required when history is enabled")
		}
	}

	return nil
}

// Resolve returns the constraints of the configured profile overlaid with
// the configured overrides.
func (c *Config) Resolve() (gpuverify.Constraints, error) {
	p, err := device.Lookup(c.Profile)
	if err != nil {
		return nil, err
	}
	return p.Constraints.Merge(c.Constraints), nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("profile", cfg.Profile)

	v.SetDefault("logging.level", cfg.Logging.Level)

	v.SetDefault("history.enabled", cfg.History.Enabled)
	v.SetDefault("history.addr", cfg.History.Addr)
	v.SetDefault("history.database", cfg.History.Database)
	v.SetDefault("history.username", cfg.History.Username)
	v.SetDefault("history.password", cfg.History.Password)
	v.SetDefault("history.table", cfg.History.Table)
}
