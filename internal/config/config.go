// Package config loads the engine's YAML configuration via spf13/viper.
// Grounded on the teacher's internal.NovaSqlConfig/LoadConfig, generalized
// from the teacher's page-store/server shape to this engine's storage
// path/compression and CLI history settings (SPEC_FULL.md §6).
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the engine's full configuration, unmarshaled from YAML.
type Config struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		DBPath   string `mapstructure:"db_path"`
		Compress bool   `mapstructure:"compress"`
	} `mapstructure:"storage"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	CLI struct {
		HistoryPath string `mapstructure:"history_path"`
		HistoryMax  int    `mapstructure:"history_max"`
	} `mapstructure:"cli"`
}

// Default returns the configuration used when no config file is supplied:
// in-memory only (no DBPath), info logging, a modest history buffer.
func Default() Config {
	var cfg Config
	cfg.AppName = "sqlvault"
	cfg.Log.Level = "info"
	cfg.CLI.HistoryPath = "~/.sqlvault_history"
	cfg.CLI.HistoryMax = 2000
	return cfg
}

// Load reads path (YAML) into a Config, starting from Default() so a
// config file only needs to override what it cares about.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}
