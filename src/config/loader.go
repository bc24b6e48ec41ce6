package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads the config file at path, applies defaults and env overrides,
// and validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = GetDefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No file: run on defaults plus env.
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := NewValidator().Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets the environment override file values. The API key
// override applies to every provider that has none of its own.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DESKPILOT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DESKPILOT_DB_PATH"); v != "" {
		cfg.Storage.DatabasePath = v
	}
	if v := os.Getenv("DESKPILOT_API_KEY"); v != "" {
		for i := range cfg.Model.Providers {
			if cfg.Model.Providers[i].APIKey == "" {
				cfg.Model.Providers[i].APIKey = v
			}
		}
	}
}
