package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from the YAML file at path, applies
// defaults and validates the result. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides is LoadConfig with environment variable
// overrides. Environment variables always take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file (if path is set)
// 2. Apply environment variable overrides
// 3. Apply default values to fields still empty
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	// Defaults come after overrides so a driver set in the environment
	// still derives its own dialect and DSN.
	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func readFile(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies CASBINSQL_SECTION_FIELD variables.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("CASBINSQL_DATABASE_DRIVER"); val != "" {
		cfg.Database.Driver = val
	}
	if val := os.Getenv("CASBINSQL_DATABASE_DSN"); val != "" {
		cfg.Database.DSN = val
	}
	if val := os.Getenv("CASBINSQL_DATABASE_DIALECT"); val != "" {
		cfg.Database.Dialect = val
	}
	if val := os.Getenv("CASBINSQL_DATABASE_TABLE"); val != "" {
		cfg.Database.Table = val
	}
	if val := os.Getenv("CASBINSQL_DATABASE_MAX_OPEN_CONNS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Database.MaxOpenConns = i
		}
	}
	if val := os.Getenv("CASBINSQL_MODEL_PATH"); val != "" {
		cfg.Model.Path = val
	}
	if val := os.Getenv("CASBINSQL_LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
}
