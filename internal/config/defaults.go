package config

import "github.com/roach88/casbinsql/internal/store"

// Default values for configuration fields.
const (
	DefaultDriver    = "sqlite3"
	DefaultDSN       = "casbin.db"
	DefaultTable     = store.DefaultTable
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns a configuration holding only default values.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every empty field with its default. The dialect is
// derived from the driver when it is not set and the driver is known.
func ApplyDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDriver
	}
	if cfg.Database.DSN == "" && isSQLiteDriver(cfg.Database.Driver) {
		cfg.Database.DSN = DefaultDSN
	}
	if cfg.Database.Dialect == "" {
		if d, err := store.DialectForDriver(cfg.Database.Driver); err == nil {
			cfg.Database.Dialect = string(d)
		}
	}
	if cfg.Database.Table == "" {
		cfg.Database.Table = DefaultTable
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

func isSQLiteDriver(driver string) bool {
	return driver == "sqlite3" || driver == "sqlite"
}
