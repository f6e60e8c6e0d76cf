package config

import (
	"log/slog"
	"strings"
)

// Config is the complete policyctl configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Model    ModelConfig    `yaml:"model"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig selects the database/sql driver and the policy table.
type DatabaseConfig struct {
	// Driver is a registered database/sql driver: sqlite3, sqlite, pgx,
	// postgres or mysql.
	Driver string `yaml:"driver"`

	// DSN is passed to sql.Open unchanged.
	DSN string `yaml:"dsn"`

	// Dialect overrides the dialect derived from Driver.
	Dialect string `yaml:"dialect"`

	// Table is the policy table name.
	Table string `yaml:"table"`

	// MaxOpenConns limits the pool. Zero means unlimited.
	MaxOpenConns int `yaml:"max_open_conns"`
}

// ModelConfig points at a casbin model file. Only the enforce command needs it.
type ModelConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// SlogLevel returns the slog level for Level. Unknown levels map to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
