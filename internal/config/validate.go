package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/casbinsql/internal/store"
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats = []string{"text", "json"}
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "database.dsn").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError holds every field error found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate returns a ValidationError if any rule fails, nil otherwise.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateLog(&cfg.Log)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateDatabase(db *DatabaseConfig) []FieldError {
	var errs []FieldError

	if db.Driver == "" {
		errs = append(errs, FieldError{Field: "database.driver", Message: "driver is required"})
	}
	if db.DSN == "" {
		errs = append(errs, FieldError{Field: "database.dsn", Message: "dsn is required"})
	}

	if db.Dialect == "" {
		errs = append(errs, FieldError{
			Field:   "database.dialect",
			Message: fmt.Sprintf("cannot derive a dialect from driver %q; set it explicitly", db.Driver),
		})
	} else if _, err := store.ParseDialect(db.Dialect); err != nil {
		errs = append(errs, FieldError{Field: "database.dialect", Message: err.Error()})
	}

	if err := store.ValidateTableName(db.Table); err != nil {
		errs = append(errs, FieldError{Field: "database.table", Message: err.Error()})
	}
	if db.MaxOpenConns < 0 {
		errs = append(errs, FieldError{Field: "database.max_open_conns", Message: "must be zero or positive"})
	}

	return errs
}

func validateLog(l *LogConfig) []FieldError {
	var errs []FieldError

	if !slices.Contains(validLogLevels, strings.ToLower(l.Level)) {
		errs = append(errs, FieldError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level %q, must be one of %v", l.Level, validLogLevels),
		})
	}
	if !slices.Contains(validLogFormats, l.Format) {
		errs = append(errs, FieldError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format %q, must be one of %v", l.Format, validLogFormats),
		})
	}

	return errs
}
