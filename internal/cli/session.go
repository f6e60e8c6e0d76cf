package cli

import (
	"context"
	"database/sql"
	"io"
	"log/slog"

	"github.com/roach88/casbinsql"
	"github.com/roach88/casbinsql/internal/config"
)

// session is an open database plus the adapter over it.
type session struct {
	cfg     *config.Config
	db      *sql.DB
	adapter *casbinsql.Adapter
	logger  *slog.Logger
}

// resolveConfig loads the config file and environment, then applies the
// database flags on top.
func resolveConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(opts.Config)
	if err != nil {
		return nil, err
	}

	if opts.Driver != "" && opts.Driver != cfg.Database.Driver {
		cfg.Database.Driver = opts.Driver
		cfg.Database.Dialect = ""
	}
	if opts.DSN != "" {
		cfg.Database.DSN = opts.DSN
	}
	if opts.Table != "" {
		cfg.Database.Table = opts.Table
	}

	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the slog handler described by cfg. Verbose forces debug.
func newLogger(cfg config.LogConfig, verbose bool, w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if verbose {
		handlerOpts.Level = slog.LevelDebug
	}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// openSession resolves configuration, opens the database and constructs the
// adapter, which creates the policy table if needed. Failures are reported
// through f.
func openSession(ctx context.Context, opts *RootOptions, f *OutputFormatter) (*session, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	logger := newLogger(cfg.Log, opts.Verbose, f.GetErrWriter())

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeOpen, "failed to open database", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	dialect, err := casbinsql.ParseDialect(cfg.Database.Dialect)
	if err != nil {
		db.Close()
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid dialect", err)
	}

	adapter, err := casbinsql.NewAdapterCtx(ctx, db,
		casbinsql.WithTableName(cfg.Database.Table),
		casbinsql.WithDialect(dialect),
		casbinsql.WithLogger(logger),
	)
	if err != nil {
		db.Close()
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, "failed to open policy table", err)
	}

	f.VerboseLog("Using %s table %s (%s)", cfg.Database.Driver, adapter.TableName(), dialect)

	return &session{cfg: cfg, db: db, adapter: adapter, logger: logger}, nil
}

func (s *session) Close() error {
	return s.db.Close()
}

// sectionOf returns the model section of a ptype: "p" for p, p2, ... and "g"
// for g, g2, ...
func sectionOf(ptype string) string {
	return ptype[:1]
}
