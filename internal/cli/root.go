// Package cli implements cpctl, the operator command line for the points engine.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"loyalty/config"
	"loyalty/internal/database"
	"loyalty/internal/logger"
	"loyalty/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Options lets callers swap the configuration and the database opener.
type Options struct {
	Config *config.Config
	Open   func(cfg *config.DatabaseConfig) (*gorm.DB, error)
	Log    *slog.Logger
}

type env struct {
	opts    Options
	verbose bool
	dsn     string
	driver  string
}

func NewRootCmd(opts Options) *cobra.Command {
	e := &env{opts: opts}

	root := &cobra.Command{
		Use:           "cpctl",
		Short:         "Operate the community point engine",
		Long:          `cpctl migrates the database, manages the level table and runs unlock sweeps outside the API server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&e.dsn, "dsn", "", "database DSN (overrides DB_DSN)")
	root.PersistentFlags().StringVar(&e.driver, "driver", "", "database driver: mysql or sqlite (overrides DB_DRIVER)")

	root.AddCommand(
		newMigrateCmd(e),
		newLevelsCmd(e),
		newSweepCmd(e),
		newUnlockCmd(e),
		newTokenCmd(e),
		newPromoteCmd(e),
	)
	return root
}

func (e *env) config() *config.Config {
	if e.opts.Config == nil {
		e.opts.Config = config.Load()
	}
	cfg := e.opts.Config
	if e.dsn != "" {
		cfg.Database.DSN = e.dsn
	}
	if e.driver != "" {
		cfg.Database.Driver = e.driver
	}
	return cfg
}

func (e *env) logger() *slog.Logger {
	if e.opts.Log == nil {
		e.opts.Log = logger.New(e.verbose)
	}
	return e.opts.Log
}

func (e *env) db() (*gorm.DB, error) {
	open := e.opts.Open
	if open == nil {
		open = database.NewDB
	}
	db, err := open(&e.config().Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// app opens the database and builds the services without starting the sweeper loop.
func (e *env) app(ctx context.Context) (*service.App, error) {
	db, err := e.db()
	if err != nil {
		return nil, err
	}
	cfg := e.config()
	return service.NewApp(ctx, cfg, db, service.NewDeps(ctx, cfg, e.logger()))
}
