// Package commands implements the spese command line.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

// app carries the state resolved once per invocation by the root command.
type app struct {
	cfg    *config.Config
	logger *applog.Logger

	backendFlag  string
	dbPathFlag   string
	dbURLFlag    string
	logLevelFlag string
	portFlag     string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "spese",
		Short: "Personal expense tracker",
		Long:  "Record expenses, list them and see where the money goes, by category and by day.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.backendFlag, "backend", "", "storage backend: sqlite, postgres or memory (overrides DATA_BACKEND)")
	flags.StringVar(&a.dbPathFlag, "db", "", "SQLite database file (overrides SQLITE_DB_PATH)")
	flags.StringVar(&a.dbURLFlag, "database-url", "", "Postgres connection URL (overrides DATABASE_URL)")
	flags.StringVar(&a.logLevelFlag, "log-level", "", "log level: debug, info, warn or error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(
		newAddCommand(a),
		newListCommand(a),
		newUpdateCommand(a),
		newDeleteCommand(a),
		newClearCommand(a),
		newSummaryCommand(a),
		newExportCommand(a),
		newMigrateCommand(a),
		newServeCommand(a),
	)

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) load(cmd *cobra.Command) error {
	cli.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.backendFlag != "" {
		cfg.DataBackend = a.backendFlag
	}
	if a.dbPathFlag != "" {
		cfg.SQLiteDBPath = a.dbPathFlag
	}
	if a.dbURLFlag != "" {
		cfg.DatabaseURL = a.dbURLFlag
	}
	if a.logLevelFlag != "" {
		cfg.LogLevel = a.logLevelFlag
	}
	if a.portFlag != "" {
		cfg.Port = a.portFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cli.NewLogger(cfg, applog.ComponentCLI, cmd.ErrOrStderr())
	// Storage and Sheets log through the slog default.
	applog.SetDefault(a.logger)
	return nil
}

// openService wires the configured backend. The returned cleanup closes the
// store and any event publisher.
func (a *app) openService(ctx context.Context) (*services.ExpenseService, func(), error) {
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, nil, err
	}

	res, err := backend.NewFactory(a.logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}

	cleanup := func() {
		if err := res.Cleanup(); err != nil {
			a.logger.Warn("Failed to close backend", applog.FieldError, err)
		}
	}
	return res.Service, cleanup, nil
}
