package main

import (
	"database/sql"
	"log/slog"

	"github.com/spf13/cobra"

	"taskTracker/internal/config"
	"taskTracker/internal/db"
	"taskTracker/internal/logging"
)

// app carries what every subcommand shares once configuration is loaded.
type app struct {
	devMode bool
	cfg     *config.Config
	log     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "task-tracker",
		Short: "Task tracking web application",
		Long: `task-tracker serves a small task tracking site: users sign in, record tasks
with due dates and assignees, attach proof-of-completion files and follow SLA
breaches.

Configuration is read from the environment (DB_PATH, HTTP_ADDRESS,
SESSION_SECRET, UPLOAD_DIR, CREDENTIAL_KEY, LOG_LEVEL, ...).
Running without a subcommand starts the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVar(&a.devMode, "dev", false, "use a built-in session secret when SESSION_SECRET is unset (development only)")

	root.AddCommand(newServeCmd(a), newUserCmd(a), newMigrateCmd(a))
	return root
}

func (a *app) load() error {
	var err error
	if a.devMode {
		a.cfg, err = config.LoadWithDefaults()
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	a.log = logging.New(a.cfg.Log.Level)
	return nil
}

func (a *app) openDB() (*sql.DB, error) {
	return db.Open(a.cfg.Database.Driver, a.cfg.Database.Path)
}

func (a *app) closeDB(d *sql.DB) {
	if err := d.Close(); err != nil {
		a.log.Warn("close db", "error", err)
	}
}
