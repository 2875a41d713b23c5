package cmd

import (
	"errors"

	"github.com/eventatlas/eventatlas/db"
	"github.com/eventatlas/eventatlas/db/migrator"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

var quiet bool

// withMigrator opens a dedicated connection for schema work, the application is not built
func withMigrator(fn func(m *migrator.Migrator) error) error {
	sqlDB, err := db.NewSqlDB(cfg.Database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return fn(migrator.New(sqlDB, &migrator.Options{Quiet: quiet}))
}

// say prints unless --quiet
func say(cmd *cobra.Command, msg string) {
	if !quiet {
		cmd.Println(msg)
	}
}

func newDatabaseStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the schema version and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *migrator.Migrator) error {
				status, err := m.Status()
				if err != nil {
					return err
				}
				cmd.Println(status)
				return nil
			})
		},
	}
}

func newDatabaseUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *migrator.Migrator) error {
				err := m.Up()
				if errors.Is(err, migrate.ErrNoChange) {
					say(cmd, "no pending migrations")
					return nil
				}
				if err != nil {
					return err
				}
				say(cmd, "database is up-to-date")
				return nil
			})
		},
	}
}

func newDatabaseResetCmd() *cobra.Command {
	var yes bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Drop every table and re-apply all migrations",
		Long:  `Drop every table and re-apply all migrations. Events and sources are lost, the search index is left untouched.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !prompt(cmd, "All events and sources will be deleted. Continue?") {
				return errors.New("canceled")
			}
			return withMigrator(func(m *migrator.Migrator) error {
				say(cmd, "resetting database...")
				if err := m.Reset(); err != nil {
					return err
				}
				say(cmd, "database successfully reset")
				return nil
			})
		},
	}
	reset.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return reset
}

func newDatabaseCmd() *cobra.Command {
	database := &cobra.Command{
		Use:               "db",
		Short:             "Manage the database schema",
		PersistentPreRunE: loadConfig,
	}
	database.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	database.AddCommand(
		newDatabaseStatusCmd(),
		newDatabaseUpCmd(),
		newDatabaseResetCmd(),
	)
	return database
}
