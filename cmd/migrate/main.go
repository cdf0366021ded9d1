// Command migrate applies or rolls back the customer directory schema.
package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iliyamo/customer-directory/internal/config"
	"github.com/iliyamo/customer-directory/internal/database"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the root command with the up, down and version
// subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the customer directory schema",
		PersistentPreRun: func(*cobra.Command, []string) {
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}
	cmd.AddCommand(newUpCmd(), newDownCmd(), newVersionCmd())
	return cmd
}

// withMigrator opens a migrator from the DB_* environment, runs fn and
// closes it.
func withMigrator(fn func(*database.Migrator) error) (err error) {
	m, err := database.NewMigrator(database.DSN(config.LoadDatabase()))
	if err != nil {
		return oops.Code("MIGRATOR_OPEN_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer func() { err = errors.Join(err, m.Close()) }()
	return fn(m)
}

func newUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *database.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("Migrations applied")
				return nil
			})
		},
	}
}

func newDownCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration (drops the customers table)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("refusing to drop the schema without --yes")
			}
			return withMigrator(func(m *database.Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("Migrations rolled back")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm dropping the schema")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *database.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				cmd.Printf("version=%d dirty=%t\n", v, dirty)
				return nil
			})
		},
	}
}
