package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskTracker/internal/db"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Inspect or roll back schema migrations",
		Long: `Opening the database always applies pending migrations. Use "migrate
rollback" before starting an older binary against the same file.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "List applied migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := a.openDB()
				if err != nil {
					return err
				}
				defer a.closeDB(d)
				applied, err := db.AppliedMigrations(d)
				if err != nil {
					return err
				}
				for _, m := range applied {
					fmt.Fprintf(cmd.OutOrStdout(), "%04d_%s\n", m.Version, m.Name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "rollback",
			Short: "Roll back the most recently applied migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := a.openDB()
				if err != nil {
					return err
				}
				defer a.closeDB(d)
				v, err := db.RollbackLast(d)
				if err != nil {
					return err
				}
				if v == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %04d\n", v)
				return nil
			},
		},
	)
	return cmd
}
