package main

import (
	"fmt"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/pkg/database"
	"github.com/spf13/cobra"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
		if err != nil {
			return err
		}
		if res.Applied {
			fmt.Fprintf(cmd.OutOrStdout(), "migrated to version %d\n", res.Version)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "already at version %d\n", res.Version)
		}
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateSteps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		if err := database.RollbackMigrations(cfg.DatabaseURL, cfg.MigrationsPath, migrateSteps); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", migrateSteps)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
