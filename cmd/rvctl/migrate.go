package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recipevault/recipevault/internal/migrate"
	"github.com/recipevault/recipevault/migrations"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert the embedded schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, closeDB, err := openRunner()
			if err != nil {
				return err
			}
			defer closeDB()

			applied, err := runner.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s) %v\n", len(applied), applied)
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert the newest applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			runner, closeDB, err := openRunner()
			if err != nil {
				return err
			}
			defer closeDB()

			reverted, err := runner.Down(cmd.Context(), steps)
			if err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reverted %d migration(s) %v\n", len(reverted), reverted)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert")

	cmd.AddCommand(up, down)
	return cmd
}

func openRunner() (*migrate.Runner, func(), error) {
	cfg, logger, err := loadCLI()
	if err != nil {
		return nil, nil, err
	}

	db, err := migrate.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	runner, err := migrate.New(db, migrations.FS, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return runner, func() { db.Close() }, nil
}
