// Package main is the RecipeVault operator CLI. It applies schema
// migrations, imports legacy Firestore data, runs the premium sweep on
// demand and grants the admin role.
//
//	rvctl migrate up
//	rvctl migrate down [--steps 1]
//	rvctl import-firestore --project my-project
//	rvctl premium sweep
//	rvctl grant-admin someone@example.com
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/recipevault/recipevault/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "rvctl",
	Short:         "Operator commands for the RecipeVault backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd(), importCmd(), premiumCmd(), grantAdminCmd())
}

// loadCLI reads the CLI config and builds a stderr logger from it.
func loadCLI() (*config.CLIConfig, *slog.Logger, error) {
	cfg, err := config.LoadCLI()
	if err != nil {
		return nil, nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return cfg, logger, nil
}
