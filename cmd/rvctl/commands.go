package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recipevault/recipevault/internal/cache"
	"github.com/recipevault/recipevault/internal/config"
	"github.com/recipevault/recipevault/internal/firestoreimport"
	"github.com/recipevault/recipevault/internal/metrics"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/repository"
	"github.com/recipevault/recipevault/internal/service"
)

// cliPool keeps one-shot admin commands from holding many connections.
var cliPool = repository.PoolOptions{MaxConns: 2, MinConns: 0}

func importCmd() *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "import-firestore",
		Short: "Copy the legacy Firestore collections into Postgres",
		Long: `Reads users, recipes with their comments and ratings, favorites,
premium subscriptions and cooking reminders from the legacy Firestore
project and upserts them. Re-running the import is safe; documents that
fail to map are counted as skipped and logged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadCLI()
			if err != nil {
				return err
			}
			if projectID == "" {
				projectID = cfg.FirestoreProjectID
			}
			if projectID == "" {
				return errors.New("--project or FIRESTORE_PROJECT_ID is required")
			}

			ctx := cmd.Context()
			repo, err := repository.New(ctx, cfg.DatabaseURL, cliPool)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer repo.Close()

			source, err := firestoreimport.NewFirestoreSource(ctx, projectID)
			if err != nil {
				return err
			}
			defer source.Close()

			report, err := firestoreimport.New(source, repo, logger).Run(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Firestore project id (default $FIRESTORE_PROJECT_ID)")

	return cmd
}

func premiumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "premium",
		Short: "Premium subscription maintenance",
	}

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Renew lapsed auto-renewing subscriptions and expire the rest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadCLI()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			repo, err := repository.New(ctx, cfg.DatabaseURL, cliPool)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer repo.Close()

			result, err := service.NewPremiumService(repo, logger, metrics.NewNoop()).Sweep(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.AddCommand(sweep)
	return cmd
}

func grantAdminCmd() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "grant-admin <email>",
		Short: "Give an existing account the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadCLI()
			if err != nil {
				return err
			}

			email := strings.TrimSpace(args[0])
			role := model.RoleAdmin
			if revoke {
				role = model.RoleUser
			}

			return setRole(cmd, cfg, logger, email, role)
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "demote the account back to a regular user")

	return cmd
}

func setRole(cmd *cobra.Command, cfg *config.CLIConfig, logger *slog.Logger, email, role string) error {
	ctx := cmd.Context()
	repo, err := repository.New(ctx, cfg.DatabaseURL, cliPool)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer repo.Close()

	var evicter service.SessionEvicter
	if cfg.RedisURL != "" {
		c, err := cache.New(ctx, cfg.RedisURL, cache.PoolOptions{Size: 2})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer c.Close()
		evicter = c
	}

	evicted, err := service.NewRoleService(repo, evicter, logger).ChangeRole(ctx, email, role)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fmt.Errorf("no account with email %s", email)
		}
		return err
	}

	logger.Info("role updated", "email", email, "role", role, "sessions_evicted", evicted)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
