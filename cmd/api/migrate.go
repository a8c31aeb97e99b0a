package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cimillas/ticket-issuer/internal/config"
	"github.com/cimillas/ticket-issuer/internal/storage/postgres"
	"github.com/cimillas/ticket-issuer/migrations"
)

const migrateTimeout = time.Minute

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewLoader(root.envFile).Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogFormat, cfg.LogLevel, os.Stderr)
			return runMigrate(cmd.Context(), cfg, logger)
		},
	}
}

func runMigrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()

	pool, err := postgres.Open(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := migrations.Apply(ctx, pool)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if len(applied) == 0 {
		logger.Info("schema up to date")
		return nil
	}
	for _, name := range applied {
		logger.Info("migration applied", "name", name)
	}
	return nil
}
