package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cuemby/edgefunc/pkg/config"
	"github.com/cuemby/edgefunc/pkg/log"
	"github.com/cuemby/edgefunc/pkg/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger := log.WithComponent("migrate")
		if err := store.RunMigrations(context.Background(), cfg.DatabaseURL); err != nil {
			logger.Error().Err(err).Msg("migration failed")
			return err
		}

		logger.Info().Msg("migrations applied")
		return nil
	},
}
