package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobmate/govjobs-service/internal/config"
	"jobmate/govjobs-service/internal/db"
	"jobmate/govjobs-service/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		logging.Init(cfg.LogLevel)
		defer zap.L().Sync()

		if cfg.StoreDriver != config.StoreDriverPostgres {
			return fmt.Errorf("migrate needs STORE_DRIVER=%s", config.StoreDriverPostgres)
		}

		ctx := context.Background()
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
		zap.S().Named("migrate").Info("database migrated")
		return nil
	},
}
