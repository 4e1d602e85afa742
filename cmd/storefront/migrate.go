package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/db"
)

var waitForDB time.Duration

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if waitForDB > 0 {
			cfg := config.Load()
			if cfg.DBDriver != "sqlite" {
				waitCtx, cancel := context.WithTimeout(ctx, waitForDB)
				defer cancel()
				if err := db.WaitForPostgres(waitCtx, cfg.DatabaseURL, time.Second); err != nil {
					return err
				}
			}
		}

		a, err := boot(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.repo.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		a.log.Info("schema up to date")
		return nil
	},
}

func init() {
	migrateCmd.Flags().DurationVar(&waitForDB, "wait", 0, "wait up to this long for postgres to accept connections")
}
