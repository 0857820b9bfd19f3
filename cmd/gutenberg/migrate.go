package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeancds29/gutenberg-back/internal/config"
	"github.com/jeancds29/gutenberg-back/internal/storage/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Apply, roll back or inspect the database schema",
		Long: `Run the schema migrations embedded in the binary against DATABASE_URL.

Examples:
  # Apply pending migrations
  gutenberg migrate up

  # Roll back the most recent migration
  gutenberg migrate down

  # Show applied versions
  gutenberg migrate status`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if a.cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate: %w", errNeedsPostgres)
			}
			direction := postgres.MigrateUp
			if len(args) == 1 {
				direction = args[0]
			}
			return runMigrations(cmd.Context(), postgresConfig(a.cfg.Database), direction, a.logger)
		},
	}
}
