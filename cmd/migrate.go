package cmd

import (
	"fmt"

	"cermont/config"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply migrations, or roll back the last one",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{config.MigrateUp, config.MigrateDown},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		direction := config.MigrateUp
		if len(args) == 1 {
			direction = args[0]
		}
		if err := config.RunMigrations(cfg.DSN(), direction); err != nil {
			return err
		}

		version, dirty, err := config.MigrationVersion(cfg.DSN())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrations %s done, version %d (dirty=%t)\n", direction, version, dirty)
		return nil
	},
}
