package cmd

import (
	"fmt"

	"cermont/bootstrap"

	"github.com/spf13/cobra"
)

var archiveDays int

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive paid orders completed more than --days ago",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			days := archiveDays
			if days <= 0 {
				days = app.Config.AutoArchiveDays
			}
			count, err := app.Orders.AutoArchive(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "archived %d orders older than %d days\n", count, days)
			return nil
		})
	},
}

func init() {
	archiveCmd.Flags().IntVar(&archiveDays, "days", 0, "minimum days since completion (default AUTO_ARCHIVE_DAYS)")
}
