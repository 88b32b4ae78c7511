package cmd

import (
	"errors"
	"fmt"
	"os"

	"cermont/bootstrap"
	"cermont/models"
	"cermont/services"

	"github.com/spf13/cobra"
)

var (
	seedTemplates     string
	seedAdminEmail    string
	seedAdminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load checklist templates and optionally create the first admin",
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := os.ReadFile(seedTemplates)
		if err != nil {
			return fmt.Errorf("failed to read templates: %w", err)
		}

		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			n, err := app.Checklists.SeedTemplates(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d checklist templates\n", n)

			if seedAdminEmail == "" {
				return nil
			}
			_, err = app.Users.CreateUser(cmd.Context(), models.CreateUserRequest{
				Email:    seedAdminEmail,
				Password: seedAdminPassword,
				Name:     "Administrador",
				Role:     models.RoleAdmin,
			}, models.RequestMeta{UserID: models.SystemUserID})
			switch {
			case errors.Is(err, services.ErrEmailExists):
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists\n", seedAdminEmail)
			case err != nil:
				return err
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\n", seedAdminEmail)
			}
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedTemplates, "templates", "templates/checklists.yaml", "checklist template file")
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "", "create an admin with this email")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password for --admin-email")
}
