package system

import (
	"github.com/spf13/cobra"

	"github.com/Alijeyrad/internhub_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the application database if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			created, err := database.InitializeDatabase(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			if created {
				cmd.Printf("database %q created\n", cfg.Database.DBName)
			} else {
				cmd.Printf("database %q already exists\n", cfg.Database.DBName)
			}
			return nil
		},
	}
}
