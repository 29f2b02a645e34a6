package system

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/internhub_backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema; safe to repeat",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			client, err := database.NewRepoClient(cfg.Database)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := database.Migrate(ctx, client); err != nil {
				return err
			}

			cmd.Println("schema is up to date")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "maximum time for the migration")

	return cmd
}
