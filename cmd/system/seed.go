package system

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Alijeyrad/internhub_backend/internal/repo"
	"github.com/Alijeyrad/internhub_backend/pkg/database"
)

func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load participants, departments and internships from a fixture file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			file, err := cmd.Flags().GetString("file")
			if err != nil {
				return err
			}

			v := viper.New()
			v.SetConfigFile(file)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read fixture %q: %w", file, err)
			}
			var fixture repo.Fixture
			if err := v.Unmarshal(&fixture); err != nil {
				return fmt.Errorf("failed to decode fixture: %w", err)
			}

			client, err := database.NewRepoClient(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			res, err := client.Seed(ctx, fixture)
			if err != nil {
				return fmt.Errorf("failed to seed: %w", err)
			}
			for key, id := range res.Users {
				cmd.Printf("user %-20s id=%d\n", key, id)
			}
			for key, id := range res.Departments {
				cmd.Printf("department %-14s id=%d\n", key, id)
			}
			cmd.Printf("%d internships created\n", len(res.Internships))
			return nil
		},
	}

	cmd.Flags().String("file", "seed.yaml", "fixture file (yaml or json)")

	return cmd
}
