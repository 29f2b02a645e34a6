package http

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/internhub_backend/config"
	apihttp "github.com/Alijeyrad/internhub_backend/internal/api/http"
	"github.com/Alijeyrad/internhub_backend/pkg/logs"
)

func NewStartCommand() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Serve the REST API and the live channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := config.ReadConfig(filepath.Dir(path))
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}

			// Everything fx constructs logs through this handler.
			slog.SetDefault(logs.New(cfg))
			slog.Info("starting internhub",
				"environment", cfg.Server.Environment,
				"api_port", cfg.Server.Port,
				"relay_port", cfg.Relay.Port,
				"nats", cfg.Nats.Enabled,
			)

			apihttp.Start(cfg, shutdownTimeout)
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "maximum time to drain connections on shutdown")

	return cmd
}
