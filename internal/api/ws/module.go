package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"github.com/Alijeyrad/internhub_backend/config"
	"github.com/Alijeyrad/internhub_backend/internal/presence"
	"github.com/Alijeyrad/internhub_backend/internal/service/relay"
)

// Module runs the live channel on its own listener next to the REST API.
var Module = fx.Module("ws",
	fx.Provide(ProvideServer),
	fx.Invoke(Listen),
)

func ProvideServer(reg *presence.Registry, svc relay.Service, cfg *config.Config) *Server {
	return NewServer(reg, svc, OptionsFromConfig(cfg.Relay))
}

func Listen(lc fx.Lifecycle, s *Server, cfg *config.Config) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Relay.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("relay listen %s: %w", srv.Addr, err)
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("relay server error", "error", err)
				}
			}()
			slog.Info("relay: listening", "addr", srv.Addr, "path", s.opts.Path)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// hijacked websocket connections are not tracked by http.Server
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return s.Shutdown(ctx)
		},
	})
}
