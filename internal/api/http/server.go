package http

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/internhub_backend/config"
	"github.com/Alijeyrad/internhub_backend/internal/api/http/handler"
	"github.com/Alijeyrad/internhub_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/internhub_backend/internal/api/http/router"
	"github.com/Alijeyrad/internhub_backend/pkg/observability"
)

// Module provides the HTTP Server to the fx graph.
var Module = fx.Module("http", fx.Provide(NewServer))

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Redis     *redis.Client `optional:"true"`
	Router    *router.Router
	OTel      *observability.Provider `optional:"true"`
}

// NewApp builds the fiber app with global middleware and every route
// registered, without binding a listener.
func NewApp(cfg *config.Config, rdb *redis.Client, r *router.Router, otelEnabled bool) *fiber.App {
	fcfg := fiber.Config{
		AppName:      "internhub",
		ErrorHandler: handler.ErrorHandler,
	}
	fcfg.BodyLimit = bodyLimit(cfg)
	app := fiber.New(fcfg)

	if otelEnabled {
		app.Use(observability.FiberMiddleware(cfg.Observability.ServiceName))
	}

	configureGlobalMiddleware(app, cfg, rdb)

	r.Register(app)
	return app
}

// uploadHeadroomMB covers multipart framing around a maximum-size upload.
const uploadHeadroomMB = 2

// bodyLimit never lets the request cap fall below the upload cap, so an
// oversized file reaches the upload service and is rejected there.
func bodyLimit(cfg *config.Config) int {
	return max(cfg.Server.BodyLimitMB, cfg.Upload.MaxSizeMB+uploadHeadroomMB) << 20
}

func NewServer(p Params) *fiber.App {
	app := NewApp(p.Cfg, p.Redis, p.Router, p.OTel != nil && p.Cfg.Observability.Tracing.Enabled)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", p.Cfg.Server.Port)
			go func() {
				if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
					slog.Error("HTTP server error", "error", err)
				}
			}()
			slog.Info("http: listening", "addr", addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})

	return app
}

func configureGlobalMiddleware(app *fiber.App, cfg *config.Config, rdb *redis.Client) {
	app.Use(middleware.RequestID())
	app.Use(recoverer.New())

	if cfg.Server.Environment == "production" {
		app.Use(helmet.New())
		if cfg.Server.CORS.Enabled {
			app.Use(cors.New(cors.Config{AllowOrigins: cfg.Server.CORS.AllowOrigins}))
		}
		if rdb != nil {
			app.Use(middleware.NewLimiterWithRedis(rdb, cfg.Server.RateLimit))
		}
	}

	app.Use(logger.New(logger.Config{
		Format: "${ip} - [${time}] [req_id=${locals:request_id}] ${method} ${url} ${status}\n",
	}))
}
