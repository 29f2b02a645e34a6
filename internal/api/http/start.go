package http

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"

	"github.com/Alijeyrad/internhub_backend/config"
	"github.com/Alijeyrad/internhub_backend/internal/api/http/router"
	"github.com/Alijeyrad/internhub_backend/internal/api/ws"
	"github.com/Alijeyrad/internhub_backend/internal/app"
)

// Start runs the REST API and the live channel listener until the process
// receives a stop signal.
func Start(cfg *config.Config, timeout time.Duration) {
	fx.New(
		fx.Supply(cfg),
		app.InfraModule,
		app.ServiceModule,
		app.WorkerModule,
		router.Module,
		ws.Module,
		Module,

		// NewServer registers the OnStart hook, so the app must be requested
		fx.Invoke(func(*fiber.App) {}),

		fx.StopTimeout(timeout),
	).Run()
}
