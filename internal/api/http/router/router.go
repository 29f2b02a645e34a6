package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/Alijeyrad/internhub_backend/config"
	"github.com/Alijeyrad/internhub_backend/internal/api/http/handler"
	"github.com/Alijeyrad/internhub_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/internhub_backend/internal/service/lifecycle"
	"github.com/Alijeyrad/internhub_backend/internal/service/relay"
	"github.com/Alijeyrad/internhub_backend/internal/service/upload"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

// Pinger reports whether the store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Params struct {
	fx.In

	Cfg       *config.Config
	DB        Pinger `optional:"true"`
	Lifecycle lifecycle.Service
	Relay     relay.Service
	Upload    upload.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	engagementH := handler.NewEngagementHandler(r.p.Lifecycle)
	messageH := handler.NewMessageHandler(r.p.Relay, r.p.Upload)

	api := app.Group("/api/v1", middleware.Identity())

	r.registerEngagementRoutes(api, engagementH)
	r.registerMessageRoutes(api, messageH)
}

func (r *Router) registerEngagementRoutes(api fiber.Router, h *handler.EngagementHandler) {
	applications := api.Group("/internships/:internship_id/applications")
	applications.Post("/", h.Submit)
	applications.Get("/:student_id", h.GetEngagement)
	applications.Patch("/:student_id/status", h.SetStatus)

	acceptances := api.Group("/acceptances")
	acceptances.Post("/", h.IssueDecisionLetter)
	acceptances.Post("/decide", h.Decide)
	acceptances.Patch("/:id/department", h.ForwardLetter)

	projects := api.Group("/test-projects")
	projects.Post("/", h.AssignTestProject)
	projects.Patch("/:id/submission", h.SubmitTestProject)

	api.Post("/weekly-reports", h.RecordWeeklyReport)

	evaluations := api.Group("/evaluations")
	evaluations.Put("/", h.SubmitEvaluation)
	evaluations.Get("/:company_id/:student_id", h.GetEvaluation)
}

func (r *Router) registerMessageRoutes(api fiber.Router, h *handler.MessageHandler) {
	messages := api.Group("/messages")
	messages.Post("/", h.Send)
	messages.Post("/upload", h.Upload)
	messages.Get("/conversation/:user_a/:user_b", h.Conversation)
	messages.Get("/unread", h.UnreadSummary)
	messages.Get("/unread/count", h.UnreadCount)
	messages.Patch("/read-all", h.MarkAllRead)
	messages.Patch("/:id/read", h.MarkRead)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			if r.p.DB == nil {
				return true
			}
			ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
			defer cancel()
			return r.p.DB.Ping(ctx) == nil
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
