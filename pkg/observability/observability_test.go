package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/internhub_backend/config"
)

func TestFromCentralConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Environment = "staging"
	cfg.Observability.Tracing.SamplingRate = 0.25

	oc := FromCentralConfig(cfg)
	assert.Equal(t, "internhub", oc.ServiceName)
	assert.Equal(t, "staging", oc.Environment)
	assert.InDelta(t, 0.25, oc.SamplingRate, 1e-9)
}

func TestFiberMiddlewarePassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(FiberMiddleware("internhub"))
	app.Get("/ping", func(c fiber.Ctx) error {
		require.NotNil(t, c.Context())
		return c.SendString("pong")
	})
	app.Get("/boom", func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusInternalServerError)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestSampleRatio(t *testing.T) {
	assert.InDelta(t, 1.0, Config{}.sampleRatio(), 1e-9)
	assert.InDelta(t, 1.0, Config{SamplingRate: 3}.sampleRatio(), 1e-9)
	assert.InDelta(t, 0.1, Config{SamplingRate: 0.1}.sampleRatio(), 1e-9)
}

func TestFiberMiddlewareSkipsProbes(t *testing.T) {
	app := fiber.New()
	app.Use(FiberMiddleware("internhub"))
	app.Get("/livez", func(c fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/livez", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(HeaderTraceID))
}
