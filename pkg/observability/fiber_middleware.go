package observability

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alijeyrad/internhub_backend/pkg/reqctx"
)

const tracerName = "github.com/Alijeyrad/internhub_backend/pkg/observability"

// HeaderTraceID echoes the active trace so clients can quote it in reports.
const HeaderTraceID = "X-Trace-Id"

// untracedPrefixes are health-check and scrape endpoints that would drown real
// traffic in the trace store.
var untracedPrefixes = []string{"/livez", "/readyz", "/startupz", "/metrics"}

// FiberMiddleware traces and measures API requests. Spans are renamed to the
// matched route template once routing has run, so /messages/:id/read is one
// span name regardless of the id.
func FiberMiddleware(serviceName string) fiber.Handler {
	tracer := otel.Tracer(tracerName)
	meter := otel.Meter(tracerName)

	requests, _ := meter.Int64Counter("internhub_http_requests",
		metric.WithDescription("API requests served"),
		metric.WithUnit("{request}"))
	latency, _ := meter.Float64Histogram("internhub_http_request_duration",
		metric.WithDescription("API request latency"),
		metric.WithUnit("ms"))

	return func(c fiber.Ctx) error {
		for _, p := range untracedPrefixes {
			if strings.HasPrefix(c.Path(), p) {
				return c.Next()
			}
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Context(), propagation.HeaderCarrier(c.GetReqHeaders()))
		ctx, span := tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("service.name", serviceName),
				attribute.String("http.method", c.Method()),
				attribute.String("http.scheme", c.Protocol()),
				attribute.String("http.client_ip", c.IP()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		if rid := reqctx.RequestIDFromContext(ctx); rid != "" {
			span.SetAttributes(attribute.String("internhub.request_id", rid))
		}
		c.SetContext(ctx)
		if span.SpanContext().HasTraceID() {
			c.Set(HeaderTraceID, span.SpanContext().TraceID().String())
		}

		start := time.Now()
		err := c.Next()
		elapsed := float64(time.Since(start).Microseconds()) / 1000

		route := c.Route().Path
		status := c.Response().StatusCode()
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		// identity middleware runs inside this one
		if uid, ok := reqctx.UserIDFromContext(c.Context()); ok {
			span.SetAttributes(attribute.Int64("internhub.user_id", uid))
		}

		attrs := metric.WithAttributes(
			attribute.String("http.method", c.Method()),
			attribute.String("http.route", route),
			attribute.String("http.status_class", strconv.Itoa(status/100)+"xx"),
		)
		requests.Add(ctx, 1, attrs)
		latency.Record(ctx, elapsed, attrs)

		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(status))
			if err != nil {
				span.RecordError(err)
			}
		}
		return err
	}
}
