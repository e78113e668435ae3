package telemetry

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/relawanhub/relawan/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Middleware starts a server span for each request, continuing any
// incoming W3C trace context, and stores it in the request's user context.
// Spans are named after the matched route, not the raw path.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		carrier := propagation.MapCarrier{}
		c.Request().Header.VisitAll(func(key, value []byte) {
			carrier.Set(strings.ToLower(string(key)), string(value))
		})
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)

		method := c.Method()
		ctx, span := otel.Tracer(tracerName).Start(ctx, method+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", method),
				attribute.String("url.path", c.Path()),
			),
		)
		defer span.End()
		c.SetUserContext(ctx)

		err := c.Next()

		status := metrics.ResponseStatus(c, err)
		if err != nil {
			span.RecordError(err)
		}
		if route := c.Route(); route != nil && route.Path != "" {
			span.SetName(method + " " + route.Path)
			span.SetAttributes(attribute.String("http.route", route.Path))
		}
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		return err
	}
}

// Annotate adds attributes to the span stored in c's user context.
func Annotate(c *fiber.Ctx, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(c.UserContext()).SetAttributes(attrs...)
}

// TraceID returns the hex trace ID of the span stored in c's user context,
// or "" when there is none.
func TraceID(c *fiber.Ctx) string {
	sc := trace.SpanContextFromContext(c.UserContext())
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
