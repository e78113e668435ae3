package telemetry

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/relawanhub/relawan/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})

	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return recorder
}

func attributeValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestMiddlewareNamesSpanAfterRouteAndContinuesTrace(t *testing.T) {
	recorder := installRecorder(t)

	app := fiber.New()
	app.Use(Middleware())
	app.Get("/v1/achievements/:track/tiers", func(c *fiber.Ctx) error {
		Annotate(c, attribute.String("achievement.track", c.Params("track")))
		if TraceID(c) == "" {
			t.Error("expected trace id in handler context")
		}
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/v1/achievements/organizer/tiers", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "GET /v1/achievements/:track/tiers" {
		t.Fatalf("unexpected span name %q", span.Name())
	}
	if span.SpanKind() != trace.SpanKindServer {
		t.Fatalf("expected server span, got %v", span.SpanKind())
	}
	if got := span.Parent().TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("expected incoming trace to continue, got parent trace %s", got)
	}
	if value, ok := attributeValue(span.Attributes(), "http.response.status_code"); !ok || value.AsInt64() != 200 {
		t.Fatalf("expected status attribute 200, got %v", value)
	}
	if value, ok := attributeValue(span.Attributes(), "achievement.track"); !ok || value.AsString() != "organizer" {
		t.Fatalf("expected handler attribute, got %v", value)
	}
}

func TestMiddlewareMarksServerErrors(t *testing.T) {
	recorder := installRecorder(t)

	app := fiber.New()
	app.Use(Middleware())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusServiceUnavailable, "down")
	})

	if _, err := app.Test(httptest.NewRequest("GET", "/boom", nil)); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Status().Code.String() != "Error" {
		t.Fatalf("expected error status, got %v", spans[0].Status())
	}
	if len(spans[0].Events()) == 0 {
		t.Fatal("expected recorded error event")
	}
}

func TestInitDisabledInstallsNoop(t *testing.T) {
	installRecorder(t)

	shutdown, err := Init(context.Background(), config.TelemetrySettings{}, Build{}, &bytes.Buffer{}, nil)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Fatal("expected noop span when tracing is disabled")
	}
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitStdoutExporterWritesSpans(t *testing.T) {
	installRecorder(t)

	buf := &bytes.Buffer{}
	cfg := config.DefaultSettings().Telemetry
	cfg.Enabled = true
	shutdown, err := Init(context.Background(), cfg, Build{Version: "v1.4.0", RegionPolicy: "warn"}, buf, nil)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "maplink.parse")
	span.End()
	Shutdown(context.Background(), shutdown, nil)

	for _, want := range []string{"maplink.parse", "service.version", "v1.4.0", "relawan.region_policy"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %q in exported span, got %q", want, buf.String())
		}
	}
}

func TestInitRejectsUnknownExporter(t *testing.T) {
	installRecorder(t)

	cfg := config.TelemetrySettings{Enabled: true, Exporter: "zipkin", SampleRatio: 1}
	if _, err := Init(context.Background(), cfg, Build{}, &bytes.Buffer{}, nil); err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}

func TestSamplerFollowsRatio(t *testing.T) {
	cases := map[float64]string{
		1:    "root:AlwaysOnSampler",
		2:    "root:AlwaysOnSampler",
		0:    "root:AlwaysOffSampler",
		-1:   "root:AlwaysOffSampler",
		0.25: "root:TraceIDRatioBased{0.25}",
	}
	for ratio, want := range cases {
		if got := Sampler(ratio).Description(); !strings.HasPrefix(got, "ParentBased{") || !strings.Contains(got, want) {
			t.Fatalf("ratio %v: expected %s, got %s", ratio, want, got)
		}
	}
}
