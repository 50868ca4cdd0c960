package telemetry

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Azhovan/fromenv"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	otelEndpointVar    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	otelLevelVar       = "OTEL_LEVEL"
	otelTimeoutVar     = "OTEL_TIMEOUT"
	otelEnvironmentVar = "OTEL_ENVIRONMENT_NAME"
)

// Defaults applied when the optional OTLP variables are unset or invalid.
const (
	DefaultOtelLevel       = zerolog.DebugLevel
	DefaultOtelTimeout     = time.Second
	DefaultOtelEnvironment = "unknown"
)

// OtelConfig configures OTLP trace export. The endpoint is required: a
// composite holding an Optional[OtelConfig] disables export when it is unset.
// The other inputs fall back to their defaults when missing or unparseable.
type OtelConfig struct {
	// Endpoint receives traces over OTLP/HTTP.
	Endpoint url.URL

	// Level is the minimum level of log events copied onto spans.
	Level zerolog.Level

	Timeout time.Duration

	// Environment is the deployment.environment.name resource attribute.
	Environment string
}

var otelItems = []fromenv.Item{
	{
		Var:         otelEndpointVar,
		Description: "OTLP endpoint to send traces to, a url. If missing, disables OTLP exporting.",
		Optional:    true,
	},
	{
		Var:         otelLevelVar,
		Description: "OTLP level to export, defaults to debug. Permissible values are: trace, debug, info, warn, error, off",
		Optional:    true,
	},
	{
		Var:         otelTimeoutVar,
		Description: "OTLP timeout in milliseconds",
		Optional:    true,
	},
	{
		Var:         otelEnvironmentVar,
		Description: "OTLP environment name, a string",
		Optional:    true,
	},
}

// Inventory implements fromenv.Config.
func (OtelConfig) Inventory() []fromenv.Item {
	return otelItems
}

// FromEnv implements fromenv.Config.
func (c *OtelConfig) FromEnv(src fromenv.Source) error {
	endpoint, err := fromenv.LoadVar(src, otelEndpointVar, fromenv.URL)
	if err != nil {
		return fromenv.WrapField("OtelConfig", "endpoint", err)
	}

	level, err := fromenv.LoadVar(src, otelLevelVar, fromenv.Level)
	if err != nil {
		level = DefaultOtelLevel
	}

	timeout, err := fromenv.LoadVar(src, otelTimeoutVar, fromenv.Millis)
	if err != nil {
		timeout = DefaultOtelTimeout
	}

	environment, err := fromenv.LoadVar(src, otelEnvironmentVar, fromenv.String)
	if err != nil {
		environment = DefaultOtelEnvironment
	}

	*c = OtelConfig{
		Endpoint:    *endpoint,
		Level:       level,
		Timeout:     timeout,
		Environment: environment,
	}
	return nil
}

// Service identifies the process in exported telemetry.
type Service struct {
	Name    string
	Version string
}

// Resource describes svc in the given deployment environment.
func (c OtelConfig) Resource(svc Service) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(svc.Name),
		semconv.ServiceVersion(svc.Version),
		attribute.String("deployment.environment.name", c.Environment),
	)
}

// Provider starts a tracer provider exporting to the endpoint in batches.
// extra options are applied after the resource and batcher. The returned
// Guard must be shut down to flush pending spans.
func (c OtelConfig) Provider(ctx context.Context, svc Service, extra ...sdktrace.TracerProviderOption) (*Guard, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(c.Endpoint.String()),
		otlptracehttp.WithTimeout(c.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: otlp exporter: %w", err)
	}

	opts := append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(c.Resource(svc)),
		sdktrace.WithBatcher(exporter),
	}, extra...)
	tp := sdktrace.NewTracerProvider(opts...)

	return &Guard{provider: tp, level: c.Level}, nil
}

// Guard owns a tracer provider. Hold it for the lifetime of the process and
// call Shutdown before exiting.
type Guard struct {
	provider *sdktrace.TracerProvider
	level    zerolog.Level
}

// NewGuard wraps an existing provider, for tests and custom exporters.
func NewGuard(tp *sdktrace.TracerProvider, level zerolog.Level) *Guard {
	return &Guard{provider: tp, level: level}
}

// TracerProvider returns the underlying provider.
func (g *Guard) TracerProvider() *sdktrace.TracerProvider {
	return g.provider
}

// Tracer returns a named tracer from the provider.
func (g *Guard) Tracer(name string) trace.Tracer {
	return g.provider.Tracer(name)
}

// Hook returns a zerolog hook that copies events at or above the guard's
// level onto the span found in the event's context.
func (g *Guard) Hook() zerolog.Hook {
	return spanEventHook{level: g.level}
}

// Shutdown flushes and stops the provider.
func (g *Guard) Shutdown(ctx context.Context) error {
	return g.provider.Shutdown(ctx)
}

type spanEventHook struct {
	level zerolog.Level
}

// Run implements zerolog.Hook. Events need a context (Event.Ctx) carrying a
// recording span.
func (h spanEventHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if h.level == zerolog.Disabled || level < h.level {
		return
	}

	span := trace.SpanFromContext(e.GetCtx())
	if !span.IsRecording() {
		return
	}

	span.AddEvent(msg, trace.WithAttributes(attribute.String("level", level.String())))
}
