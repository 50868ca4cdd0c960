package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"runtime/debug"

	"github.com/Azhovan/fromenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config is the full telemetry configuration. OTLP export is disabled
// exactly when OTEL_EXPORTER_OTLP_ENDPOINT is unset.
type Config struct {
	Log     LogConfig
	Otel    fromenv.Optional[OtelConfig]
	Metrics MetricsConfig
}

// Inventory lists every variable telemetry reads.
func Inventory() []fromenv.Item {
	return fromenv.MustInventory[Config]()
}

// Telemetry holds the initialized components.
type Telemetry struct {
	Config   *Config
	Logger   zerolog.Logger
	Guard    *Guard         // nil when OTLP export is disabled
	Metrics  *MetricsServer // nil for InitTracing
	Registry *prometheus.Registry
}

// Shutdown stops the metrics server and flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.Metrics != nil {
		if err := t.Metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics: %w", err))
		}
	}
	if t.Guard != nil {
		if err := t.Guard.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otlp: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Option configures Init.
type Option func(*options)

type options struct {
	writer     io.Writer
	service    Service
	global     bool
	processors []sdktrace.SpanProcessor
}

// WithWriter sets the log destination. Default is stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithService sets the service name and version reported to the collector.
// Defaults are taken from the binary's build information.
func WithService(name, version string) Option {
	return func(o *options) {
		o.service = Service{Name: name, Version: version}
	}
}

// WithoutGlobal keeps Init from installing the tracer provider as the otel
// global.
func WithoutGlobal() Option {
	return func(o *options) {
		o.global = false
	}
}

// WithSpanProcessor registers sp on the OTLP tracer provider, next to the
// batch exporter. It has no effect when OTLP export is disabled.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) {
		o.processors = append(o.processors, sp)
	}
}

// Init loads Config from src, builds the logger, starts OTLP export when
// configured and serves metrics on TRACING_METRICS_PORT.
func Init(ctx context.Context, src fromenv.Source, opts ...Option) (*Telemetry, error) {
	return initialize(ctx, src, true, opts)
}

// InitTracing is Init without the metrics listener.
func InitTracing(ctx context.Context, src fromenv.Source, opts ...Option) (*Telemetry, error) {
	return initialize(ctx, src, false, opts)
}

func initialize(ctx context.Context, src fromenv.Source, serveMetrics bool, opts []Option) (*Telemetry, error) {
	o := options{service: buildService(), global: true}
	for _, opt := range opts {
		opt(&o)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// The tracer provider depends on the loaded config, so the load event is
	// kept and replayed onto a span once the provider exists.
	var loadEvent fromenv.LoadEvent
	cfg, err := fromenv.NewLoader[Config]().
		WithSource(src).
		WithHook(NewLoadMetrics(reg)).
		WithHook(fromenv.HookFunc(func(_ context.Context, ev fromenv.LoadEvent) {
			loadEvent = ev
		})).
		Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("telemetry: load config: %w", err)
	}

	t := &Telemetry{
		Config:   cfg,
		Logger:   NewLogger(cfg.Log, o.writer),
		Registry: reg,
	}

	if otelCfg, ok := cfg.Otel.Get(); ok {
		var extra []sdktrace.TracerProviderOption
		for _, sp := range o.processors {
			extra = append(extra, sdktrace.WithSpanProcessor(sp))
		}

		guard, err := otelCfg.Provider(ctx, o.service, extra...)
		if err != nil {
			return nil, err
		}
		t.Guard = guard
		t.Logger = t.Logger.Hook(guard.Hook())
		NewSpanHook(guard.TracerProvider()).AfterLoad(ctx, loadEvent)
	}

	if serveMetrics {
		srv := NewMetricsServer(cfg.Metrics, reg, t.Logger)
		if err := srv.Start(); err != nil {
			_ = t.Shutdown(ctx)
			return nil, err
		}
		t.Metrics = srv
	}

	// Installed last so a failed start never leaves a shut down provider as
	// the global.
	if t.Guard != nil && o.global {
		otel.SetTracerProvider(t.Guard.TracerProvider())
	}

	t.Logger.Debug().
		Bool("otlp", t.Guard != nil).
		Bool("metrics", t.Metrics != nil).
		Msg("telemetry initialized")

	return t, nil
}

// buildService derives the service identity from the main module.
func buildService() Service {
	svc := Service{Name: "unknown", Version: "unknown"}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return svc
	}
	if info.Main.Path != "" {
		svc.Name = path.Base(info.Main.Path)
	}
	if info.Main.Version != "" {
		svc.Version = info.Main.Version
	}
	return svc
}
