package telemetry

import (
	"context"
	"errors"

	"github.com/Azhovan/fromenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LoadMetrics is a fromenv.Hook recording configuration loads in Prometheus.
type LoadMetrics struct {
	Loads    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewLoadMetrics registers the load metrics with reg.
func NewLoadMetrics(reg prometheus.Registerer) *LoadMetrics {
	factory := promauto.With(reg)

	return &LoadMetrics{
		Loads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fromenv",
				Name:      "loads_total",
				Help:      "Total number of configuration loads, by outcome",
			},
			[]string{"config", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fromenv",
				Name:      "load_duration_seconds",
				Help:      "Configuration load duration in seconds",
				Buckets:   []float64{.00001, .0001, .001, .01, .1, 1},
			},
			[]string{"config"},
		),
	}
}

// AfterLoad implements fromenv.Hook.
func (m *LoadMetrics) AfterLoad(_ context.Context, ev fromenv.LoadEvent) {
	m.Loads.WithLabelValues(ev.Type, Outcome(ev.Err)).Inc()
	m.Duration.WithLabelValues(ev.Type).Observe(ev.Duration().Seconds())
}

// Outcome classifies a load result: "success", "schema", or the LoadError
// kind ("input", "empty", "parse").
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	if fromenv.IsSchemaError(err) {
		return "schema"
	}
	var le *fromenv.LoadError
	if errors.As(err, &le) {
		return le.Kind.String()
	}
	return "error"
}

// SpanHook is a fromenv.Hook recording each load as a span.
type SpanHook struct {
	tracer trace.Tracer
}

// NewSpanHook creates a hook using a tracer from tp.
func NewSpanHook(tp trace.TracerProvider) *SpanHook {
	return &SpanHook{tracer: tp.Tracer("github.com/Azhovan/fromenv")}
}

// AfterLoad implements fromenv.Hook.
func (h *SpanHook) AfterLoad(ctx context.Context, ev fromenv.LoadEvent) {
	_, span := h.tracer.Start(ctx, "fromenv.load",
		trace.WithTimestamp(ev.Start),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("config.type", ev.Type),
			attribute.StringSlice("config.vars", ev.Vars),
			attribute.String("config.outcome", Outcome(ev.Err)),
		),
	)

	if ev.Err != nil {
		span.RecordError(ev.Err)
		span.SetStatus(codes.Error, ev.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End(trace.WithTimestamp(ev.End))
}
