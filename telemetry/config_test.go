package telemetry

import (
	"testing"
	"time"

	"github.com/Azhovan/fromenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEndpoint = "http://localhost:4318"

func TestConfig_Defaults(t *testing.T) {
	cfg, err := fromenv.Load[Config](fromenv.MapSource{})
	require.NoError(t, err)

	assert.False(t, cfg.Otel.Set, "OTLP is disabled without an endpoint")
	assert.Equal(t, DefaultMetricsPort, cfg.Metrics.Port)
	assert.Equal(t, zerolog.InfoLevel, cfg.Log.MinLevel())
	assert.False(t, cfg.Log.JSON.Set)
}

func TestOtelConfig_FromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  fromenv.MapSource
		want OtelConfig
	}{
		{
			name: "defaults",
			env:  fromenv.MapSource{otelEndpointVar: testEndpoint},
			want: OtelConfig{Level: zerolog.DebugLevel, Timeout: time.Second, Environment: "unknown"},
		},
		{
			name: "level",
			env:  fromenv.MapSource{otelEndpointVar: testEndpoint, otelLevelVar: "WARN"},
			want: OtelConfig{Level: zerolog.WarnLevel, Timeout: time.Second, Environment: "unknown"},
		},
		{
			name: "timeout in milliseconds",
			env:  fromenv.MapSource{otelEndpointVar: testEndpoint, otelTimeoutVar: "500"},
			want: OtelConfig{Level: zerolog.DebugLevel, Timeout: 500 * time.Millisecond, Environment: "unknown"},
		},
		{
			name: "environment",
			env:  fromenv.MapSource{otelEndpointVar: testEndpoint, otelEnvironmentVar: "staging"},
			want: OtelConfig{Level: zerolog.DebugLevel, Timeout: time.Second, Environment: "staging"},
		},
		{
			name: "invalid optional values fall back",
			env:  fromenv.MapSource{otelEndpointVar: testEndpoint, otelLevelVar: "loud", otelTimeoutVar: "1s"},
			want: OtelConfig{Level: zerolog.DebugLevel, Timeout: time.Second, Environment: "unknown"},
		},
		{
			name: "out of range timeout falls back",
			env:  fromenv.MapSource{otelEndpointVar: testEndpoint, otelTimeoutVar: "10000000000000"},
			want: OtelConfig{Level: zerolog.DebugLevel, Timeout: time.Second, Environment: "unknown"},
		},
		{
			name: "numeric level falls back",
			env:  fromenv.MapSource{otelEndpointVar: testEndpoint, otelLevelVar: "42"},
			want: OtelConfig{Level: zerolog.DebugLevel, Timeout: time.Second, Environment: "unknown"},
		},
		{
			name: "off disables span events",
			env:  fromenv.MapSource{otelEndpointVar: testEndpoint, otelLevelVar: "OFF"},
			want: OtelConfig{Level: zerolog.Disabled, Timeout: time.Second, Environment: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := fromenv.Load[OtelConfig](tt.env)
			require.NoError(t, err)

			assert.Equal(t, testEndpoint, cfg.Endpoint.String())
			assert.Equal(t, tt.want.Level, cfg.Level)
			assert.Equal(t, tt.want.Timeout, cfg.Timeout)
			assert.Equal(t, tt.want.Environment, cfg.Environment)
		})
	}
}

func TestConfig_OtelEnabledByEndpoint(t *testing.T) {
	cfg, err := fromenv.Load[Config](fromenv.MapSource{otelEndpointVar: testEndpoint})
	require.NoError(t, err)
	require.True(t, cfg.Otel.Set)
	assert.Equal(t, "localhost:4318", cfg.Otel.Value.Endpoint.Host)

	cfg, err = fromenv.Load[Config](fromenv.MapSource{otelEndpointVar: ""})
	require.NoError(t, err)
	assert.False(t, cfg.Otel.Set, "an empty endpoint disables export")
}

func TestConfig_InvalidEndpoint(t *testing.T) {
	_, err := fromenv.Load[Config](fromenv.MapSource{otelEndpointVar: "not a url"})

	var le *fromenv.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, fromenv.KindParse, le.Kind)
	assert.Equal(t, otelEndpointVar, le.Var)

	var fe *fromenv.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Otel.Endpoint", fe.Path())
}

func TestMetricsConfig_Port(t *testing.T) {
	tests := []struct {
		raw  string
		want uint16
	}{
		{raw: "9100", want: 9100},
		{raw: "", want: DefaultMetricsPort},
		{raw: "70000", want: DefaultMetricsPort},
		{raw: "http", want: DefaultMetricsPort},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			cfg, err := fromenv.Load[MetricsConfig](fromenv.MapSource{metricsPortVar: tt.raw})
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Port)
		})
	}
}

func TestLogConfig(t *testing.T) {
	cfg, err := fromenv.Load[LogConfig](fromenv.MapSource{
		"TRACING_LOG_JSON":  "false",
		"TRACING_LOG_LEVEL": "Error",
	})
	require.NoError(t, err)
	assert.True(t, bool(cfg.JSON.Value), "any non-empty value enables JSON")
	assert.Equal(t, zerolog.ErrorLevel, cfg.MinLevel())

	_, err = fromenv.Load[LogConfig](fromenv.MapSource{"TRACING_LOG_LEVEL": "chatty"})
	var fe *fromenv.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Level", fe.Path())
}

func TestInventory(t *testing.T) {
	items := Inventory()

	vars := make([]string, len(items))
	for i, item := range items {
		vars[i] = item.Var
		assert.True(t, item.Optional, item.Var)
		assert.NoError(t, item.Validate())
	}

	assert.Equal(t, []string{
		"TRACING_LOG_JSON",
		"TRACING_LOG_LEVEL",
		otelEndpointVar,
		otelLevelVar,
		otelTimeoutVar,
		otelEnvironmentVar,
		metricsPortVar,
	}, vars)

	assert.NoError(t, fromenv.CheckInventory[Config](fromenv.MapSource{}))
}
