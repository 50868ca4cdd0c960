// Package telemetry bootstraps logging, tracing and metrics for a process
// from environment variables, using fromenv for its own configuration.
//
// Variables:
//
//	TRACING_LOG_JSON              any non-empty value selects JSON logs
//	TRACING_LOG_LEVEL             minimum log level, defaults to info
//	OTEL_EXPORTER_OTLP_ENDPOINT   OTLP/HTTP endpoint; unset disables export
//	OTEL_LEVEL                    minimum level copied onto spans, defaults to debug
//	OTEL_TIMEOUT                  exporter timeout in milliseconds, defaults to 1000
//	OTEL_ENVIRONMENT_NAME         deployment.environment.name, defaults to "unknown"
//	TRACING_METRICS_PORT          metrics listener port, defaults to 9000
//
// Typical use:
//
//	tel, err := telemetry.Init(ctx, fromenv.Environ)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
package telemetry
