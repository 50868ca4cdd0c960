package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPrefix keeps the tests independent of the caller's environment.
const testPrefix = "ENVDOC_TEST_"

func runApp(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"envdoc", "--prefix", testPrefix}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestInventory(t *testing.T) {
	code, out, _ := runApp(t, "inventory")
	require.Equal(t, 0, code)

	for _, name := range []string{
		"TRACING_LOG_JSON",
		"TRACING_LOG_LEVEL",
		"OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_LEVEL",
		"OTEL_TIMEOUT",
		"OTEL_ENVIRONMENT_NAME",
		"TRACING_METRICS_PORT",
	} {
		assert.Contains(t, out, name)
	}
}

func TestInventory_JSONWithPresence(t *testing.T) {
	t.Setenv(testPrefix+"OTEL_LEVEL", "info")

	code, out, _ := runApp(t, "inventory", "--format", "json", "--presence")
	require.Equal(t, 0, code)

	var doc struct {
		Items []struct {
			Var string `json:"var"`
			Set *bool  `json:"set"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Items, 7)

	for _, item := range doc.Items {
		require.NotNil(t, item.Set, item.Var)
		assert.Equal(t, item.Var == "OTEL_LEVEL", *item.Set, item.Var)
	}
}

func TestInventory_UnknownFormat(t *testing.T) {
	code, _, errOut := runApp(t, "inventory", "--format", "xml")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "xml")
}

func TestCheck(t *testing.T) {
	code, out, _ := runApp(t, "check")
	assert.Equal(t, 0, code)
	assert.Equal(t, "ok: 7 variables checked\n", out)
}

func TestCheck_StrictReportsMissing(t *testing.T) {
	t.Setenv(testPrefix+"TRACING_LOG_JSON", "1")

	code, _, errOut := runApp(t, "check", "--strict")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "missing environment variables: 6 items")
	assert.Contains(t, errOut, "  - OTEL_EXPORTER_OTLP_ENDPOINT: ")
	assert.NotContains(t, errOut, "TRACING_LOG_JSON")
}

func TestCheck_SetSatisfiesStrict(t *testing.T) {
	code, _, errOut := runApp(t, "check", "--strict",
		"--set", "TRACING_LOG_JSON=1",
		"--set", "TRACING_LOG_LEVEL=info",
		"--set", "OTEL_EXPORTER_OTLP_ENDPOINT=http://collector:4318",
		"--set", "OTEL_LEVEL=info",
		"--set", "OTEL_TIMEOUT=100",
		"--set", "OTEL_ENVIRONMENT_NAME=test",
		"--set", "TRACING_METRICS_PORT=9100",
	)
	assert.Equal(t, 0, code, errOut)
}

func TestInvalidSet(t *testing.T) {
	code, _, errOut := runApp(t, "check", "--set", "NOEQUALS")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "invalid --set")
}

func TestShow(t *testing.T) {
	t.Setenv(testPrefix+"TRACING_LOG_LEVEL", "warn")

	code, out, errOut := runApp(t, "--set", "OTEL_EXPORTER_OTLP_ENDPOINT=http://collector:4318",
		"show", "--sources")
	require.Equal(t, 0, code, errOut)

	assert.Contains(t, out, "TRACING_LOG_JSON=<not set>\n")
	assert.Contains(t, out, "TRACING_LOG_LEVEL=warn (source: env:"+testPrefix+")\n")
	assert.Contains(t, out, "OTEL_EXPORTER_OTLP_ENDPOINT=http://collector:4318 (source: list)\n")
	assert.Contains(t, out, "TRACING_METRICS_PORT=<not set>\n")
}

func TestShow_InvalidEndpoint(t *testing.T) {
	code, _, errOut := runApp(t, "--set", "OTEL_EXPORTER_OTLP_ENDPOINT=collector", "show")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func TestShow_Snapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "env-{{timestamp}}.json")

	code, _, errOut := runApp(t, "show", "--snapshot", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, errOut, " written to ")

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "env-*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"TRACING_METRICS_PORT"`))
}

func TestNoArgsPrintsHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"envdoc"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "inventory")
}
