package sourceenv

import (
	"fmt"
	"os"
	"strings"

	"github.com/Azhovan/fromenv"
	"github.com/Azhovan/fromenv/internal/normalize"
)

// Options configures environment variable source behavior.
type Options struct {
	// Prefix is prepended to every requested name: with Prefix "APP_", a
	// lookup of PORT reads APP_PORT. Empty = names are used as is.
	Prefix string
}

type envSource struct {
	opts Options
}

// New creates a source over the live process environment.
func New(opts Options) fromenv.Source {
	return &envSource{opts: opts}
}

// Lookup reads the prefixed variable with os.LookupEnv.
func (e *envSource) Lookup(name string) (string, error) {
	key := normalize.ApplyPrefix(e.opts.Prefix, name)
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("%s: %w", key, fromenv.ErrNotPresent)
	}
	return v, nil
}

// Name returns "env", or "env:PREFIX" when a prefix is set.
func (e *envSource) Name() string {
	return sourceName("env", e.opts.Prefix)
}

type mapSource struct {
	name string
	opts Options
	vars map[string]string
}

func (m *mapSource) Lookup(name string) (string, error) {
	key := normalize.ApplyPrefix(m.opts.Prefix, name)
	v, ok := m.vars[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, fromenv.ErrNotPresent)
	}
	return v, nil
}

func (m *mapSource) Name() string {
	return sourceName(m.name, m.opts.Prefix)
}

// Snapshot captures the process environment once. Later changes to the
// environment are not visible through the returned source, so every load
// from it sees a consistent view.
func Snapshot(opts Options) fromenv.Source {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		vars[key] = value
	}
	return &mapSource{name: "env-snapshot", opts: opts, vars: vars}
}

// FromList builds a source from KEY=VALUE lines, in the format of
// os.Environ. Later duplicates win. A line without "=" or with an empty key
// is an error.
func FromList(lines []string, opts Options) (fromenv.Source, error) {
	vars := make(map[string]string, len(lines))
	for i, kv := range lines {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("sourceenv: line %d: expected KEY=VALUE, got %q", i+1, kv)
		}
		vars[key] = value
	}
	return &mapSource{name: "list", opts: opts, vars: vars}, nil
}

func sourceName(base, prefix string) string {
	if prefix == "" {
		return base
	}
	return base + ":" + prefix
}
