package fromenv

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Loader loads a configuration type from a chain of sources.
// Sources are consulted in reverse order (later override earlier).
// Safe for concurrent Load calls once configured; not for concurrent configuration changes.
type Loader[T any] struct {
	sources []Source
	hooks   []Hook
	logger  zerolog.Logger
}

// NewLoader creates a Loader with no sources, no hooks and a disabled logger.
// A Loader without sources reads the process environment.
func NewLoader[T any]() *Loader[T] {
	return &Loader[T]{
		sources: make([]Source, 0),
		hooks:   make([]Hook, 0),
		logger:  zerolog.Nop(),
	}
}

// WithSource adds a source. Later sources override earlier ones.
func (l *Loader[T]) WithSource(src Source) *Loader[T] {
	l.sources = append(l.sources, src)
	return l
}

// WithLogger sets the logger used to report load outcomes.
func (l *Loader[T]) WithLogger(logger zerolog.Logger) *Loader[T] {
	l.logger = logger
	return l
}

// WithHook adds a hook notified after every Load.
func (l *Loader[T]) WithHook(h Hook) *Loader[T] {
	l.hooks = append(l.hooks, h)
	return l
}

// Source returns the effective source of the loader.
func (l *Loader[T]) Source() Source {
	if len(l.sources) == 0 {
		return chain{Environ}
	}
	return chain(l.sources)
}

// Inventory returns the inventory of T.
func (l *Loader[T]) Inventory() ([]Item, error) {
	return Inventory[T]()
}

// Load builds a T from the source chain, logs the outcome, notifies hooks
// and records provenance for the result.
func (l *Loader[T]) Load(ctx context.Context) (*T, error) {
	typeName := reflect.TypeFor[T]().String()

	start := time.Now()
	cfg, records, err := load[T](l.Source())
	end := time.Now()

	ev := LoadEvent{
		Type:  typeName,
		Start: start,
		End:   end,
		Vars:  varsOf(records),
		Err:   err,
	}

	if err != nil {
		event := l.logger.Error().Err(err).Str("config", typeName).Dur("duration", ev.Duration())
		var le *LoadError
		if errors.As(err, &le) && le.Var != "" {
			event = event.Str("var", le.Var)
		}
		event.Msg("configuration load failed")
	} else {
		l.logger.Debug().
			Str("config", typeName).
			Int("vars", len(records)).
			Dur("duration", ev.Duration()).
			Msg("configuration loaded")
	}

	for _, h := range l.hooks {
		h.AfterLoad(ctx, ev)
	}

	if err != nil {
		return nil, err
	}

	storeProvenance(cfg, &Provenance{Fields: records})
	return cfg, nil
}

// Check reports the required inputs of T that are missing from the source
// chain, logging each one at warn level.
func (l *Loader[T]) Check(ctx context.Context) error {
	items, err := Inventory[T]()
	if err != nil {
		return err
	}

	err = CheckPresence(l.Source(), items)

	var missing *MissingError
	if errors.As(err, &missing) {
		typeName := reflect.TypeFor[T]().String()
		for _, item := range missing.Items {
			l.logger.Warn().
				Str("config", typeName).
				Str("var", item.Var).
				Str("description", item.Description).
				Msg("required environment variable is not set")
		}
	}

	return err
}

func varsOf(records []FieldProvenance) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Var
	}
	return out
}

// chain layers sources: the last source that binds a name wins. A failure
// other than absence aborts the lookup.
type chain []Source

func (c chain) Lookup(name string) (string, error) {
	v, _, err := c.resolve(name)
	return v, err
}

func (c chain) Name() string {
	names := make([]string, len(c))
	for i, src := range c {
		names[i] = src.Name()
	}
	return strings.Join(names, "+")
}

func (c chain) resolve(name string) (string, string, error) {
	for i := len(c) - 1; i >= 0; i-- {
		if inner, ok := c[i].(resolver); ok {
			v, origin, err := inner.resolve(name)
			if err == nil || !errors.Is(err, ErrNotPresent) {
				return v, origin, err
			}
			continue
		}

		v, err := c[i].Lookup(name)
		if err == nil {
			return v, c[i].Name(), nil
		}
		if !errors.Is(err, ErrNotPresent) {
			return "", c[i].Name(), err
		}
	}
	return "", "", ErrNotPresent
}
