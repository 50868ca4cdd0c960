package fromenv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"
)

// Source is the input surface: a read-only mapping from variable names to
// string values (the process environment in production).
type Source interface {
	// Lookup returns the value bound to name. An unbound name yields an error
	// wrapping ErrNotPresent; any other error is an access failure.
	Lookup(name string) (string, error)

	// Name identifies the source in provenance and dumps (e.g. "env").
	Name() string
}

// ErrNotPresent is returned by sources when a variable is not bound.
var ErrNotPresent = errors.New("fromenv: variable not present")

// SourceFunc adapts a lookup function in the shape of os.LookupEnv.
type SourceFunc func(name string) (string, bool)

// Lookup implements Source.
func (f SourceFunc) Lookup(name string) (string, error) {
	v, ok := f(name)
	if !ok {
		return "", ErrNotPresent
	}
	return v, nil
}

// Name implements Source.
func (f SourceFunc) Name() string {
	return "func"
}

// MapSource is an in-memory Source, mostly useful in tests.
type MapSource map[string]string

// Lookup implements Source.
func (m MapSource) Lookup(name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", ErrNotPresent
	}
	return v, nil
}

// Name implements Source.
func (m MapSource) Name() string {
	return "map"
}

type processEnv struct{}

func (processEnv) Lookup(name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", ErrNotPresent
	}
	return v, nil
}

func (processEnv) Name() string { return "env" }

// Environ is the live process environment.
var Environ Source = processEnv{}

// Item describes one named input: what a type may read, why, and whether
// its absence is acceptable.
type Item struct {
	Var         string `json:"var" yaml:"var" toml:"var"`
	Description string `json:"description" yaml:"description" toml:"description"`
	Optional    bool   `json:"optional" yaml:"optional" toml:"optional"`
}

// Validate checks the descriptor invariants for a leaf input.
func (i Item) Validate() error {
	if i.Var == "" {
		return errors.New("fromenv: item has an empty variable name")
	}
	if i.Description == "" {
		return fmt.Errorf("fromenv: item %s has an empty description", i.Var)
	}
	return nil
}

// Config is implemented by types that describe and load themselves by hand,
// instead of through struct tags. Inventory must be callable on the zero
// value; FromEnv is called on a pointer to a zero value.
type Config interface {
	// Inventory returns every item FromEnv may consult, optional ones included.
	Inventory() []Item

	// FromEnv populates the receiver. Errors should be *LoadError values;
	// anything else is treated as a parse failure.
	FromEnv(src Source) error
}

// Optional distinguishes "not set" from "zero value".
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// None returns an unset Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the wrapped value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// OrDefault returns the wrapped value or the provided default.
func (o Optional[T]) OrDefault(defaultVal T) T {
	if o.Set {
		return o.Value
	}
	return defaultVal
}

func (o Optional[T]) optionalElem() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// optionalType is satisfied by every Optional instantiation.
type optionalType interface {
	optionalElem() reflect.Type
}

// Flag is a presence-style boolean: any non-empty value means true.
type Flag bool

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Flag) UnmarshalText(text []byte) error {
	*f = len(text) > 0
	return nil
}

// Hook observes completed loads. Hooks run synchronously after each
// Loader.Load, successful or not.
type Hook interface {
	AfterLoad(ctx context.Context, ev LoadEvent)
}

// HookFunc is a function adapter for Hook.
type HookFunc func(ctx context.Context, ev LoadEvent)

// AfterLoad implements Hook.
func (f HookFunc) AfterLoad(ctx context.Context, ev LoadEvent) {
	f(ctx, ev)
}

// LoadEvent describes one Loader.Load call.
type LoadEvent struct {
	Type  string    // Go type name of the configuration
	Start time.Time // When the load began
	End   time.Time
	Vars  []string // Every variable consulted, in lookup order
	Err   error
}

// Duration returns the wall time spent in the load.
func (e LoadEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}
