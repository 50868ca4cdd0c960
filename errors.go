package fromenv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Azhovan/fromenv/internal/normalize"
)

// Kind classifies a LoadError.
type Kind int

// Load failure kinds.
const (
	// KindInput: the variable could not be read (absent or an access fault).
	KindInput Kind = iota + 1
	// KindEmpty: the variable is bound to the empty string.
	KindEmpty
	// KindParse: the value is present but failed type-specific conversion.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindEmpty:
		return "empty"
	case KindParse:
		return "parse"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// LoadError is returned by every load operation.
//
// KindInput and KindEmpty are provenance failures: they name the variable
// closest to the failure and are never re-wrapped by enclosing composites.
// KindParse carries the type-specific error in Err, which composites re-tag
// with a *FieldError per nesting level.
type LoadError struct {
	Kind  Kind
	Var   string
	Cause error // KindInput only
	Err   error // KindParse only
}

// Error renders the failure. Parse failures delegate to the inner error.
func (e *LoadError) Error() string {
	switch e.Kind {
	case KindInput:
		return fmt.Sprintf("cannot read variable %s: %v", e.Var, e.Cause)
	case KindEmpty:
		return fmt.Sprintf("environment variable %s is empty", e.Var)
	default:
		if e.Var == "" {
			return fmt.Sprintf("failed to parse environment variable: %v", e.Err)
		}
		return fmt.Sprintf("failed to parse environment variable %s: %v", e.Var, e.Err)
	}
}

// Unwrap returns the underlying cause or parse error.
func (e *LoadError) Unwrap() error {
	if e.Kind == KindParse {
		return e.Err
	}
	return e.Cause
}

// Provenance reports whether the failure concerns the input itself (absent or
// empty) rather than its value.
func (e *LoadError) Provenance() bool {
	return e.Kind == KindInput || e.Kind == KindEmpty
}

// Map re-tags the parse payload with f. Provenance failures are returned
// unchanged.
func (e *LoadError) Map(f func(error) error) *LoadError {
	if e.Kind != KindParse {
		return e
	}
	return &LoadError{Kind: KindParse, Var: e.Var, Err: f(e.Err)}
}

// Infallible converts the error of a field that cannot fail to parse. It
// panics on a parse failure; schema compilation makes that unreachable.
func (e *LoadError) Infallible() *LoadError {
	if e.Kind == KindParse {
		panic(fmt.Sprintf("fromenv: parse failure from infallible input %s: %v", e.Var, e.Err))
	}
	return e
}

func inputError(name string, cause error) *LoadError {
	return &LoadError{Kind: KindInput, Var: name, Cause: cause}
}

func emptyError(name string) *LoadError {
	return &LoadError{Kind: KindEmpty, Var: name}
}

func parseError(name string, err error) *LoadError {
	return &LoadError{Kind: KindParse, Var: name, Err: err}
}

// asLoadError normalizes err into a *LoadError; foreign errors become parse
// failures.
func asLoadError(err error) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	return &LoadError{Kind: KindParse, Err: err}
}

// IsProvenance reports whether err is a provenance LoadError (the variable is
// absent, unreadable or empty).
func IsProvenance(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Provenance()
}

// WrapField re-tags err as a failure of field in the composite typeName. It is
// the hand-written counterpart of what Load does for tagged fields. A nil err
// returns nil.
func WrapField(typeName, field string, err error) error {
	if err == nil {
		return nil
	}
	variant := normalize.PascalCase(field)
	return asLoadError(err).Map(func(inner error) error {
		return &FieldError{Type: typeName, Field: variant, Err: inner}
	})
}

// Infallible passes through provenance failures of a field that cannot fail
// to parse, and panics on a parse failure. A nil err returns nil.
func Infallible(err error) error {
	if err == nil {
		return nil
	}
	return asLoadError(err).Infallible()
}

// FieldError is the error of one composite field: the Go rendition of a
// per-type error enum with one variant per fallible field.
type FieldError struct {
	Type  string // Composite type name
	Field string // Variant name, derived from the field identifier
	Err   error  // The field's own error
}

// Error delegates to the field's error.
func (e *FieldError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the field's error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Path returns the dot-separated field path through nested composites
// (e.g. "LittleConfig.Tony").
func (e *FieldError) Path() string {
	path := e.Field
	var next *FieldError
	if errors.As(e.Err, &next) {
		path = normalize.JoinPath(path, next.Path())
	}
	return path
}

// MissingError lists required inputs that are not bound.
type MissingError struct {
	Items []Item
}

// Error formats the missing items as a multi-line message.
func (e *MissingError) Error() string {
	if len(e.Items) == 0 {
		return "missing environment variables: none"
	}

	var b strings.Builder
	if len(e.Items) == 1 {
		b.WriteString("missing environment variables: 1 item\n")
	} else {
		fmt.Fprintf(&b, "missing environment variables: %d items\n", len(e.Items))
	}

	for _, item := range e.Items {
		fmt.Fprintf(&b, "  - %s: %s\n", item.Var, item.Description)
	}

	return strings.TrimRight(b.String(), "\n")
}

// SchemaError reports an invalid configuration declaration: the build-time
// failure of tag-driven loading.
type SchemaError struct {
	Type   string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("fromenv: invalid config type %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("fromenv: invalid config type %s: field %s: %s", e.Type, e.Field, e.Reason)
}
