package fromenv

import (
	"encoding"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type float interface {
	~float32 | ~float64
}

// String returns raw unchanged. It never fails.
func String(raw string) (string, error) {
	return raw, nil
}

// Int parses a base-10 signed integer that fits in T.
func Int[T signed](raw string) (T, error) {
	n, err := strconv.ParseInt(raw, 10, reflect.TypeFor[T]().Bits())
	if err != nil {
		return 0, err
	}
	return T(n), nil
}

// Uint parses a base-10 unsigned integer that fits in T.
func Uint[T unsigned](raw string) (T, error) {
	n, err := strconv.ParseUint(raw, 10, reflect.TypeFor[T]().Bits())
	if err != nil {
		return 0, err
	}
	return T(n), nil
}

// Float parses a floating-point number of T's precision.
func Float[T float](raw string) (T, error) {
	f, err := strconv.ParseFloat(raw, reflect.TypeFor[T]().Bits())
	if err != nil {
		return 0, err
	}
	return T(f), nil
}

// Bool parses the values accepted by strconv.ParseBool.
func Bool(raw string) (bool, error) {
	return strconv.ParseBool(raw)
}

// FlagValue treats any non-empty value as true. It never fails.
func FlagValue(raw string) (Flag, error) {
	return Flag(raw != ""), nil
}

// Millis parses an unsigned integer count of milliseconds.
func Millis(raw string) (time.Duration, error) {
	ms, err := strconv.ParseUint(raw, 10, 63)
	if err != nil {
		return 0, err
	}
	if ms > maxMillis {
		return 0, &strconv.NumError{Func: "Millis", Num: raw, Err: strconv.ErrRange}
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// maxMillis is the largest millisecond count a time.Duration can hold.
const maxMillis = uint64(math.MaxInt64 / int64(time.Millisecond))

// Duration parses a Go duration string ("1.5s", "250ms"). A bare integer is
// read as milliseconds.
func Duration(raw string) (time.Duration, error) {
	if isDigits(raw) {
		return Millis(raw)
	}
	return time.ParseDuration(raw)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// URL parses an absolute URL (scheme and host required).
func URL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("fromenv: %q is not an absolute URL", raw)
	}
	return u, nil
}

// Level parses a log level name (trace, debug, info, warn, error, fatal,
// panic, disabled), ignoring case. "off" is an alias for disabled. Numeric
// levels are rejected.
func Level(raw string) (zerolog.Level, error) {
	switch name := strings.ToLower(raw); name {
	case "off":
		return zerolog.Disabled, nil
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
		return zerolog.ParseLevel(name)
	default:
		return zerolog.NoLevel, fmt.Errorf("fromenv: unknown log level %q", raw)
	}
}

// List splits a comma-separated value. It never fails.
func List(raw string) ([]string, error) {
	return strings.Split(raw, ","), nil
}

// ListOf returns a parser for comma-separated values, each parsed with parse.
// The first element that fails aborts the whole list.
func ListOf[T any](parse Parser[T]) Parser[[]T] {
	return func(raw string) ([]T, error) {
		parts := strings.Split(raw, ",")
		out := make([]T, 0, len(parts))
		for i, part := range parts {
			v, err := parse(part)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, v)
		}
		return out, nil
	}
}

// Text parses any type implementing encoding.TextUnmarshaler.
func Text[T any, PT interface {
	*T
	encoding.TextUnmarshaler
}](raw string) (T, error) {
	var v T
	if err := PT(&v).UnmarshalText([]byte(raw)); err != nil {
		return v, err
	}
	return v, nil
}
