package fromenv

import (
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// leafCodec converts raw text into a value of a leaf type.
type leafCodec struct {
	infallible bool
	decode     func(raw string, dst reflect.Value) error
}

var (
	durationType        = reflect.TypeFor[time.Duration]()
	urlType             = reflect.TypeFor[url.URL]()
	levelType           = reflect.TypeFor[zerolog.Level]()
	flagType            = reflect.TypeFor[Flag]()
	configType          = reflect.TypeFor[Config]()
	optionalIface       = reflect.TypeFor[optionalType]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// codecFor returns the codec of a leaf type. The second result is false when
// t is not a leaf.
func codecFor(t reflect.Type) (leafCodec, bool) {
	switch t {
	case levelType:
		return leafCodec{decode: func(raw string, dst reflect.Value) error {
			lvl, err := Level(raw)
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(lvl))
			return nil
		}}, true
	case durationType:
		return leafCodec{decode: func(raw string, dst reflect.Value) error {
			d, err := Duration(raw)
			if err != nil {
				return err
			}
			dst.SetInt(int64(d))
			return nil
		}}, true
	case urlType:
		return leafCodec{decode: func(raw string, dst reflect.Value) error {
			u, err := URL(raw)
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(*u))
			return nil
		}}, true
	case flagType:
		return leafCodec{infallible: true, decode: func(raw string, dst reflect.Value) error {
			dst.SetBool(raw != "")
			return nil
		}}, true
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return leafCodec{decode: func(raw string, dst reflect.Value) error {
			return dst.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
		}}, true
	}

	if c, ok := scalarCodec(t); ok {
		return c, true
	}

	if t.Kind() == reflect.Slice {
		return sliceCodec(t)
	}

	return leafCodec{}, false
}

func scalarCodec(t reflect.Type) (leafCodec, bool) {
	switch t.Kind() {
	case reflect.String:
		return leafCodec{infallible: true, decode: func(raw string, dst reflect.Value) error {
			dst.SetString(raw)
			return nil
		}}, true

	case reflect.Bool:
		return leafCodec{decode: func(raw string, dst reflect.Value) error {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return err
			}
			dst.SetBool(b)
			return nil
		}}, true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := t.Bits()
		return leafCodec{decode: func(raw string, dst reflect.Value) error {
			n, err := strconv.ParseInt(raw, 10, bits)
			if err != nil {
				return err
			}
			dst.SetInt(n)
			return nil
		}}, true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		bits := t.Bits()
		return leafCodec{decode: func(raw string, dst reflect.Value) error {
			n, err := strconv.ParseUint(raw, 10, bits)
			if err != nil {
				return err
			}
			dst.SetUint(n)
			return nil
		}}, true

	case reflect.Float32, reflect.Float64:
		bits := t.Bits()
		return leafCodec{decode: func(raw string, dst reflect.Value) error {
			f, err := strconv.ParseFloat(raw, bits)
			if err != nil {
				return err
			}
			dst.SetFloat(f)
			return nil
		}}, true
	}

	return leafCodec{}, false
}

// sliceCodec handles comma-separated lists of scalar leaves.
func sliceCodec(t reflect.Type) (leafCodec, bool) {
	elem := t.Elem()
	if elem.Kind() == reflect.Slice {
		return leafCodec{}, false
	}

	inner, ok := codecFor(elem)
	if !ok {
		return leafCodec{}, false
	}

	return leafCodec{infallible: inner.infallible, decode: func(raw string, dst reflect.Value) error {
		parts := strings.Split(raw, ",")
		out := reflect.MakeSlice(t, len(parts), len(parts))
		for i, part := range parts {
			if err := inner.decode(part, out.Index(i)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		dst.Set(out)
		return nil
	}}, true
}
