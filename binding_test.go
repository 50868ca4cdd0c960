package fromenv

import (
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBinding_ParseTag(t *testing.T) {
	tests := []struct {
		name        string
		tag         string
		expected    tagConfig
		errContains string
	}{
		// Basic directives
		{
			name:     "empty tag",
			tag:      "",
			expected: tagConfig{},
		},
		{
			name:     "whitespace only",
			tag:      "   ",
			expected: tagConfig{},
		},
		{
			name:     "var directive",
			tag:      "var:DB_HOST",
			expected: tagConfig{varName: "DB_HOST"},
		},
		{
			name:     "var with surrounding spaces",
			tag:      " var: DB_HOST ",
			expected: tagConfig{varName: "DB_HOST"},
		},
		{
			name: "all leaf directives",
			tag:  "var:API_KEY,optional,infallible,secret",
			expected: tagConfig{
				varName:    "API_KEY",
				optional:   true,
				infallible: true,
				secret:     true,
			},
		},
		{
			name:     "empty segments are ignored",
			tag:      "var:PORT,,optional,",
			expected: tagConfig{varName: "PORT", optional: true},
		},
		{
			name:     "infallible alone",
			tag:      "infallible",
			expected: tagConfig{infallible: true},
		},
		{
			name:     "skip",
			tag:      "skip",
			expected: tagConfig{skip: true},
		},

		// Errors
		{
			name:        "unknown directive",
			tag:         "var:X,required",
			errContains: `unknown directive "required"`,
		},
		{
			name:        "empty var name",
			tag:         "var:",
			errContains: "empty name",
		},
		{
			name:        "boolean directive with a value",
			tag:         "optional:true",
			errContains: `directive "optional" takes no value`,
		},
		{
			name:        "skip with var",
			tag:         "skip,var:X",
			errContains: "skip cannot be combined",
		},
		{
			name:        "skip with infallible",
			tag:         "infallible,skip",
			errContains: "skip cannot be combined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTag(tt.tag)
			if tt.errContains != "" {
				if err == nil {
					t.Fatalf("parseTag(%q) expected error containing %q, got nil", tt.tag, tt.errContains)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("parseTag(%q) error = %q, want it to contain %q", tt.tag, err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTag(%q) unexpected error: %v", tt.tag, err)
			}
			if got != tt.expected {
				t.Errorf("parseTag(%q) = %+v, want %+v", tt.tag, got, tt.expected)
			}
		})
	}
}

func TestBinding_HasLeafDirectives(t *testing.T) {
	tests := []struct {
		cfg  tagConfig
		want bool
	}{
		{tagConfig{}, false},
		{tagConfig{infallible: true}, false},
		{tagConfig{varName: "X"}, true},
		{tagConfig{hasDesc: true}, true},
		{tagConfig{optional: true}, true},
		{tagConfig{secret: true}, true},
	}

	for _, tt := range tests {
		if got := tt.cfg.hasLeafDirectives(); got != tt.want {
			t.Errorf("%+v.hasLeafDirectives() = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}

type upperText string

func (u *upperText) UnmarshalText(b []byte) error {
	*u = upperText(strings.ToUpper(string(b)))
	return nil
}

func TestBinding_Codec(t *testing.T) {
	tests := []struct {
		name           string
		target         reflect.Type
		raw            string
		want           any
		wantInfallible bool
		errContains    string
	}{
		// Strings
		{name: "string", target: reflect.TypeOf(""), raw: "hello", want: "hello", wantInfallible: true},
		{name: "string keeps spaces", target: reflect.TypeOf(""), raw: " a b ", want: " a b ", wantInfallible: true},

		// Bools
		{name: "bool true", target: reflect.TypeOf(false), raw: "true", want: true},
		{name: "bool 0", target: reflect.TypeOf(false), raw: "0", want: false},
		{name: "bool invalid", target: reflect.TypeOf(false), raw: "yes", errContains: "invalid syntax"},

		// Integers honor the target width
		{name: "int", target: reflect.TypeOf(0), raw: "-42", want: -42},
		{name: "int8 overflow", target: reflect.TypeOf(int8(0)), raw: "128", errContains: "out of range"},
		{name: "uint8", target: reflect.TypeOf(uint8(0)), raw: "255", want: uint8(255)},
		{name: "uint8 overflow", target: reflect.TypeOf(uint8(0)), raw: "256", errContains: "out of range"},
		{name: "uint negative", target: reflect.TypeOf(uint(0)), raw: "-1", errContains: "invalid syntax"},
		{name: "uint64", target: reflect.TypeOf(uint64(0)), raw: "18446744073709551615", want: uint64(18446744073709551615)},

		// Floats
		{name: "float64", target: reflect.TypeOf(0.0), raw: "3.5", want: 3.5},
		{name: "float32", target: reflect.TypeOf(float32(0)), raw: "0.25", want: float32(0.25)},
		{name: "float invalid", target: reflect.TypeOf(0.0), raw: "pi", errContains: "invalid syntax"},

		// Durations: bare digits are milliseconds
		{name: "duration millis", target: reflect.TypeOf(time.Duration(0)), raw: "1500", want: 1500 * time.Millisecond},
		{name: "duration string", target: reflect.TypeOf(time.Duration(0)), raw: "2m", want: 2 * time.Minute},
		{name: "duration invalid", target: reflect.TypeOf(time.Duration(0)), raw: "soon", errContains: "invalid duration"},

		// Special leaves
		{name: "level", target: reflect.TypeOf(zerolog.Level(0)), raw: "WARN", want: zerolog.WarnLevel},
		{name: "level off", target: reflect.TypeOf(zerolog.Level(0)), raw: "off", want: zerolog.Disabled},
		{name: "flag any value", target: reflect.TypeOf(Flag(false)), raw: "false", want: Flag(true), wantInfallible: true},
		{name: "url", target: reflect.TypeOf(url.URL{}), raw: "http://localhost:4318", want: url.URL{Scheme: "http", Host: "localhost:4318"}},
		{name: "url relative", target: reflect.TypeOf(url.URL{}), raw: "localhost", errContains: "not an absolute URL"},
		{name: "text unmarshaler", target: reflect.TypeOf(upperText("")), raw: "abc", want: upperText("ABC")},

		// Lists
		{name: "string list", target: reflect.TypeOf([]string{}), raw: "a,b,c", want: []string{"a", "b", "c"}, wantInfallible: true},
		{name: "int list", target: reflect.TypeOf([]int{}), raw: "1,2,3", want: []int{1, 2, 3}},
		{name: "int list bad element", target: reflect.TypeOf([]int{}), raw: "1,x", errContains: "element 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, ok := codecFor(tt.target)
			if !ok {
				t.Fatalf("codecFor(%v) reported no codec", tt.target)
			}
			if codec.infallible != tt.wantInfallible {
				t.Errorf("codecFor(%v).infallible = %v, want %v", tt.target, codec.infallible, tt.wantInfallible)
			}

			dst := reflect.New(tt.target).Elem()
			err := codec.decode(tt.raw, dst)
			if tt.errContains != "" {
				if err == nil {
					t.Fatalf("decode(%q) expected error containing %q, got nil", tt.raw, tt.errContains)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("decode(%q) error = %q, want it to contain %q", tt.raw, err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode(%q) unexpected error: %v", tt.raw, err)
			}
			if !reflect.DeepEqual(dst.Interface(), tt.want) {
				t.Errorf("decode(%q) = %#v, want %#v", tt.raw, dst.Interface(), tt.want)
			}
		})
	}
}

func TestBinding_CodecUnsupported(t *testing.T) {
	unsupported := []reflect.Type{
		reflect.TypeOf(map[string]string{}),
		reflect.TypeOf([][]string{}),
		reflect.TypeOf(struct{ A int }{}),
		reflect.TypeOf(make(chan int)),
	}

	for _, typ := range unsupported {
		if _, ok := codecFor(typ); ok {
			t.Errorf("codecFor(%v) reported a codec, want none", typ)
		}
	}
}
