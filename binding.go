package fromenv

import (
	"fmt"
	"strings"
)

// Struct tag keys read by the schema compiler.
const (
	tagKey  = "fromenv"
	descKey = "desc"
)

// tagConfig holds parsed directives from a struct field's `fromenv` tag.
type tagConfig struct {
	varName    string // var:NAME
	optional   bool   // Informational, reported in the inventory
	infallible bool   // Field cannot fail to parse; no FieldError variant
	secret     bool   // Value is never retained in provenance
	skip       bool   // Field is left at its zero value
	desc       string // From the separate `desc` tag
	hasDesc    bool
}

// hasLeafDirectives reports whether the tag carries anything only a leaf
// field may declare.
func (c tagConfig) hasLeafDirectives() bool {
	return c.varName != "" || c.hasDesc || c.optional || c.secret
}

// parseTag parses a `fromenv` struct tag.
// Tag format: "var:NAME,optional,infallible,secret" or "skip".
// Boolean directives take no value.
func parseTag(tag string) (tagConfig, error) {
	cfg := tagConfig{}

	if strings.TrimSpace(tag) == "" {
		return cfg, nil
	}

	for _, directive := range strings.Split(tag, ",") {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}

		name, value, hasValue := strings.Cut(directive, ":")
		name = strings.TrimSpace(name)

		switch name {
		case "var":
			value = strings.TrimSpace(value)
			if value == "" {
				return cfg, fmt.Errorf("var directive has an empty name")
			}
			cfg.varName = value
			continue
		case "optional":
			cfg.optional = true
		case "infallible":
			cfg.infallible = true
		case "secret":
			cfg.secret = true
		case "skip":
			cfg.skip = true
		default:
			return cfg, fmt.Errorf("unknown directive %q", name)
		}

		if hasValue {
			return cfg, fmt.Errorf("directive %q takes no value", name)
		}
	}

	if cfg.skip && (cfg.varName != "" || cfg.optional || cfg.infallible || cfg.secret) {
		return cfg, fmt.Errorf("skip cannot be combined with other directives")
	}

	return cfg, nil
}
