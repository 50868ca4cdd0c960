package normalize

import (
	"strings"
	"unicode"
)

// JoinPath joins field path segments with dots, skipping empty segments.
// Examples:
//   - JoinPath("Database", "Host") → "Database.Host"
//   - JoinPath("", "Host") → "Host"
//   - JoinPath("Database", "") → "Database"
func JoinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if name == "" {
		return prefix
	}
	return prefix + "." + name
}

// ApplyPrefix prepends an environment variable prefix to a name.
// Examples:
//   - ApplyPrefix("APP_", "PORT") → "APP_PORT"
//   - ApplyPrefix("", "PORT") → "PORT"
func ApplyPrefix(prefix, name string) string {
	if prefix == "" || name == "" {
		return name
	}
	return prefix + name
}

// PascalCase converts a field identifier into an error variant name.
// Underscores, dashes and spaces separate words; existing capitals are kept.
// Examples:
//   - "my_cool_u8" → "MyCoolU8"
//   - "charles" → "Charles"
//   - "APIKey" → "APIKey"
//   - "metrics-port" → "MetricsPort"
func PascalCase(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	upper := true
	for _, r := range name {
		if r == '_' || r == '-' || r == ' ' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
