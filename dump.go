package fromenv

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format selects the rendering of a dump.
type Format int

// Supported dump formats.
const (
	FormatText Format = iota
	FormatJSON
	FormatYAML
	FormatTOML
	FormatMarkdown
	FormatDotenv
)

var formatNames = map[Format]string{
	FormatText:     "text",
	FormatJSON:     "json",
	FormatYAML:     "yaml",
	FormatTOML:     "toml",
	FormatMarkdown: "markdown",
	FormatDotenv:   "dotenv",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat returns the Format with the given name.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "md" {
		return FormatMarkdown, nil
	}
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return FormatText, fmt.Errorf("fromenv: unknown dump format %q", name)
}

// DumpOption configures dump behavior using the functional options pattern.
type DumpOption func(*dumpConfig)

type dumpConfig struct {
	format      Format
	presence    Source // Annotate inventory items as set or unset
	withSources bool   // Include source attribution in effective dumps
	indent      string // Indentation for JSON and YAML output (default: "  ")
}

// WithFormat selects the output format. Default is FormatText.
func WithFormat(f Format) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.format = f
	}
}

// WithPresence annotates each inventory item with whether src binds it.
func WithPresence(src Source) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.presence = src
	}
}

// WithSources includes source attribution for each variable in the output.
func WithSources() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.withSources = true
	}
}

// WithIndent sets the indentation for JSON and YAML output.
// Default is two spaces ("  ").
func WithIndent(indent string) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.indent = indent
	}
}

func newDumpConfig(opts []DumpOption) dumpConfig {
	config := dumpConfig{indent: "  "}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// inventoryRow is the serialized form of one inventory item.
type inventoryRow struct {
	Var         string `json:"var" yaml:"var" toml:"var"`
	Description string `json:"description" yaml:"description" toml:"description"`
	Optional    bool   `json:"optional" yaml:"optional" toml:"optional"`
	Set         *bool  `json:"set,omitempty" yaml:"set,omitempty" toml:"set,omitempty"`
}

type inventoryDoc struct {
	Items []inventoryRow `json:"items" yaml:"items" toml:"items"`
}

// DumpInventory renders an inventory. Returns an error if writing fails.
func DumpInventory(w io.Writer, items []Item, opts ...DumpOption) error {
	config := newDumpConfig(opts)

	rows := make([]inventoryRow, len(items))
	for i, item := range items {
		rows[i] = inventoryRow{Var: item.Var, Description: item.Description, Optional: item.Optional}
		if config.presence != nil {
			_, err := config.presence.Lookup(item.Var)
			set := err == nil
			rows[i].Set = &set
		}
	}

	switch config.format {
	case FormatText:
		return dumpInventoryText(w, rows)
	case FormatMarkdown:
		return dumpInventoryMarkdown(w, rows, config.presence != nil)
	case FormatDotenv:
		return dumpInventoryDotenv(w, rows)
	default:
		return encodeDoc(w, inventoryDoc{Items: rows}, config)
	}
}

func dumpInventoryText(w io.Writer, rows []inventoryRow) error {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(row.Var)
		if row.Optional {
			b.WriteString(" (optional)")
		}
		b.WriteString(": ")
		b.WriteString(row.Description)
		if row.Set != nil {
			b.WriteString(" [" + setLabel(*row.Set) + "]")
		}
		b.WriteString("\n")
	}
	return writeString(w, b.String())
}

func dumpInventoryMarkdown(w io.Writer, rows []inventoryRow, withPresence bool) error {
	var b strings.Builder
	if withPresence {
		b.WriteString("| Variable | Description | Optional | Set |\n")
		b.WriteString("|---|---|---|---|\n")
	} else {
		b.WriteString("| Variable | Description | Optional |\n")
		b.WriteString("|---|---|---|\n")
	}

	for _, row := range rows {
		desc := strings.ReplaceAll(row.Description, "|", `\|`)
		fmt.Fprintf(&b, "| `%s` | %s | %s |", row.Var, desc, yesNo(row.Optional))
		if withPresence {
			fmt.Fprintf(&b, " %s |", yesNo(row.Set != nil && *row.Set))
		}
		b.WriteString("\n")
	}
	return writeString(w, b.String())
}

func dumpInventoryDotenv(w io.Writer, rows []inventoryRow) error {
	var b strings.Builder
	for _, row := range rows {
		if row.Optional {
			fmt.Fprintf(&b, "# %s (optional)\n# %s=\n", row.Description, row.Var)
		} else {
			fmt.Fprintf(&b, "# %s\n%s=\n", row.Description, row.Var)
		}
	}
	return writeString(w, b.String())
}

// effectiveRow is the serialized form of one consulted variable.
type effectiveRow struct {
	Var    string  `json:"var" yaml:"var"`
	Field  string  `json:"field" yaml:"field"`
	Value  *string `json:"value" yaml:"value"`
	Source string  `json:"source,omitempty" yaml:"source,omitempty"`
}

const redacted = "***redacted***"

// DumpEffective writes the variables consulted while loading cfg with a
// Loader. Secret values are redacted as "***redacted***" and unset ones are
// shown as "<not set>". A variable read by several fields appears once per
// field. Supports FormatText, FormatJSON and FormatYAML.
func DumpEffective[T any](w io.Writer, cfg *T, opts ...DumpOption) error {
	if cfg == nil {
		return ErrNilConfig
	}

	prov, ok := GetProvenance(cfg)
	if !ok {
		return ErrNoProvenance
	}

	config := newDumpConfig(opts)

	type rowKey struct{ name, field string }
	seen := make(map[rowKey]bool, len(prov.Fields))
	rows := make([]effectiveRow, 0, len(prov.Fields))
	for _, f := range prov.Fields {
		key := rowKey{f.Var, f.FieldPath}
		if seen[key] {
			continue
		}
		seen[key] = true

		row := effectiveRow{Var: f.Var, Field: f.FieldPath}
		if f.Present {
			value := f.Value
			if f.Secret {
				value = redacted
			}
			row.Value = &value
		}
		if config.withSources {
			row.Source = f.SourceName
		}
		rows = append(rows, row)
	}

	switch config.format {
	case FormatText:
		var b strings.Builder
		for _, row := range rows {
			value := "<not set>"
			if row.Value != nil {
				value = *row.Value
			}
			fmt.Fprintf(&b, "%s=%s", row.Var, value)
			if config.withSources && row.Source != "" {
				fmt.Fprintf(&b, " (source: %s)", row.Source)
			}
			b.WriteString("\n")
		}
		return writeString(w, b.String())
	case FormatJSON, FormatYAML:
		return encodeDoc(w, rows, config)
	default:
		return fmt.Errorf("fromenv: format %s not supported for effective dumps", config.format)
	}
}

// encodeDoc serializes v in one of the structured formats.
func encodeDoc(w io.Writer, v any, config dumpConfig) error {
	switch config.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", config.indent)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("json encode error: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(len(config.indent))
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("yaml encode error: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("yaml encode error: %w", err)
		}
		return nil
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentSymbol(config.indent)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("toml encode error: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("fromenv: unknown dump format %s", config.format)
	}
}

func writeString(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

func setLabel(set bool) string {
	if set {
		return "set"
	}
	return "unset"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
