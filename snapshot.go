package fromenv

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = "1"

// MaxSnapshotSize bounds the serialized size of a snapshot (1MB).
const MaxSnapshotSize = 1 << 20

// Snapshot errors.
var (
	// ErrNilConfig is returned when a nil config is passed.
	ErrNilConfig = errors.New("fromenv: config is nil")

	// ErrNoProvenance is returned when cfg was not produced by a Loader.
	ErrNoProvenance = errors.New("fromenv: no provenance recorded for config")

	// ErrSnapshotTooLarge is returned when a snapshot exceeds MaxSnapshotSize.
	ErrSnapshotTooLarge = errors.New("fromenv: snapshot exceeds size limit")
)

// LoadSnapshot is a point-in-time record of the variables a load consulted.
type LoadSnapshot struct {
	ID        string        `json:"id"`
	Version   string        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	Type      string        `json:"type"`
	Variables []SnapshotVar `json:"variables"`
}

// SnapshotVar is one consulted variable. Value is nil when the variable was
// unset and redacted for secret fields.
type SnapshotVar struct {
	Var    string  `json:"var"`
	Field  string  `json:"field"`
	Value  *string `json:"value"`
	Source string  `json:"source,omitempty"`
	Secret bool    `json:"secret,omitempty"`
}

// CreateSnapshot captures the provenance of cfg, which must come from
// Loader.Load.
func CreateSnapshot[T any](cfg *T) (*LoadSnapshot, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	prov, ok := GetProvenance(cfg)
	if !ok {
		return nil, ErrNoProvenance
	}

	snap := &LoadSnapshot{
		ID:        uuid.NewString(),
		Version:   SnapshotVersion,
		Timestamp: time.Now(),
		Type:      reflect.TypeFor[T]().String(),
		Variables: make([]SnapshotVar, 0, len(prov.Fields)),
	}

	for _, f := range prov.Fields {
		v := SnapshotVar{Var: f.Var, Field: f.FieldPath, Source: f.SourceName, Secret: f.Secret}
		if f.Present {
			value := f.Value
			if f.Secret {
				value = redacted
			}
			v.Value = &value
		}
		snap.Variables = append(snap.Variables, v)
	}

	return snap, nil
}

// ExpandPath replaces every {{timestamp}} in template with t formatted as
// 20060102-150405 (UTC).
func ExpandPath(template string, t time.Time) string {
	return strings.ReplaceAll(template, "{{timestamp}}", t.UTC().Format("20060102-150405"))
}

// WriteSnapshot writes snap as indented JSON to pathTemplate, expanded with
// the snapshot's own timestamp. The file is replaced atomically and created
// with 0600 permissions. Returns the written path.
func WriteSnapshot(snap *LoadSnapshot, pathTemplate string) (string, error) {
	if snap == nil {
		return "", ErrNilConfig
	}

	target := ExpandPath(pathTemplate, snap.Timestamp)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if len(data) > MaxSnapshotSize {
		return "", ErrSnapshotTooLarge
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", err
		}
	}

	tmp := tempName(target)
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	return target, nil
}

// tempName returns a sibling of target so the final rename stays on one
// filesystem.
func tempName(target string) string {
	return target + ".tmp." + uuid.NewString()
}
