package fromenv

import "sync"

// Provenance records the lookups performed while loading a configuration.
type Provenance struct {
	Fields []FieldProvenance
}

// FieldProvenance describes one variable consulted during a load.
type FieldProvenance struct {
	FieldPath  string // Dot notation (e.g., "Database.Host")
	Var        string // Variable name (e.g., "DB_HOST")
	SourceName string // Source that answered (e.g., "env"); empty when absent
	Present    bool   // Whether any source bound the variable
	Secret     bool   // Whether the field is secret
	Value      string // Raw value; never kept for secret fields
}

// Lookup returns the record of the named variable, if it was consulted.
func (p *Provenance) Lookup(name string) (FieldProvenance, bool) {
	for _, f := range p.Fields {
		if f.Var == name {
			return f, true
		}
	}
	return FieldProvenance{}, false
}

var provenanceStore sync.Map

// GetProvenance returns provenance metadata for a configuration loaded by a
// Loader. Thread-safe.
func GetProvenance[T any](cfg *T) (*Provenance, bool) {
	if cfg == nil {
		return nil, false
	}

	value, ok := provenanceStore.Load(cfg)
	if !ok {
		return nil, false
	}

	prov, ok := value.(*Provenance)
	return prov, ok
}

func storeProvenance[T any](cfg *T, prov *Provenance) {
	if cfg != nil && prov != nil {
		provenanceStore.Store(cfg, prov)
	}
}

// ForgetProvenance drops the provenance recorded for cfg.
func ForgetProvenance[T any](cfg *T) {
	if cfg != nil {
		provenanceStore.Delete(cfg)
	}
}
