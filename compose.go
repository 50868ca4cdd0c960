package fromenv

import (
	"errors"
	"reflect"
)

// Inventory returns every input a load of T may consult, in field
// declaration order, optional ones included. Composite fields contribute
// their full inventory; duplicates are kept.
func Inventory[T any]() ([]Item, error) {
	p, err := planFor(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return append([]Item(nil), p.items...), nil
}

// MustInventory is like Inventory but panics on an invalid declaration.
func MustInventory[T any]() []Item {
	items, err := Inventory[T]()
	if err != nil {
		panic(err)
	}
	return items
}

// CheckInventory reports every required input of T that src cannot read.
// It checks presence only: a variable bound to "" counts as present.
func CheckInventory[T any](src Source) error {
	items, err := Inventory[T]()
	if err != nil {
		return err
	}
	return CheckPresence(src, items)
}

// CheckPresence is CheckInventory over an explicit item list, for
// hand-written Config implementations. It returns a *MissingError listing
// the missing items in order, or nil.
func CheckPresence(src Source, items []Item) error {
	var missing []Item
	for _, item := range items {
		if item.Optional {
			continue
		}
		if _, err := src.Lookup(item.Var); err != nil {
			missing = append(missing, item)
		}
	}

	if len(missing) > 0 {
		return &MissingError{Items: missing}
	}
	return nil
}

// Load builds a T from src. Fields are loaded in declaration order and the
// first failure aborts the load. The returned error is a *LoadError, or a
// *SchemaError when T's declaration is invalid.
func Load[T any](src Source) (*T, error) {
	cfg, _, err := load[T](src)
	return cfg, err
}

// load runs the compiled plan for T and returns the lookup records.
func load[T any](src Source) (*T, []FieldProvenance, error) {
	p, err := planFor(reflect.TypeFor[T]())
	if err != nil {
		return nil, nil, err
	}

	st := &loadState{src: src}
	cfg := new(T)
	if lerr := p.root.load(st, reflect.ValueOf(cfg).Elem()); lerr != nil {
		return nil, st.records, lerr
	}
	return cfg, st.records, nil
}

// IsSchemaError reports whether err stems from an invalid declaration.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
