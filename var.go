package fromenv

// Parser converts the raw text of one variable into a T. Parsers must be
// deterministic and free of side effects.
type Parser[T any] func(raw string) (T, error)

// lookup reads name and applies the shared absent/empty rules.
func lookup(src Source, name string) (string, *LoadError) {
	raw, err := src.Lookup(name)
	if err != nil {
		return "", inputError(name, err)
	}
	if raw == "" {
		return "", emptyError(name)
	}
	return raw, nil
}

// LoadVar loads a single value from the variable name.
//
// It fails with KindInput if the variable cannot be read, KindEmpty if it is
// bound to "", and KindParse if parse rejects the value.
func LoadVar[T any](src Source, name string, parse Parser[T]) (T, error) {
	var zero T

	raw, lerr := lookup(src, name)
	if lerr != nil {
		return zero, lerr
	}

	v, err := parse(raw)
	if err != nil {
		return zero, parseError(name, err)
	}
	return v, nil
}

// LoadVarOr is LoadVar with def substituted when the variable is unset or
// empty. A value that fails to parse is still an error.
func LoadVarOr[T any](src Source, name string, parse Parser[T], def T) (T, error) {
	return LoadVarOrElse(src, name, parse, func() T { return def })
}

// LoadVarOrElse is LoadVarOr with a lazily computed default.
func LoadVarOrElse[T any](src Source, name string, parse Parser[T], def func() T) (T, error) {
	v, err := LoadVar(src, name, parse)
	if err != nil {
		if IsProvenance(err) {
			return def(), nil
		}
		return v, err
	}
	return v, nil
}

// LoadVarOrDefault is LoadVarOr with the zero value of T as the default.
func LoadVarOrDefault[T any](src Source, name string, parse Parser[T]) (T, error) {
	var zero T
	return LoadVarOr(src, name, parse, zero)
}

// LoadOptionalVar loads an optional value: unset or empty yields an unset
// Optional, anything else must parse.
func LoadOptionalVar[T any](src Source, name string, parse Parser[T]) (Optional[T], error) {
	v, err := LoadVar(src, name, parse)
	if err != nil {
		if IsProvenance(err) {
			return None[T](), nil
		}
		return None[T](), err
	}
	return Some(v), nil
}
