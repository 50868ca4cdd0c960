package fromenv

import (
	"reflect"
	"sync"

	"github.com/Azhovan/fromenv/internal/normalize"
)

// plan is the compiled loading schema of one configuration type.
type plan struct {
	typ   reflect.Type
	root  node
	items []Item
}

// node is one step of a compiled plan.
type node interface {
	inventory(dst []Item) []Item
	load(st *loadState, dst reflect.Value) *LoadError
	fallible() bool
}

var planCache sync.Map // reflect.Type -> planEntry

type planEntry struct {
	plan *plan
	err  error
}

// planFor returns the cached plan for t, compiling it on first use.
func planFor(t reflect.Type) (*plan, error) {
	if cached, ok := planCache.Load(t); ok {
		entry := cached.(planEntry)
		return entry.plan, entry.err
	}

	p, err := compilePlan(t)
	entry, _ := planCache.LoadOrStore(t, planEntry{plan: p, err: err})
	e := entry.(planEntry)
	return e.plan, e.err
}

func compilePlan(t reflect.Type) (*plan, error) {
	c := &compiler{visiting: make(map[reflect.Type]bool)}
	root, err := c.composite(t, "")
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, &SchemaError{Type: t.String(), Reason: "not a struct or Config implementation"}
	}
	return &plan{typ: t, root: root, items: root.inventory(nil)}, nil
}

// compiler walks a type graph, rejecting recursive types.
type compiler struct {
	visiting map[reflect.Type]bool
}

// composite returns the node of a composite type, or nil if t is not one.
func (c *compiler) composite(t reflect.Type, path string) (node, error) {
	if t.Implements(configType) || reflect.PointerTo(t).Implements(configType) {
		if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
			return nil, &SchemaError{Type: t.String(), Reason: "Config must be implemented by a named non-pointer type"}
		}
		return &configNode{typ: t, path: path, items: zeroConfig(t).Inventory()}, nil
	}

	if t.Kind() != reflect.Struct {
		return nil, nil
	}
	if _, leaf := codecFor(t); leaf {
		return nil, nil
	}

	if c.visiting[t] {
		return nil, &SchemaError{Type: t.String(), Reason: "recursive type"}
	}
	c.visiting[t] = true
	defer delete(c.visiting, t)

	sn := &structNode{typ: t}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		fp, err := c.field(t, field, normalize.JoinPath(path, field.Name))
		if err != nil {
			return nil, err
		}
		if fp != nil {
			fp.index = i
			sn.fields = append(sn.fields, *fp)
		}
	}
	return sn, nil
}

func (c *compiler) field(owner reflect.Type, field reflect.StructField, path string) (*fieldPlan, error) {
	fail := func(reason string) error {
		return &SchemaError{Type: owner.String(), Field: field.Name, Reason: reason}
	}

	tag, err := parseTag(field.Tag.Get(tagKey))
	if err != nil {
		return nil, fail(err.Error())
	}
	tag.desc, tag.hasDesc = field.Tag.Lookup(descKey)

	if tag.skip {
		return nil, nil
	}

	// Peel pointer and Optional layers, outermost first.
	var layers []reflect.Type
	base := field.Type
	seenOptional := false
	for {
		if base.Kind() == reflect.Pointer {
			layers = append(layers, base)
			base = base.Elem()
			continue
		}
		if base.Implements(optionalIface) {
			if seenOptional {
				return nil, fail("nested Optional")
			}
			seenOptional = true
			layers = append(layers, base)
			base = reflect.Zero(base).Interface().(optionalType).optionalElem()
			continue
		}
		break
	}

	var inner node
	composite, err := c.composite(base, path)
	if err != nil {
		return nil, err
	}

	if composite != nil {
		if tag.hasLeafDirectives() {
			return nil, fail("var, desc, optional and secret apply to leaf fields only")
		}
		inner = composite
	} else {
		codec, ok := codecFor(base)
		if !ok {
			return nil, fail("unsupported type " + base.String())
		}
		if tag.varName == "" {
			return nil, fail("leaf field requires a var directive")
		}
		if tag.desc == "" {
			return nil, fail("var " + tag.varName + " requires a non-empty desc")
		}
		inner = &leafNode{
			item:   Item{Var: tag.varName, Description: tag.desc, Optional: tag.optional},
			path:   path,
			secret: tag.secret,
			codec:  codec,
		}
	}

	for i := len(layers) - 1; i >= 0; i-- {
		if layers[i].Kind() == reflect.Pointer {
			inner = &pointerNode{typ: layers[i], elem: inner}
		} else {
			inner = &optionalNode{elem: inner}
		}
	}

	if tag.infallible && inner.fallible() {
		return nil, fail("infallible on a field whose load can fail to parse")
	}

	return &fieldPlan{
		variant:    normalize.PascalCase(field.Name),
		infallible: tag.infallible,
		node:       inner,
	}, nil
}

// zeroConfig returns a pointer to a zero value of t as a Config.
func zeroConfig(t reflect.Type) Config {
	return reflect.New(t).Interface().(Config)
}

type fieldPlan struct {
	index      int
	variant    string
	infallible bool
	node       node
}

// structNode loads a tagged struct field by field, in declaration order.
type structNode struct {
	typ    reflect.Type
	fields []fieldPlan
}

func (n *structNode) inventory(dst []Item) []Item {
	for _, f := range n.fields {
		dst = f.node.inventory(dst)
	}
	return dst
}

func (n *structNode) load(st *loadState, dst reflect.Value) *LoadError {
	for _, f := range n.fields {
		lerr := f.node.load(st, dst.Field(f.index))
		if lerr == nil {
			continue
		}
		if f.infallible {
			return lerr.Infallible()
		}
		typeName, variant := n.typ.Name(), f.variant
		return lerr.Map(func(inner error) error {
			return &FieldError{Type: typeName, Field: variant, Err: inner}
		})
	}
	return nil
}

func (n *structNode) fallible() bool {
	for _, f := range n.fields {
		if !f.infallible && f.node.fallible() {
			return true
		}
	}
	return false
}

// configNode delegates to a hand-written Config.
type configNode struct {
	typ   reflect.Type
	path  string
	items []Item
}

func (n *configNode) inventory(dst []Item) []Item {
	return append(dst, n.items...)
}

func (n *configNode) load(st *loadState, dst reflect.Value) *LoadError {
	ptr := reflect.New(n.typ)
	if err := ptr.Interface().(Config).FromEnv(st.recorder(n.path)); err != nil {
		return asLoadError(err)
	}
	dst.Set(ptr.Elem())
	return nil
}

func (n *configNode) fallible() bool { return true }

// leafNode reads one variable.
type leafNode struct {
	item   Item
	path   string
	secret bool
	codec  leafCodec
}

func (n *leafNode) inventory(dst []Item) []Item {
	return append(dst, n.item)
}

func (n *leafNode) load(st *loadState, dst reflect.Value) *LoadError {
	raw, lerr := st.lookup(n.path, n.item.Var, n.secret)
	if lerr != nil {
		return lerr
	}
	if err := n.codec.decode(raw, dst); err != nil {
		return parseError(n.item.Var, err)
	}
	return nil
}

func (n *leafNode) fallible() bool { return !n.codec.infallible }

// pointerNode allocates the pointee and delegates to it.
type pointerNode struct {
	typ  reflect.Type
	elem node
}

func (n *pointerNode) inventory(dst []Item) []Item { return n.elem.inventory(dst) }

func (n *pointerNode) load(st *loadState, dst reflect.Value) *LoadError {
	ptr := reflect.New(n.typ.Elem())
	if lerr := n.elem.load(st, ptr.Elem()); lerr != nil {
		return lerr
	}
	dst.Set(ptr)
	return nil
}

func (n *pointerNode) fallible() bool { return n.elem.fallible() }

// optionalNode turns provenance failures of its element into an unset
// Optional. Parse failures propagate.
type optionalNode struct {
	elem node
}

func (n *optionalNode) inventory(dst []Item) []Item { return n.elem.inventory(dst) }

func (n *optionalNode) load(st *loadState, dst reflect.Value) *LoadError {
	value := dst.Field(0)
	lerr := n.elem.load(st, value)
	if lerr != nil {
		value.SetZero()
		if lerr.Provenance() {
			dst.Field(1).SetBool(false)
			return nil
		}
		return lerr
	}
	dst.Field(1).SetBool(true)
	return nil
}

func (n *optionalNode) fallible() bool { return n.elem.fallible() }

// resolver is implemented by sources that can report which underlying source
// answered a lookup.
type resolver interface {
	resolve(name string) (value, source string, err error)
}

// loadState carries the source through one load and records every lookup.
type loadState struct {
	src     Source
	records []FieldProvenance
}

func (st *loadState) fetch(name string) (string, string, error) {
	if r, ok := st.src.(resolver); ok {
		return r.resolve(name)
	}
	v, err := st.src.Lookup(name)
	if err != nil {
		return "", "", err
	}
	return v, st.src.Name(), nil
}

// lookup reads name for the field at path, applying the absent/empty rules.
func (st *loadState) lookup(path, name string, secret bool) (string, *LoadError) {
	raw, origin, err := st.fetch(name)

	rec := FieldProvenance{FieldPath: path, Var: name, Secret: secret}
	if err == nil {
		rec.Present = true
		rec.SourceName = origin
		if !secret {
			rec.Value = raw
		}
	}
	st.records = append(st.records, rec)

	if err != nil {
		return "", inputError(name, err)
	}
	if raw == "" {
		return "", emptyError(name)
	}
	return raw, nil
}

// recorder returns a Source for hand-written Config types that records their
// lookups under path.
func (st *loadState) recorder(path string) Source {
	return &recordingSource{st: st, path: path}
}

type recordingSource struct {
	st   *loadState
	path string
}

func (r *recordingSource) Lookup(name string) (string, error) {
	raw, origin, err := r.st.fetch(name)

	rec := FieldProvenance{FieldPath: r.path, Var: name}
	if err == nil {
		rec.Present = true
		rec.SourceName = origin
		rec.Value = raw
	}
	r.st.records = append(r.st.records, rec)

	return raw, err
}

func (r *recordingSource) Name() string { return r.st.src.Name() }
