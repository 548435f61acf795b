package schema

import (
	"fmt"
	"reflect"
)

// MaxVariants is the number of variants a one-byte discriminator can address.
const MaxVariants = 256

// MaxNativeLabels bounds native enumerations.
const MaxNativeLabels = 255

type Field struct {
	Index int
	Name  string
	Type  Descriptor
}

type StructOptions struct {
	Fields []Field

	index  map[string]int
	target reflect.Type
	plan   []int
}

func (o *StructOptions) Children() []Descriptor {
	out := make([]Descriptor, len(o.Fields))
	for i, f := range o.Fields {
		out[i] = f.Type
	}
	return out
}

// Field looks up a field by name.
func (o *StructOptions) Field(name string) (Field, bool) {
	i, ok := o.index[name]
	if !ok {
		return Field{}, false
	}
	return o.Fields[i], true
}

// Target returns the Go struct type decoded values are built into, or nil
// when values decode as Record.
func (o *StructOptions) Target() reflect.Type { return o.target }

// Plan maps each field, by position, to its Go struct field index in Target.
func (o *StructOptions) Plan() []int { return o.plan }

// NewStruct numbers fields in declaration order.
func NewStruct(fields ...Field) (Descriptor, error) {
	o := &StructOptions{
		Fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return Descriptor{}, fmt.Errorf("struct field %d has no name: %w", i, ErrSchemaConfig)
		}
		if _, dup := o.index[f.Name]; dup {
			return Descriptor{}, fmt.Errorf("duplicate struct field %q: %w", f.Name, ErrSchemaConfig)
		}
		o.index[f.Name] = i
		o.Fields[i] = Field{Index: i, Name: f.Name, Type: f.Type}
	}
	return Descriptor{Type: Struct, Options: o}, nil
}

// BindStruct returns a copy of the struct descriptor d that decodes into
// target, with plan[i] naming the Go field for schema field i.
func BindStruct(d Descriptor, target reflect.Type, plan []int) (Descriptor, error) {
	o, ok := d.Options.(*StructOptions)
	if !ok || d.Type != Struct {
		return Descriptor{}, fmt.Errorf("bind %s: not a struct schema: %w", d, ErrSchemaConfig)
	}
	if target.Kind() != reflect.Struct || len(plan) != len(o.Fields) {
		return Descriptor{}, fmt.Errorf("bind %s to %s: %w", d, target, ErrSchemaConfig)
	}
	bound := &StructOptions{
		Fields: o.Fields,
		index:  o.index,
		target: target,
		plan:   append([]int(nil), plan...),
	}
	return Descriptor{Type: Struct, Options: bound}, nil
}

type VecOptions struct {
	Elem Descriptor
}

func (o *VecOptions) Children() []Descriptor { return []Descriptor{o.Elem} }

func NewVec(elem Descriptor) Descriptor {
	return Descriptor{Type: Vec, Options: &VecOptions{Elem: elem}}
}

type ArrayOptions struct {
	Elem Descriptor
	Len  int
}

func (o *ArrayOptions) Children() []Descriptor { return []Descriptor{o.Elem} }

func NewArray(elem Descriptor, n int) (Descriptor, error) {
	if n < 0 {
		return Descriptor{}, fmt.Errorf("array length %d: %w", n, ErrSchemaConfig)
	}
	return Descriptor{Type: Array, Options: &ArrayOptions{Elem: elem, Len: n}}, nil
}

// SetOptions describe a set. Ordered sets decode into a slice in wire
// order instead of a Go map; sets whose elements are not comparable always
// do. The encoding is the same either way.
type SetOptions struct {
	Elem    Descriptor
	Ordered bool
}

func (o *SetOptions) Children() []Descriptor { return []Descriptor{o.Elem} }

func NewSet(elem Descriptor) Descriptor {
	return Descriptor{Type: Set, Options: &SetOptions{Elem: elem}}
}

func NewOrderedSet(elem Descriptor) Descriptor {
	return Descriptor{Type: Set, Options: &SetOptions{Elem: elem, Ordered: true}}
}

// MapOptions describe a map. Ordered maps decode into []Entry in wire
// order, as do maps whose keys are not comparable.
type MapOptions struct {
	Key     Descriptor
	Value   Descriptor
	Ordered bool
}

func (o *MapOptions) Children() []Descriptor { return []Descriptor{o.Key, o.Value} }

func NewMap(key, value Descriptor) Descriptor {
	return Descriptor{Type: Map, Options: &MapOptions{Key: key, Value: value}}
}

func NewOrderedMap(key, value Descriptor) Descriptor {
	return Descriptor{Type: Map, Options: &MapOptions{Key: key, Value: value, Ordered: true}}
}

type OptionOptions struct {
	Inner Descriptor
}

func (o *OptionOptions) Children() []Descriptor { return []Descriptor{o.Inner} }

func NewOption(inner Descriptor) Descriptor {
	return Descriptor{Type: Option, Options: &OptionOptions{Inner: inner}}
}

type TupleOptions struct {
	Elems []Descriptor
}

func (o *TupleOptions) Children() []Descriptor { return o.Elems }

func NewTuple(elems ...Descriptor) Descriptor {
	return Descriptor{Type: Tuple, Options: &TupleOptions{Elems: append([]Descriptor(nil), elems...)}}
}

type EnumVariant struct {
	Index int
	Name  string
	Type  Descriptor
}

type EnumOptions struct {
	Variants []EnumVariant

	index map[string]int
}

func (o *EnumOptions) Children() []Descriptor {
	out := make([]Descriptor, len(o.Variants))
	for i, v := range o.Variants {
		out[i] = v.Type
	}
	return out
}

func (o *EnumOptions) Lookup(name string) (EnumVariant, bool) {
	i, ok := o.index[name]
	if !ok {
		return EnumVariant{}, false
	}
	return o.Variants[i], true
}

func (o *EnumOptions) At(index int) (EnumVariant, bool) {
	if index < 0 || index >= len(o.Variants) {
		return EnumVariant{}, false
	}
	return o.Variants[index], true
}

// NewEnum numbers variants in declaration order; the index is the wire
// discriminator.
func NewEnum(variants ...EnumVariant) (Descriptor, error) {
	if len(variants) > MaxVariants {
		return Descriptor{}, fmt.Errorf("enum with %d variants: %w", len(variants), ErrSchemaConfig)
	}
	o := &EnumOptions{
		Variants: make([]EnumVariant, len(variants)),
		index:    make(map[string]int, len(variants)),
	}
	for i, v := range variants {
		if v.Name == "" {
			return Descriptor{}, fmt.Errorf("enum variant %d has no name: %w", i, ErrSchemaConfig)
		}
		if _, dup := o.index[v.Name]; dup {
			return Descriptor{}, fmt.Errorf("duplicate enum variant %q: %w", v.Name, ErrSchemaConfig)
		}
		o.index[v.Name] = i
		o.Variants[i] = EnumVariant{Index: i, Name: v.Name, Type: v.Type}
	}
	return Descriptor{Type: Enum, Options: o}, nil
}

type NativeEnumOptions struct {
	Labels    []any
	LabelType reflect.Type

	index map[any]int
}

func (o *NativeEnumOptions) Children() []Descriptor { return nil }

func (o *NativeEnumOptions) Index(label any) (int, bool) {
	i, ok := o.index[label]
	return i, ok
}

func (o *NativeEnumOptions) Label(index int) (any, bool) {
	if index < 0 || index >= len(o.Labels) {
		return nil, false
	}
	return o.Labels[index], true
}

// NewNativeEnum maps labels to 0-based indices. Labels must be all text or
// all numeric, unique, and at most MaxNativeLabels.
func NewNativeEnum(labelType reflect.Type, labels []any) (Descriptor, error) {
	if len(labels) > MaxNativeLabels {
		return Descriptor{}, fmt.Errorf("native enum with %d labels: %w", len(labels), ErrSchemaConfig)
	}
	o := &NativeEnumOptions{
		Labels:    append([]any(nil), labels...),
		LabelType: labelType,
		index:     make(map[any]int, len(labels)),
	}
	var text, numeric bool
	for i, l := range labels {
		if l == nil {
			return Descriptor{}, fmt.Errorf("native enum label %d is nil: %w", i, ErrSchemaConfig)
		}
		t := reflect.TypeOf(l)
		switch labelKind(t.Kind()) {
		case kindText:
			text = true
		case kindNumeric:
			numeric = true
		default:
			return Descriptor{}, fmt.Errorf("native enum label %v of type %s: %w", l, t, ErrSchemaConfig)
		}
		if text && numeric {
			return Descriptor{}, fmt.Errorf("native enum mixes text and numeric labels: %w", ErrSchemaConfig)
		}
		if _, dup := o.index[l]; dup {
			return Descriptor{}, fmt.Errorf("duplicate native enum label %v: %w", l, ErrSchemaConfig)
		}
		o.index[l] = i
	}
	if o.LabelType == nil {
		o.LabelType = reflect.TypeOf((*any)(nil)).Elem()
	}
	return Descriptor{Type: NativeEnum, Options: o}, nil
}

type kind int

const (
	kindOther kind = iota
	kindText
	kindNumeric
)

func labelKind(k reflect.Kind) kind {
	switch k {
	case reflect.String:
		return kindText
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return kindNumeric
	default:
		return kindOther
	}
}
