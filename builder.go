package zorsh

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/rawbytedev/zorsh/pkg/registry"
	"github.com/rawbytedev/zorsh/pkg/schema"
)

func primitive[T any](t schema.Tag) Schema[T] {
	return Schema[T]{desc: schema.Primitive(t)}
}

func U8() Schema[uint8] { return primitive[uint8](schema.U8) }
func U16() Schema[uint16] { return primitive[uint16](schema.U16) }
func U32() Schema[uint32] { return primitive[uint32](schema.U32) }
func U64() Schema[uint64] { return primitive[uint64](schema.U64) }
func U128() Schema[*big.Int] { return primitive[*big.Int](schema.U128) }
func I8() Schema[int8] { return primitive[int8](schema.I8) }
func I16() Schema[int16] { return primitive[int16](schema.I16) }
func I32() Schema[int32] { return primitive[int32](schema.I32) }
func I64() Schema[int64] { return primitive[int64](schema.I64) }
func I128() Schema[*big.Int] { return primitive[*big.Int](schema.I128) }
func F32() Schema[float32] { return primitive[float32](schema.F32) }
func F64() Schema[float64] { return primitive[float64](schema.F64) }
func Bool() Schema[bool] { return primitive[bool](schema.Bool) }
func String() Schema[string] { return primitive[string](schema.String) }
func UnitType() Schema[Unit] { return primitive[Unit](schema.Unit) }
func Bytes() Schema[[]byte] { return Vec(U8()) }

// Vec is a u32 count followed by the elements. Vectors of fixed-width
// numbers decode into packed slices such as []uint16.
func Vec[T any](elem Schema[T]) Schema[[]T] {
	return Schema[[]T]{desc: schema.NewVec(elem.desc)}
}

// Array is exactly len(A) elements with no count prefix and decodes into
// the Go array type A, as in Array[[32]byte](U8()). It panics unless A is
// an array of T.
func Array[A, T any](elem Schema[T]) Schema[A] {
	t, et := reflect.TypeFor[A](), reflect.TypeFor[T]()
	if t.Kind() != reflect.Array || t.Elem() != et {
		panic(fmt.Errorf("%s is not an array of %s: %w", t, et, ErrSchemaConfig))
	}
	return Schema[A]{desc: must(schema.NewArray(elem.desc, t.Len()))}
}

// HashSet encodes its elements in ascending order. It panics if T holds
// floats; use OrderedSet for those.
func HashSet[T comparable](elem Schema[T]) Schema[map[T]struct{}] {
	mustMapKey[T]()
	return Schema[map[T]struct{}]{desc: schema.NewSet(elem.desc)}
}

// HashMap encodes its entries in ascending key order. It panics if K holds
// floats; use OrderedMap for those.
func HashMap[K comparable, V any](key Schema[K], value Schema[V]) Schema[map[K]V] {
	mustMapKey[K]()
	return Schema[map[K]V]{desc: schema.NewMap(key.desc, value.desc)}
}

// OrderedSet encodes like HashSet but decodes into a slice in wire order,
// so its elements need not be comparable.
func OrderedSet[T any](elem Schema[T]) Schema[[]T] {
	return Schema[[]T]{desc: schema.NewOrderedSet(elem.desc)}
}

// OrderedMap encodes like HashMap, from a Go map or a []Entry, and decodes
// into entries in wire order.
func OrderedMap[K, V any](key Schema[K], value Schema[V]) Schema[[]Entry] {
	return Schema[[]Entry]{desc: schema.NewOrderedMap(key.desc, value.desc)}
}

func mustMapKey[K any]() {
	if t := reflect.TypeFor[K](); !registry.MapKey(t) {
		panic(fmt.Errorf("%s cannot key a Go map here: %w", t, ErrSchemaConfig))
	}
}

// Option decodes an absent value as a nil pointer.
func Option[T any](inner Schema[T]) Schema[*T] {
	return Schema[*T]{desc: schema.NewOption(inner.desc)}
}

type FieldDef struct {
	name string
	desc schema.Descriptor
}

func Field(name string, s Describer) FieldDef {
	return FieldDef{name: name, desc: s.Descriptor()}
}

// Struct encodes fields in the order given. It panics on empty or
// duplicate field names.
func Struct(fields ...FieldDef) Schema[Record] {
	fs := make([]schema.Field, len(fields))
	for i, f := range fields {
		fs[i] = schema.Field{Name: f.name, Type: f.desc}
	}
	return Schema[Record]{desc: must(schema.NewStruct(fs...))}
}

type CaseDef struct {
	name string
	desc schema.Descriptor
}

// Case declares an enum variant; pass UnitType() for variants without a
// payload.
func Case(name string, s Describer) CaseDef {
	return CaseDef{name: name, desc: s.Descriptor()}
}

// Enum numbers its variants from 0 in the order given. It panics on empty
// or duplicate names and on more than 256 variants.
func Enum(cases ...CaseDef) Schema[Variant] {
	vs := make([]schema.EnumVariant, len(cases))
	for i, c := range cases {
		vs[i] = schema.EnumVariant{Name: c.name, Type: c.desc}
	}
	return Schema[Variant]{desc: must(schema.NewEnum(vs...))}
}

func Tuple(elems ...Describer) Schema[[]any] {
	ds := make([]schema.Descriptor, len(elems))
	for i, e := range elems {
		ds[i] = e.Descriptor()
	}
	return Schema[[]any]{desc: schema.NewTuple(ds...)}
}

// NativeEnum encodes each label as its 0-based position in labels.
// Labels must be all text or all numeric, unique, and at most 255.
func NativeEnum[L comparable](labels ...L) (Schema[L], error) {
	ls := make([]any, len(labels))
	for i, l := range labels {
		ls[i] = l
	}
	d, err := schema.NewNativeEnum(reflect.TypeFor[L](), ls)
	if err != nil {
		return Schema[L]{}, err
	}
	return Schema[L]{desc: d}, nil
}

func MustNativeEnum[L comparable](labels ...L) Schema[L] {
	return must(NativeEnum(labels...))
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
