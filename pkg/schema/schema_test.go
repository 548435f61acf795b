package schema

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructNumbersFields(t *testing.T) {
	d, err := NewStruct(
		Field{Name: "b", Type: Primitive(U8)},
		Field{Name: "a", Type: NewVec(Primitive(String))},
	)
	require.NoError(t, err)
	o := d.Options.(*StructOptions)
	assert.Equal(t, 0, o.Fields[0].Index)
	assert.Equal(t, 1, o.Fields[1].Index)
	f, ok := o.Field("a")
	require.True(t, ok)
	assert.Equal(t, Vec, f.Type.Type)
	assert.Equal(t, "struct{b: u8, a: vec<string>}", d.String())
	assert.Nil(t, o.Target())
}

func TestStructRejectsBadFields(t *testing.T) {
	_, err := NewStruct(Field{Name: "x", Type: Primitive(U8)}, Field{Name: "x", Type: Primitive(U16)})
	assert.ErrorIs(t, err, ErrSchemaConfig)
	_, err = NewStruct(Field{Type: Primitive(U8)})
	assert.ErrorIs(t, err, ErrSchemaConfig)
}

func TestBindStruct(t *testing.T) {
	type point struct{ X, Y int32 }
	d, _ := NewStruct(Field{Name: "x", Type: Primitive(I32)}, Field{Name: "y", Type: Primitive(I32)})
	bound, err := BindStruct(d, reflect.TypeFor[point](), []int{0, 1})
	require.NoError(t, err)
	o := bound.Options.(*StructOptions)
	assert.Equal(t, reflect.TypeFor[point](), o.Target())
	assert.Equal(t, []int{0, 1}, o.Plan())
	assert.Nil(t, d.Options.(*StructOptions).Target(), "binding must not mutate the original")

	_, err = BindStruct(d, reflect.TypeFor[point](), []int{0})
	assert.ErrorIs(t, err, ErrSchemaConfig)
	_, err = BindStruct(Primitive(U8), reflect.TypeFor[point](), nil)
	assert.ErrorIs(t, err, ErrSchemaConfig)
}

func TestEnumVariants(t *testing.T) {
	d, err := NewEnum(
		EnumVariant{Name: "A", Type: Primitive(Unit)},
		EnumVariant{Name: "B", Type: Primitive(U32)},
	)
	require.NoError(t, err)
	o := d.Options.(*EnumOptions)
	v, ok := o.Lookup("B")
	require.True(t, ok)
	assert.Equal(t, 1, v.Index)
	_, ok = o.At(2)
	assert.False(t, ok)
	assert.Equal(t, "enum{A: unit, B: u32}", d.String())

	many := make([]EnumVariant, MaxVariants+1)
	for i := range many {
		many[i] = EnumVariant{Name: fmt.Sprint("v", i), Type: Primitive(Unit)}
	}
	_, err = NewEnum(many[:MaxVariants]...)
	assert.NoError(t, err)
	_, err = NewEnum(many...)
	assert.ErrorIs(t, err, ErrSchemaConfig)

	_, err = NewEnum(EnumVariant{Name: "A"}, EnumVariant{Name: "A"})
	assert.ErrorIs(t, err, ErrSchemaConfig)
}

func TestNativeEnum(t *testing.T) {
	d, err := NewNativeEnum(reflect.TypeFor[string](), []any{"red", "green"})
	require.NoError(t, err)
	o := d.Options.(*NativeEnumOptions)
	i, ok := o.Index("green")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	l, ok := o.Label(0)
	assert.True(t, ok)
	assert.Equal(t, "red", l)
	assert.Equal(t, "nativeEnum[red, green]", d.String())

	_, err = NewNativeEnum(nil, []any{"a", 1})
	assert.ErrorIs(t, err, ErrSchemaConfig)
	_, err = NewNativeEnum(nil, []any{"a", "a"})
	assert.ErrorIs(t, err, ErrSchemaConfig)
	_, err = NewNativeEnum(nil, []any{true})
	assert.ErrorIs(t, err, ErrSchemaConfig)
	_, err = NewNativeEnum(nil, []any{nil})
	assert.ErrorIs(t, err, ErrSchemaConfig)

	labels := make([]any, MaxNativeLabels+1)
	for i := range labels {
		labels[i] = i
	}
	_, err = NewNativeEnum(nil, labels[:MaxNativeLabels])
	assert.NoError(t, err)
	_, err = NewNativeEnum(nil, labels)
	assert.ErrorIs(t, err, ErrSchemaConfig)

	d, err = NewNativeEnum(nil, []any{1, 2})
	require.NoError(t, err)
	assert.Equal(t, reflect.Interface, d.Options.(*NativeEnumOptions).LabelType.Kind())
}

func TestArrayLength(t *testing.T) {
	d, err := NewArray(Primitive(U8), 32)
	require.NoError(t, err)
	assert.Equal(t, "array<u8; 32>", d.String())
	_, err = NewArray(Primitive(U8), -1)
	assert.ErrorIs(t, err, ErrSchemaConfig)
}

func TestDescriptorStrings(t *testing.T) {
	cases := map[string]Descriptor{
		"u128":                        Primitive(U128),
		"option<string>":              NewOption(Primitive(String)),
		"set<i64>":                    NewSet(Primitive(I64)),
		"map<string, vec<f32>>":       NewMap(Primitive(String), NewVec(Primitive(F32))),
		"tuple(u8, bool, option<u8>)": NewTuple(Primitive(U8), Primitive(Bool), NewOption(Primitive(U8))),
	}
	for want, d := range cases {
		assert.Equal(t, want, d.String())
	}
}

func TestWalk(t *testing.T) {
	d := NewMap(Primitive(String), NewTuple(Primitive(U8), NewVec(Primitive(Bool))))
	var seen []Tag
	require.NoError(t, Walk(d, func(n Descriptor) error {
		seen = append(seen, n.Type)
		return nil
	}))
	assert.Equal(t, []Tag{Map, String, Tuple, U8, Vec, Bool}, seen)

	stop := errors.New("stop")
	count := 0
	err := Walk(d, func(n Descriptor) error {
		count++
		if n.Type == Tuple {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, count)
}

func TestTagProperties(t *testing.T) {
	assert.Equal(t, 16, I128.FixedSize())
	assert.Equal(t, 0, Unit.FixedSize())
	assert.Equal(t, -1, String.FixedSize())
	assert.True(t, F64.IsPacked())
	assert.False(t, U128.IsPacked())
	assert.True(t, U128.IsInteger())
	assert.False(t, F32.IsInteger())
	assert.Len(t, Builtin, 24)
}
