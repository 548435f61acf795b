package zorsh

import (
	"fmt"
	"reflect"

	"github.com/rawbytedev/zorsh/pkg/schema"
)

// Bind projects a struct schema onto the Go struct type T. Go fields are
// matched by `borsh:"name"` tag, else by name ignoring case and
// underscores, so "equipped_items" fills EquippedItems. Every schema
// field needs a Go field that can hold its decoded value; Bind panics with
// ErrSchemaConfig otherwise.
func Bind[T any](s Schema[Record]) Schema[T] {
	d, err := bind(s, reflect.TypeFor[T]())
	if err != nil {
		panic(err)
	}
	return Schema[T]{desc: d, reg: s.reg, opts: s.opts}
}

func bind(s Schema[Record], t reflect.Type) (schema.Descriptor, error) {
	o, ok := s.desc.Options.(*schema.StructOptions)
	if !ok || t.Kind() != reflect.Struct {
		return schema.Descriptor{}, fmt.Errorf("bind %s to %s: %w", s.desc, t, ErrSchemaConfig)
	}
	reg := s.Registry()
	plan, err := reg.Plan(t, o)
	if err != nil {
		return schema.Descriptor{}, fmt.Errorf("bind %s: %w: %w", t, err, ErrSchemaConfig)
	}
	for i, f := range o.Fields {
		ft, err := reg.TypeOf(f.Type)
		if err != nil {
			return schema.Descriptor{}, fmt.Errorf("bind %s field %q: %w", t, f.Name, err)
		}
		gf := t.Field(plan[i])
		if !ft.AssignableTo(gf.Type) && !(ft.Kind() == gf.Type.Kind() && ft.ConvertibleTo(gf.Type)) {
			return schema.Descriptor{}, fmt.Errorf("bind %s.%s: %s values decode to %s: %w", t, gf.Name, f.Type, ft, ErrSchemaConfig)
		}
	}
	return schema.BindStruct(s.desc, t, plan)
}
