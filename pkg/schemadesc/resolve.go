package schemadesc

import (
	"fmt"
	"strings"

	"github.com/rawbytedev/zorsh/pkg/schema"
)

// wellKnown maps borsh-rs declarations that need no definition.
var wellKnown = map[string]schema.Tag{
	"u8":     schema.U8,
	"u16":    schema.U16,
	"u32":    schema.U32,
	"u64":    schema.U64,
	"u128":   schema.U128,
	"i8":     schema.I8,
	"i16":    schema.I16,
	"i32":    schema.I32,
	"i64":    schema.I64,
	"i128":   schema.I128,
	"f32":    schema.F32,
	"f64":    schema.F64,
	"bool":   schema.Bool,
	"String": schema.String,
	"str":    schema.String,
	"()":     schema.Unit,
}

const vecLengthWidth = 4

// Resolve builds the runtime descriptor for c.Declaration.
func Resolve(c *Container) (schema.Descriptor, error) {
	r := &resolver{c: c, done: make(map[string]schema.Descriptor), visiting: make(map[string]bool)}
	return r.resolve(c.Declaration)
}

type resolver struct {
	c        *Container
	done     map[string]schema.Descriptor
	visiting map[string]bool
}

func (r *resolver) resolve(name string) (schema.Descriptor, error) {
	if t, ok := wellKnown[name]; ok {
		return schema.Primitive(t), nil
	}
	if d, ok := r.done[name]; ok {
		return d, nil
	}
	if r.visiting[name] {
		return schema.Descriptor{}, fmt.Errorf("recursive declaration %q: %w", name, schema.ErrSchemaConfig)
	}
	def, ok := r.c.Definitions[name]
	if !ok {
		return schema.Descriptor{}, fmt.Errorf("undefined declaration %q: %w", name, schema.ErrSchemaConfig)
	}
	r.visiting[name] = true
	d, err := r.define(name, def)
	delete(r.visiting, name)
	if err != nil {
		return schema.Descriptor{}, err
	}
	r.done[name] = d
	return d, nil
}

func (r *resolver) define(name string, def Definition) (schema.Descriptor, error) {
	switch def := def.(type) {
	case Primitive:
		return schema.Descriptor{}, fmt.Errorf("primitive %q (%d bytes) has no known tag: %w", name, def, schema.ErrSchemaConfig)
	case Sequence:
		elem, err := r.resolve(def.Elements)
		if err != nil {
			return schema.Descriptor{}, err
		}
		return sequence(name, def, elem)
	case Tuple:
		elems, err := r.all(def.Elements)
		if err != nil {
			return schema.Descriptor{}, err
		}
		if len(elems) == 0 {
			return schema.Primitive(schema.Unit), nil
		}
		return schema.NewTuple(elems...), nil
	case Enum:
		if err := checkEnum(name, def); err != nil {
			return schema.Descriptor{}, err
		}
		if isOption(def) {
			inner, err := r.resolve(def.Variants[1].Type)
			if err != nil {
				return schema.Descriptor{}, err
			}
			return schema.NewOption(inner), nil
		}
		vs := make([]schema.EnumVariant, len(def.Variants))
		for i, v := range def.Variants {
			t, err := r.resolve(v.Type)
			if err != nil {
				return schema.Descriptor{}, err
			}
			vs[i] = schema.EnumVariant{Name: v.Name, Type: t}
		}
		return schema.NewEnum(vs...)
	case Struct:
		switch def.Kind {
		case NamedFields:
			fs := make([]schema.Field, len(def.Named))
			for i, f := range def.Named {
				t, err := r.resolve(f.Type)
				if err != nil {
					return schema.Descriptor{}, err
				}
				fs[i] = schema.Field{Name: f.Name, Type: t}
			}
			return schema.NewStruct(fs...)
		case UnnamedFields:
			elems, err := r.all(def.Unnamed)
			if err != nil {
				return schema.Descriptor{}, err
			}
			return schema.NewTuple(elems...), nil
		default:
			return schema.Primitive(schema.Unit), nil
		}
	}
	return schema.Descriptor{}, fmt.Errorf("definition %q of type %T: %w", name, def, schema.ErrSchemaConfig)
}

func (r *resolver) all(names []string) ([]schema.Descriptor, error) {
	out := make([]schema.Descriptor, len(names))
	for i, n := range names {
		d, err := r.resolve(n)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func sequence(name string, def Sequence, elem schema.Descriptor) (schema.Descriptor, error) {
	switch def.LengthWidth {
	case 0:
		if def.LengthRange.Start != def.LengthRange.End || def.LengthRange.End > 1<<31-1 {
			return schema.Descriptor{}, fmt.Errorf("array %q with length range %d..=%d: %w",
				name, def.LengthRange.Start, def.LengthRange.End, schema.ErrSchemaConfig)
		}
		return schema.NewArray(elem, int(def.LengthRange.End))
	case vecLengthWidth:
		switch containerKind(name) {
		case schema.Map:
			if to, ok := elem.Options.(*schema.TupleOptions); ok && len(to.Elems) == 2 {
				return schema.NewMap(to.Elems[0], to.Elems[1]), nil
			}
			return schema.Descriptor{}, fmt.Errorf("map %q needs (key, value) elements: %w", name, schema.ErrSchemaConfig)
		case schema.Set:
			return schema.NewSet(elem), nil
		}
		return schema.NewVec(elem), nil
	}
	return schema.Descriptor{}, fmt.Errorf("sequence %q with %d-byte length: %w", name, def.LengthWidth, schema.ErrSchemaConfig)
}

// containerKind tells sets and maps apart from vectors by declaration
// name, since all three share the same sequence definition.
func containerKind(name string) schema.Tag {
	switch {
	case strings.HasPrefix(name, "HashMap<"), strings.HasPrefix(name, "BTreeMap<"):
		return schema.Map
	case strings.HasPrefix(name, "HashSet<"), strings.HasPrefix(name, "BTreeSet<"):
		return schema.Set
	}
	return schema.Vec
}

// checkEnum requires one-byte tags and discriminants equal to declaration
// positions, which is the only layout the enum handler produces.
func checkEnum(name string, def Enum) error {
	if def.TagWidth != 1 {
		return fmt.Errorf("enum %q with %d-byte tag: %w", name, def.TagWidth, schema.ErrSchemaConfig)
	}
	for i, v := range def.Variants {
		if v.Discriminant != int64(i) {
			return fmt.Errorf("enum %q variant %q has discriminant %d at position %d: %w",
				name, v.Name, v.Discriminant, i, schema.ErrSchemaConfig)
		}
	}
	return nil
}

func isOption(def Enum) bool {
	return len(def.Variants) == 2 &&
		def.Variants[0].Name == "None" && def.Variants[0].Type == "()" &&
		def.Variants[1].Name == "Some"
}
