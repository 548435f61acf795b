package schema

import (
	"fmt"
	"strings"
)

// Options carries the tag-specific parameters of a Descriptor. Builtin tags use
// the option types in this package; handlers registered for other tags may
// bring their own.
type Options interface {
	// Children returns the child descriptors in wire order.
	Children() []Descriptor
}

// Descriptor is an immutable tag + options tree describing one value shape.
type Descriptor struct {
	Type    Tag
	Options Options
}

// Primitive returns the descriptor of an option-less tag.
func Primitive(t Tag) Descriptor {
	return Descriptor{Type: t}
}

func (d Descriptor) Children() []Descriptor {
	if d.Options == nil {
		return nil
	}
	return d.Options.Children()
}

func (d Descriptor) String() string {
	var sb strings.Builder
	d.format(&sb)
	return sb.String()
}

func (d Descriptor) format(sb *strings.Builder) {
	switch o := d.Options.(type) {
	case *StructOptions:
		sb.WriteString("struct{")
		for i, f := range o.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			f.Type.format(sb)
		}
		sb.WriteString("}")
	case *EnumOptions:
		sb.WriteString("enum{")
		for i, v := range o.Variants {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(v.Name)
			sb.WriteString(": ")
			v.Type.format(sb)
		}
		sb.WriteString("}")
	case *TupleOptions:
		sb.WriteString("tuple(")
		for i, e := range o.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.format(sb)
		}
		sb.WriteString(")")
	case *ArrayOptions:
		sb.WriteString("array<")
		o.Elem.format(sb)
		fmt.Fprintf(sb, "; %d>", o.Len)
	case *MapOptions:
		sb.WriteString("map<")
		o.Key.format(sb)
		sb.WriteString(", ")
		o.Value.format(sb)
		sb.WriteString(">")
	case *NativeEnumOptions:
		sb.WriteString("nativeEnum[")
		for i, l := range o.Labels {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprint(sb, l)
		}
		sb.WriteString("]")
	case nil:
		sb.WriteString(string(d.Type))
	default:
		sb.WriteString(string(d.Type))
		if children := o.Children(); len(children) > 0 {
			sb.WriteString("<")
			for i, c := range children {
				if i > 0 {
					sb.WriteString(", ")
				}
				c.format(sb)
			}
			sb.WriteString(">")
		}
	}
}

// Walk calls fn for d and every descendant, depth first, stopping at the
// first error.
func Walk(d Descriptor, fn func(Descriptor) error) error {
	if err := fn(d); err != nil {
		return err
	}
	for _, c := range d.Children() {
		if err := Walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}
