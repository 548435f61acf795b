// Package schemadesc reads schema descriptions in the borsh-rs
// BorshSchemaContainer format and turns them into runtime descriptors or
// Go builder source.
package schemadesc

import (
	"fmt"

	"github.com/rawbytedev/zorsh"
	"github.com/rawbytedev/zorsh/pkg/schema"
)

// Container is a declaration plus the definitions it refers to.
type Container struct {
	Declaration string
	Definitions map[string]Definition
}

// Definition is one of Primitive, Sequence, Tuple, Enum or Struct.
type Definition interface {
	definition()
}

// Primitive is a fixed-width value of the given byte size.
type Primitive uint8

type Range struct {
	Start uint64
	End   uint64
}

// Sequence is a vector (LengthWidth 4), a fixed array (LengthWidth 0,
// Start == End) or a set/map by declaration name.
type Sequence struct {
	LengthWidth uint8
	LengthRange Range
	Elements    string
}

type Tuple struct {
	Elements []string
}

type EnumVariant struct {
	Discriminant int64
	Name         string
	Type         string
}

type Enum struct {
	TagWidth uint8
	Variants []EnumVariant
}

type FieldsKind uint8

const (
	NamedFields FieldsKind = iota
	UnnamedFields
	EmptyFields
)

type NamedField struct {
	Name string
	Type string
}

type Struct struct {
	Kind    FieldsKind
	Named   []NamedField
	Unnamed []string
}

func (Primitive) definition() {}
func (Sequence) definition()  {}
func (Tuple) definition()     {}
func (Enum) definition()      {}
func (Struct) definition()    {}

var (
	rangeSchema = zorsh.Bind[Range](zorsh.Struct(
		zorsh.Field("start", zorsh.U64()),
		zorsh.Field("end", zorsh.U64()),
	))
	sequenceSchema = zorsh.Bind[Sequence](zorsh.Struct(
		zorsh.Field("length_width", zorsh.U8()),
		zorsh.Field("length_range", rangeSchema),
		zorsh.Field("elements", zorsh.String()),
	))
	tupleSchema = zorsh.Bind[Tuple](zorsh.Struct(
		zorsh.Field("elements", zorsh.Vec(zorsh.String())),
	))
	variantSchema = zorsh.Bind[EnumVariant](zorsh.Struct(
		zorsh.Field("discriminant", zorsh.I64()),
		zorsh.Field("name", zorsh.String()),
		zorsh.Field("type", zorsh.String()),
	))
	enumSchema = zorsh.Bind[Enum](zorsh.Struct(
		zorsh.Field("tag_width", zorsh.U8()),
		zorsh.Field("variants", zorsh.Vec(variantSchema)),
	))
	namedFieldSchema = zorsh.Bind[NamedField](zorsh.Struct(
		zorsh.Field("name", zorsh.String()),
		zorsh.Field("type", zorsh.String()),
	))
	fieldsSchema = zorsh.Enum(
		zorsh.Case("NamedFields", zorsh.Vec(namedFieldSchema)),
		zorsh.Case("UnnamedFields", zorsh.Vec(zorsh.String())),
		zorsh.Case("Empty", zorsh.UnitType()),
	)
	definitionSchema = zorsh.Enum(
		zorsh.Case("Primitive", zorsh.U8()),
		zorsh.Case("Sequence", sequenceSchema),
		zorsh.Case("Tuple", tupleSchema),
		zorsh.Case("Enum", enumSchema),
		zorsh.Case("Struct", zorsh.Struct(zorsh.Field("fields", fieldsSchema))),
	)
	containerSchema = zorsh.Struct(
		zorsh.Field("declaration", zorsh.String()),
		zorsh.Field("definitions", zorsh.HashMap(zorsh.String(), definitionSchema)),
	)
)

// Schema returns the descriptor of the container format itself.
func Schema() schema.Descriptor {
	return containerSchema.Descriptor()
}

// Decode reads a serialized BorshSchemaContainer.
func Decode(b []byte) (*Container, error) {
	rec, err := containerSchema.Deserialize(b)
	if err != nil {
		return nil, fmt.Errorf("schema container: %w", err)
	}
	defs := rec["definitions"].(map[string]zorsh.Variant)
	c := &Container{
		Declaration: rec["declaration"].(string),
		Definitions: make(map[string]Definition, len(defs)),
	}
	for name, v := range defs {
		d, err := fromVariant(v)
		if err != nil {
			return nil, fmt.Errorf("definition %q: %w", name, err)
		}
		c.Definitions[name] = d
	}
	return c, nil
}

// Encode serializes c; definitions are written in ascending name order.
func Encode(c *Container) ([]byte, error) {
	defs := make(map[string]zorsh.Variant, len(c.Definitions))
	for name, d := range c.Definitions {
		v, err := toVariant(d)
		if err != nil {
			return nil, fmt.Errorf("definition %q: %w", name, err)
		}
		defs[name] = v
	}
	return containerSchema.Serialize(zorsh.Record{
		"declaration": c.Declaration,
		"definitions": defs,
	})
}

func fromVariant(v zorsh.Variant) (Definition, error) {
	switch v.Name {
	case "Primitive":
		return Primitive(v.Value.(uint8)), nil
	case "Sequence":
		return v.Value.(Sequence), nil
	case "Tuple":
		return v.Value.(Tuple), nil
	case "Enum":
		return v.Value.(Enum), nil
	case "Struct":
		fields := v.Value.(zorsh.Record)["fields"].(zorsh.Variant)
		switch fields.Name {
		case "NamedFields":
			return Struct{Kind: NamedFields, Named: fields.Value.([]NamedField)}, nil
		case "UnnamedFields":
			return Struct{Kind: UnnamedFields, Unnamed: fields.Value.([]string)}, nil
		default:
			return Struct{Kind: EmptyFields}, nil
		}
	}
	return nil, fmt.Errorf("unknown definition kind %q: %w", v.Name, zorsh.ErrShape)
}

func toVariant(d Definition) (zorsh.Variant, error) {
	switch d := d.(type) {
	case Primitive:
		return zorsh.Variant{Name: "Primitive", Value: uint8(d)}, nil
	case Sequence:
		return zorsh.Variant{Name: "Sequence", Value: d}, nil
	case Tuple:
		return zorsh.Variant{Name: "Tuple", Value: d}, nil
	case Enum:
		return zorsh.Variant{Name: "Enum", Value: d}, nil
	case Struct:
		var fields zorsh.Variant
		switch d.Kind {
		case NamedFields:
			fields = zorsh.Variant{Name: "NamedFields", Value: d.Named}
		case UnnamedFields:
			fields = zorsh.Variant{Name: "UnnamedFields", Value: d.Unnamed}
		default:
			fields = zorsh.Variant{Name: "Empty", Value: zorsh.Unit{}}
		}
		return zorsh.Variant{Name: "Struct", Value: zorsh.Record{"fields": fields}}, nil
	}
	return zorsh.Variant{}, fmt.Errorf("unknown definition %T: %w", d, zorsh.ErrShape)
}
