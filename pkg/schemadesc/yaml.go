package schemadesc

import (
	"fmt"
	"strconv"

	"github.com/rawbytedev/zorsh/pkg/schema"
	"gopkg.in/yaml.v3"
)

// ParseYAML builds a descriptor from a YAML schema document. A type is
// either a scalar (a builtin tag such as u32 or string, or the name of a
// definition) or a mapping with one key:
//
//	struct: [{name: string}, {level: u8}]
//	enum: [{Damage: u32}, {Idle: unit}]
//	vec: T | set: T | option: T
//	map: [K, V] | array: [T, n] | tuple: [T, ...]
//	nativeEnum: [red, green]
//
// A document with a "root" key may also carry named "definitions".
// Otherwise the whole document is a single type.
func ParseYAML(doc []byte) (schema.Descriptor, error) {
	var n yaml.Node
	if err := yaml.Unmarshal(doc, &n); err != nil {
		return schema.Descriptor{}, fmt.Errorf("%w: %w", err, schema.ErrSchemaConfig)
	}
	if n.Kind != yaml.DocumentNode || len(n.Content) == 0 {
		return schema.Descriptor{}, fmt.Errorf("empty schema document: %w", schema.ErrSchemaConfig)
	}
	p := &yamlParser{
		defs:     make(map[string]*yaml.Node),
		done:     make(map[string]schema.Descriptor),
		visiting: make(map[string]bool),
	}
	top := n.Content[0]
	root := top
	if top.Kind == yaml.MappingNode && lookup(top, "root") != nil {
		root = lookup(top, "root")
		if defs := lookup(top, "definitions"); defs != nil {
			if defs.Kind != yaml.MappingNode {
				return schema.Descriptor{}, nodeErr(defs, "definitions must be a mapping")
			}
			for i := 0; i < len(defs.Content); i += 2 {
				name := defs.Content[i].Value
				if _, dup := p.defs[name]; dup {
					return schema.Descriptor{}, nodeErr(defs.Content[i], "duplicate definition %q", name)
				}
				if _, builtin := yamlTags[name]; builtin {
					return schema.Descriptor{}, nodeErr(defs.Content[i], "definition %q shadows a builtin", name)
				}
				p.defs[name] = defs.Content[i+1]
			}
		}
	}
	return p.parse(root)
}

var yamlTags = map[string]schema.Tag{}

func init() {
	for _, t := range schema.Builtin {
		if t.FixedSize() >= 0 || t == schema.String {
			yamlTags[string(t)] = t
		}
	}
}

type yamlParser struct {
	defs     map[string]*yaml.Node
	done     map[string]schema.Descriptor
	visiting map[string]bool
}

func (p *yamlParser) parse(n *yaml.Node) (schema.Descriptor, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return p.named(n)
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return schema.Descriptor{}, nodeErr(n, "a type mapping needs exactly one key")
		}
		return p.composite(n.Content[0], n.Content[1])
	case yaml.AliasNode:
		return p.parse(n.Alias)
	}
	return schema.Descriptor{}, nodeErr(n, "expected a type")
}

func (p *yamlParser) named(n *yaml.Node) (schema.Descriptor, error) {
	if t, ok := yamlTags[n.Value]; ok {
		return schema.Primitive(t), nil
	}
	if d, ok := p.done[n.Value]; ok {
		return d, nil
	}
	def, ok := p.defs[n.Value]
	if !ok {
		return schema.Descriptor{}, nodeErr(n, "unknown type %q", n.Value)
	}
	if p.visiting[n.Value] {
		return schema.Descriptor{}, nodeErr(n, "recursive definition %q", n.Value)
	}
	p.visiting[n.Value] = true
	d, err := p.parse(def)
	delete(p.visiting, n.Value)
	if err != nil {
		return schema.Descriptor{}, fmt.Errorf("definition %q: %w", n.Value, err)
	}
	p.done[n.Value] = d
	return d, nil
}

func (p *yamlParser) composite(key, val *yaml.Node) (schema.Descriptor, error) {
	switch key.Value {
	case "vec", "set", "option":
		elem, err := p.parse(val)
		if err != nil {
			return schema.Descriptor{}, err
		}
		switch key.Value {
		case "vec":
			return schema.NewVec(elem), nil
		case "set":
			return schema.NewSet(elem), nil
		}
		return schema.NewOption(elem), nil
	case "map":
		elems, err := p.list(val, 2)
		if err != nil {
			return schema.Descriptor{}, err
		}
		return schema.NewMap(elems[0], elems[1]), nil
	case "tuple":
		elems, err := p.list(val, -1)
		if err != nil {
			return schema.Descriptor{}, err
		}
		return schema.NewTuple(elems...), nil
	case "array":
		if val.Kind != yaml.SequenceNode || len(val.Content) != 2 {
			return schema.Descriptor{}, nodeErr(val, "array needs [type, length]")
		}
		elem, err := p.parse(val.Content[0])
		if err != nil {
			return schema.Descriptor{}, err
		}
		n, err := strconv.Atoi(val.Content[1].Value)
		if err != nil {
			return schema.Descriptor{}, nodeErr(val.Content[1], "array length %q", val.Content[1].Value)
		}
		return schema.NewArray(elem, n)
	case "struct":
		pairs, err := p.pairs(val)
		if err != nil {
			return schema.Descriptor{}, err
		}
		fs := make([]schema.Field, len(pairs))
		for i, pr := range pairs {
			fs[i] = schema.Field{Name: pr.name, Type: pr.desc}
		}
		return schema.NewStruct(fs...)
	case "enum":
		pairs, err := p.pairs(val)
		if err != nil {
			return schema.Descriptor{}, err
		}
		vs := make([]schema.EnumVariant, len(pairs))
		for i, pr := range pairs {
			vs[i] = schema.EnumVariant{Name: pr.name, Type: pr.desc}
		}
		return schema.NewEnum(vs...)
	case "nativeEnum":
		if val.Kind != yaml.SequenceNode {
			return schema.Descriptor{}, nodeErr(val, "nativeEnum needs a list of labels")
		}
		labels := make([]any, len(val.Content))
		for i, c := range val.Content {
			if err := c.Decode(&labels[i]); err != nil {
				return schema.Descriptor{}, fmt.Errorf("line %d: %w: %w", c.Line, err, schema.ErrSchemaConfig)
			}
		}
		return schema.NewNativeEnum(nil, labels)
	}
	return schema.Descriptor{}, nodeErr(key, "unknown type constructor %q", key.Value)
}

func (p *yamlParser) list(n *yaml.Node, want int) ([]schema.Descriptor, error) {
	if n.Kind != yaml.SequenceNode || (want >= 0 && len(n.Content) != want) {
		return nil, nodeErr(n, "expected a list of %d types", want)
	}
	out := make([]schema.Descriptor, len(n.Content))
	for i, c := range n.Content {
		d, err := p.parse(c)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

type namedDesc struct {
	name string
	desc schema.Descriptor
}

// pairs reads an ordered list of single-key mappings, keeping declaration
// order.
func (p *yamlParser) pairs(n *yaml.Node) ([]namedDesc, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, nodeErr(n, "expected a list of {name: type} entries")
	}
	out := make([]namedDesc, len(n.Content))
	for i, c := range n.Content {
		if c.Kind != yaml.MappingNode || len(c.Content) != 2 {
			return nil, nodeErr(c, "expected a single {name: type} entry")
		}
		d, err := p.parse(c.Content[1])
		if err != nil {
			return nil, fmt.Errorf("%q: %w", c.Content[0].Value, err)
		}
		out[i] = namedDesc{name: c.Content[0].Value, desc: d}
	}
	return out, nil
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func nodeErr(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s: %w", n.Line, fmt.Sprintf(format, args...), schema.ErrSchemaConfig)
}
