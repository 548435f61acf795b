package schemadesc

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/rawbytedev/zorsh/pkg/schema"
)

const importPath = "github.com/rawbytedev/zorsh"

// Generate emits Go source declaring one schema variable per named struct
// or enum definition reachable from c.Declaration, plus the declaration
// itself, in dependency order.
func Generate(c *Container, pkg string) ([]byte, error) {
	if !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("package name %q: %w", pkg, schema.ErrSchemaConfig)
	}
	g := &generator{
		c:        c,
		vars:     make(map[string]string),
		taken:    make(map[string]bool),
		bodies:   make(map[string]string),
		deps:     make(map[string][]string),
		visiting: make(map[string]bool),
	}
	root, err := g.expr(c.Declaration, "")
	if err != nil {
		return nil, err
	}
	order, err := g.order()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by schemadesc from %s. DO NOT EDIT.\n\n", strconv.Quote(c.Declaration))
	if g.bigInt {
		fmt.Fprintf(&buf, "package %s\n\nimport (\n\"math/big\"\n\n%q\n)\n\n", pkg, importPath)
	} else {
		fmt.Fprintf(&buf, "package %s\n\nimport %q\n\n", pkg, importPath)
	}
	for _, name := range order {
		fmt.Fprintf(&buf, "var %s = %s\n\n", g.vars[name], g.bodies[name])
	}
	if _, named := g.vars[c.Declaration]; !named {
		fmt.Fprintf(&buf, "var %s = %s\n", g.varName(c.Declaration), root)
	}
	return format.Source(buf.Bytes())
}

type generator struct {
	c        *Container
	vars     map[string]string   // declaration -> Go variable
	taken    map[string]bool     // Go variables in use
	bodies   map[string]string   // declaration -> builder expression
	deps     map[string][]string // declaration -> named declarations it uses
	visiting map[string]bool
	bigInt   bool // a generated type mentions *big.Int
}

// named reports whether a declaration gets its own variable.
func (g *generator) named(decl string) bool {
	if _, ok := wellKnown[decl]; ok {
		return false
	}
	switch def := g.c.Definitions[decl].(type) {
	case Struct:
		return def.Kind == NamedFields
	case Enum:
		return !isOption(def)
	}
	return false
}

// expr returns the builder expression for decl. owner is the named
// declaration whose body is being built, if any.
func (g *generator) expr(decl, owner string) (string, error) {
	if t, ok := wellKnown[decl]; ok {
		return primitiveExpr(t), nil
	}
	def, ok := g.c.Definitions[decl]
	if !ok {
		return "", fmt.Errorf("undefined declaration %q: %w", decl, schema.ErrSchemaConfig)
	}
	if g.named(decl) {
		if owner != "" {
			g.deps[owner] = append(g.deps[owner], decl)
		}
		if _, done := g.vars[decl]; done {
			return g.vars[decl], nil
		}
		if g.visiting[decl] {
			return g.varName(decl), nil
		}
		g.visiting[decl] = true
		body, err := g.body(decl, def, decl)
		delete(g.visiting, decl)
		if err != nil {
			return "", err
		}
		v := g.varName(decl)
		g.vars[decl] = v
		g.bodies[decl] = body
		return v, nil
	}
	if g.visiting[decl] {
		return "", fmt.Errorf("recursive declaration %q: %w", decl, schema.ErrSchemaConfig)
	}
	g.visiting[decl] = true
	defer delete(g.visiting, decl)
	return g.body(decl, def, owner)
}

func (g *generator) body(decl string, def Definition, owner string) (string, error) {
	var sb strings.Builder
	switch def := def.(type) {
	case Primitive:
		return "", fmt.Errorf("primitive %q (%d bytes) has no known tag: %w", decl, def, schema.ErrSchemaConfig)
	case Sequence:
		elem, err := g.expr(def.Elements, owner)
		if err != nil {
			return "", err
		}
		switch def.LengthWidth {
		case 0:
			if def.LengthRange.Start != def.LengthRange.End {
				return "", fmt.Errorf("array %q with variable length: %w", decl, schema.ErrSchemaConfig)
			}
			return fmt.Sprintf("zorsh.Array[[%d]%s](%s)", def.LengthRange.End, g.goType(def.Elements), elem), nil
		case vecLengthWidth:
		default:
			return "", fmt.Errorf("sequence %q with %d-byte length: %w", decl, def.LengthWidth, schema.ErrSchemaConfig)
		}
		switch containerKind(decl) {
		case schema.Set:
			if !g.mapKey(def.Elements) {
				return fmt.Sprintf("zorsh.OrderedSet(%s)", elem), nil
			}
			return fmt.Sprintf("zorsh.HashSet(%s)", elem), nil
		case schema.Map:
			pair, ok := g.c.Definitions[def.Elements].(Tuple)
			if !ok || len(pair.Elements) != 2 {
				return "", fmt.Errorf("map %q needs (key, value) elements: %w", decl, schema.ErrSchemaConfig)
			}
			k, err := g.expr(pair.Elements[0], owner)
			if err != nil {
				return "", err
			}
			v, err := g.expr(pair.Elements[1], owner)
			if err != nil {
				return "", err
			}
			if !g.mapKey(pair.Elements[0]) {
				return fmt.Sprintf("zorsh.OrderedMap(%s, %s)", k, v), nil
			}
			return fmt.Sprintf("zorsh.HashMap(%s, %s)", k, v), nil
		}
		return fmt.Sprintf("zorsh.Vec(%s)", elem), nil
	case Tuple:
		return g.tuple(def.Elements, owner)
	case Enum:
		if err := checkEnum(decl, def); err != nil {
			return "", err
		}
		if isOption(def) {
			inner, err := g.expr(def.Variants[1].Type, owner)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("zorsh.Option(%s)", inner), nil
		}
		sb.WriteString("zorsh.Enum(\n")
		for _, v := range def.Variants {
			e, err := g.expr(v.Type, owner)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "zorsh.Case(%q, %s),\n", v.Name, e)
		}
		sb.WriteString(")")
	case Struct:
		switch def.Kind {
		case NamedFields:
			sb.WriteString("zorsh.Struct(\n")
			for _, f := range def.Named {
				e, err := g.expr(f.Type, owner)
				if err != nil {
					return "", err
				}
				fmt.Fprintf(&sb, "zorsh.Field(%q, %s),\n", f.Name, e)
			}
			sb.WriteString(")")
		case UnnamedFields:
			return g.tuple(def.Unnamed, owner)
		default:
			return "zorsh.UnitType()", nil
		}
	}
	return sb.String(), nil
}

func (g *generator) tuple(elems []string, owner string) (string, error) {
	if len(elems) == 0 {
		return "zorsh.UnitType()", nil
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		x, err := g.expr(e, owner)
		if err != nil {
			return "", err
		}
		parts[i] = x
	}
	return "zorsh.Tuple(" + strings.Join(parts, ", ") + ")", nil
}

// mapKey reports whether decl decodes to a type that can key a Go map:
// comparable and free of floats.
func (g *generator) mapKey(decl string) bool {
	if t, ok := wellKnown[decl]; ok {
		return t != schema.F32 && t != schema.F64
	}
	switch def := g.c.Definitions[decl].(type) {
	case Sequence:
		return def.LengthWidth == 0 && g.mapKey(def.Elements)
	case Tuple:
		return len(def.Elements) == 0
	case Enum:
		return true
	case Struct:
		return def.Kind == EmptyFields || (def.Kind == UnnamedFields && len(def.Unnamed) == 0)
	}
	return false
}

// goType is the Go type values of decl decode into. It only visits
// declarations expr has already accepted.
func (g *generator) goType(decl string) string {
	if t, ok := wellKnown[decl]; ok {
		switch t {
		case schema.U128, schema.I128:
			g.bigInt = true
			return "*big.Int"
		case schema.Unit:
			return "zorsh.Unit"
		}
		return primitiveGoType(t)
	}
	switch def := g.c.Definitions[decl].(type) {
	case Sequence:
		elem := g.goType(def.Elements)
		if def.LengthWidth == 0 {
			return fmt.Sprintf("[%d]%s", def.LengthRange.End, elem)
		}
		switch containerKind(decl) {
		case schema.Set:
			if g.mapKey(def.Elements) {
				return "map[" + elem + "]struct{}"
			}
		case schema.Map:
			pair := g.c.Definitions[def.Elements].(Tuple)
			if !g.mapKey(pair.Elements[0]) {
				return "[]zorsh.Entry"
			}
			return "map[" + g.goType(pair.Elements[0]) + "]" + g.goType(pair.Elements[1])
		}
		return "[]" + elem
	case Tuple:
		if len(def.Elements) == 0 {
			return "zorsh.Unit"
		}
		return "[]any"
	case Enum:
		if isOption(def) {
			return "*" + g.goType(def.Variants[1].Type)
		}
		return "zorsh.Variant"
	case Struct:
		switch {
		case def.Kind == NamedFields:
			return "zorsh.Record"
		case def.Kind == UnnamedFields && len(def.Unnamed) > 0:
			return "[]any"
		}
		return "zorsh.Unit"
	}
	return "any"
}

func primitiveGoType(t schema.Tag) string {
	switch t {
	case schema.F32:
		return "float32"
	case schema.F64:
		return "float64"
	case schema.String, schema.Bool:
		return string(t)
	}
	if t[0] == 'u' {
		return "uint" + string(t[1:])
	}
	return "int" + string(t[1:])
}

func primitiveExpr(t schema.Tag) string {
	switch t {
	case schema.Unit:
		return "zorsh.UnitType()"
	case schema.String:
		return "zorsh.String()"
	case schema.Bool:
		return "zorsh.Bool()"
	}
	return "zorsh." + strings.ToUpper(string(t)) + "()"
}

// varName derives an exported identifier from a declaration, e.g.
// "Vec<Item>" becomes VecItemSchema.
func (g *generator) varName(decl string) string {
	if v, ok := g.vars[decl]; ok {
		return v
	}
	var sb strings.Builder
	upper := true
	for _, r := range strings.ReplaceAll(decl, "()", "Unit") {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if upper {
				r = unicode.ToUpper(r)
				upper = false
			}
			sb.WriteRune(r)
		default:
			upper = true
		}
	}
	base := sb.String()
	if base == "" || !unicode.IsLetter(rune(base[0])) {
		base = "T" + base
	}
	name := base + "Schema"
	for i := 2; g.taken[name]; i++ {
		name = base + strconv.Itoa(i) + "Schema"
	}
	g.taken[name] = true
	g.vars[decl] = name
	return name
}

// order sorts the named declarations so each follows everything it uses
// (Kahn's algorithm, ties broken by name).
func (g *generator) order() ([]string, error) {
	indeg := make(map[string]int, len(g.bodies))
	users := make(map[string][]string)
	for name := range g.bodies {
		indeg[name] += 0
		for _, dep := range slices.Compact(slices.Sorted(slices.Values(g.deps[name]))) {
			if dep == name {
				return nil, fmt.Errorf("recursive declaration %q: %w", name, schema.ErrSchemaConfig)
			}
			users[dep] = append(users[dep], name)
			indeg[name]++
		}
	}
	var queue []string
	for name, n := range indeg {
		if n == 0 {
			queue = append(queue, name)
		}
	}
	slices.Sort(queue)
	out := make([]string, 0, len(indeg))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		out = append(out, name)
		next := users[name]
		slices.Sort(next)
		for _, u := range next {
			if indeg[u]--; indeg[u] == 0 {
				queue = append(queue, u)
			}
		}
	}
	if len(out) != len(indeg) {
		return nil, fmt.Errorf("recursive declarations among %d definitions: %w", len(indeg)-len(out), schema.ErrSchemaConfig)
	}
	return out, nil
}
