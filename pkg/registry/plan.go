package registry

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rawbytedev/zorsh/pkg/schema"
)

type planKey struct {
	t reflect.Type
	o *schema.StructOptions
}

// Plan maps the fields of a struct schema, in order, to field indices of
// the Go struct type t. A Go field matches a schema field through its
// `borsh:"name"` tag, or by name ignoring case and underscores. Fields
// tagged `borsh:"-"` never match. Plans are cached per registry.
func (r *Registry) Plan(t reflect.Type, o *schema.StructOptions) ([]int, error) {
	key := planKey{t: t, o: o}
	r.planMu.RLock()
	if plan, ok := r.plans[key]; ok {
		r.planMu.RUnlock()
		return plan, nil
	}
	r.planMu.RUnlock()

	r.planMu.Lock()
	defer r.planMu.Unlock()

	if plan, ok := r.plans[key]; ok {
		return plan, nil
	}

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct: %w", t, ErrShape)
	}
	byName := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("borsh")
		switch tag {
		case "-":
			continue
		case "":
			byName[fold(sf.Name)] = i
		default:
			byName[tag] = i
		}
	}

	plan := make([]int, len(o.Fields))
	for i, f := range o.Fields {
		idx, ok := byName[f.Name]
		if !ok {
			idx, ok = byName[fold(f.Name)]
		}
		if !ok {
			return nil, fmt.Errorf("%s has no field for %q: %w", t, f.Name, ErrShape)
		}
		plan[i] = idx
	}
	r.plans[key] = plan
	return plan, nil
}

func fold(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}
