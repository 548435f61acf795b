package registry

import (
	"cmp"
	"fmt"
	"reflect"

	"github.com/rawbytedev/zorsh/pkg/schema"
	"github.com/rawbytedev/zorsh/pkg/wire"
)

// variantOf accepts a Variant, a *Variant, or a map with exactly one
// string key naming the active variant.
func variantOf(v any) (string, any, error) {
	switch x := v.(type) {
	case schema.Variant:
		return x.Name, x.Value, nil
	case *schema.Variant:
		if x != nil {
			return x.Name, x.Value, nil
		}
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.Len() != 1 {
			return "", nil, fmt.Errorf("enum value names %d variants, want 1: %w", rv.Len(), ErrShape)
		}
		it := rv.MapRange()
		it.Next()
		return it.Key().String(), it.Value().Interface(), nil
	}
	return "", nil, fmt.Errorf("cannot encode %T as enum: %w", v, ErrShape)
}

func activeVariant(o *schema.EnumOptions, v any) (schema.EnumVariant, any, error) {
	name, payload, err := variantOf(v)
	if err != nil {
		return schema.EnumVariant{}, nil, err
	}
	ev, ok := o.Lookup(name)
	if !ok {
		return schema.EnumVariant{}, nil, fmt.Errorf("unknown variant %q: %w", name, ErrShape)
	}
	return ev, payload, nil
}

func writeEnum(r *Registry, w *wire.Writer, v any, opts schema.Options) error {
	o, err := optionsOf[*schema.EnumOptions](opts)
	if err != nil {
		return err
	}
	ev, payload, err := activeVariant(o, v)
	if err != nil {
		return err
	}
	w.WriteU8(uint8(ev.Index))
	if ev.Type.Type == schema.Unit {
		return nil
	}
	if err := r.Write(w, ev.Type, payload); err != nil {
		return fmt.Errorf("variant %q: %w", ev.Name, err)
	}
	return nil
}

func readEnum(r *Registry, rd *wire.Reader, opts schema.Options) (any, error) {
	o, err := optionsOf[*schema.EnumOptions](opts)
	if err != nil {
		return nil, err
	}
	idx, err := rd.ReadU8()
	if err != nil {
		return nil, err
	}
	ev, ok := o.At(int(idx))
	if !ok {
		return nil, fmt.Errorf("unknown variant index %d at offset %d: %w", idx, rd.Offset()-1, ErrShape)
	}
	if ev.Type.Type == schema.Unit {
		return schema.Variant{Name: ev.Name, Value: schema.UnitValue{}}, nil
	}
	v, err := r.Read(rd, ev.Type)
	if err != nil {
		return nil, fmt.Errorf("variant %q: %w", ev.Name, err)
	}
	return schema.Variant{Name: ev.Name, Value: v}, nil
}

// compareEnum orders by variant index, then by payload.
func compareEnum(r *Registry, a, b any, opts schema.Options) (int, error) {
	o, err := optionsOf[*schema.EnumOptions](opts)
	if err != nil {
		return 0, err
	}
	x, xv, err := activeVariant(o, a)
	if err != nil {
		return 0, err
	}
	y, yv, err := activeVariant(o, b)
	if err != nil {
		return 0, err
	}
	if x.Index != y.Index {
		return cmp.Compare(x.Index, y.Index), nil
	}
	if x.Type.Type == schema.Unit {
		return 0, nil
	}
	return r.Compare(x.Type, xv, yv)
}

func labelIndex(o *schema.NativeEnumOptions, v any) (int, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || !rv.Comparable() {
		return 0, fmt.Errorf("cannot encode %T as a label: %w", v, ErrShape)
	}
	if i, ok := o.Index(v); ok {
		return i, nil
	}
	lt := o.LabelType
	if lt.Kind() != reflect.Interface &&
		(rv.Kind() == reflect.String) == (lt.Kind() == reflect.String) &&
		rv.Type().ConvertibleTo(lt) {
		if c, ok := exactConvert(rv, lt); ok {
			if i, ok := o.Index(c.Interface()); ok {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown label %v: %w", v, ErrShape)
}

// exactConvert converts v to t only when no information is lost: the result
// must convert back to v and keep its sign.
func exactConvert(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	c := v.Convert(t)
	if !c.Convert(v.Type()).Equal(v) {
		return reflect.Value{}, false
	}
	if v.CanInt() && v.Int() < 0 && c.CanUint() {
		return reflect.Value{}, false
	}
	if v.CanFloat() && v.Float() < 0 && c.CanUint() {
		return reflect.Value{}, false
	}
	return c, true
}

func writeNativeEnum(_ *Registry, w *wire.Writer, v any, opts schema.Options) error {
	o, err := optionsOf[*schema.NativeEnumOptions](opts)
	if err != nil {
		return err
	}
	i, err := labelIndex(o, v)
	if err != nil {
		return err
	}
	w.WriteU8(uint8(i))
	return nil
}

func readNativeEnum(_ *Registry, rd *wire.Reader, opts schema.Options) (any, error) {
	o, err := optionsOf[*schema.NativeEnumOptions](opts)
	if err != nil {
		return nil, err
	}
	idx, err := rd.ReadU8()
	if err != nil {
		return nil, err
	}
	label, ok := o.Label(int(idx))
	if !ok {
		return nil, fmt.Errorf("unknown label index %d at offset %d: %w", idx, rd.Offset()-1, ErrShape)
	}
	return label, nil
}

func typeNativeEnum(_ *Registry, opts schema.Options) (reflect.Type, error) {
	o, err := optionsOf[*schema.NativeEnumOptions](opts)
	if err != nil {
		return nil, err
	}
	return o.LabelType, nil
}

func compareNativeEnum(_ *Registry, a, b any, opts schema.Options) (int, error) {
	o, err := optionsOf[*schema.NativeEnumOptions](opts)
	if err != nil {
		return 0, err
	}
	x, err := labelIndex(o, a)
	if err != nil {
		return 0, err
	}
	y, err := labelIndex(o, b)
	if err != nil {
		return 0, err
	}
	return cmp.Compare(x, y), nil
}
