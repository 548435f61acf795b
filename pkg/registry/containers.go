package registry

import (
	"fmt"
	"math"
	"reflect"

	"github.com/rawbytedev/zorsh/internal/common"
	"github.com/rawbytedev/zorsh/pkg/schema"
	"github.com/rawbytedev/zorsh/pkg/wire"
)

var (
	recordType  = reflect.TypeFor[schema.Record]()
	entriesType = reflect.TypeFor[[]schema.Entry]()
	unitValue   = reflect.ValueOf(schema.UnitValue{})
)

// structFields returns the field values of v in schema order. v may be a
// Record, any map keyed by strings, or a Go struct (or pointer to one).
func structFields(r *Registry, o *schema.StructOptions, v any) ([]any, error) {
	out := make([]any, len(o.Fields))
	if rec, ok := v.(schema.Record); ok {
		for i, f := range o.Fields {
			fv, found := rec[f.Name]
			if !found {
				return nil, fmt.Errorf("field %q missing: %w", f.Name, ErrShape)
			}
			out[i] = fv
		}
		return out, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("nil %s for struct: %w", rv.Type(), ErrShape)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String {
			break
		}
		for i, f := range o.Fields {
			fv := rv.MapIndex(reflect.ValueOf(f.Name).Convert(kt))
			if !fv.IsValid() {
				return nil, fmt.Errorf("field %q missing: %w", f.Name, ErrShape)
			}
			out[i] = fv.Interface()
		}
		return out, nil
	case reflect.Struct:
		plan := o.Plan()
		if rv.Type() != o.Target() {
			var err error
			if plan, err = r.Plan(rv.Type(), o); err != nil {
				return nil, err
			}
		}
		for i, idx := range plan {
			out[i] = rv.Field(idx).Interface()
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot encode %T as struct: %w", v, ErrShape)
}

func writeStruct(r *Registry, w *wire.Writer, v any, opts schema.Options) error {
	o, err := optionsOf[*schema.StructOptions](opts)
	if err != nil {
		return err
	}
	vals, err := structFields(r, o, v)
	if err != nil {
		return err
	}
	for i, f := range o.Fields {
		if err := r.Write(w, f.Type, vals[i]); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return nil
}

func readStruct(r *Registry, rd *wire.Reader, opts schema.Options) (any, error) {
	o, err := optionsOf[*schema.StructOptions](opts)
	if err != nil {
		return nil, err
	}
	if t := o.Target(); t != nil {
		out := reflect.New(t).Elem()
		plan := o.Plan()
		for i, f := range o.Fields {
			v, err := r.Read(rd, f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			if err := assign(out.Field(plan[i]), v); err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
		}
		return out.Interface(), nil
	}
	rec := make(schema.Record, len(o.Fields))
	for _, f := range o.Fields {
		v, err := r.Read(rd, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		rec[f.Name] = v
	}
	return rec, nil
}

func typeStruct(r *Registry, opts schema.Options) (reflect.Type, error) {
	o, err := optionsOf[*schema.StructOptions](opts)
	if err != nil {
		return nil, err
	}
	if t := o.Target(); t != nil {
		return t, nil
	}
	return recordType, nil
}

func compareStruct(r *Registry, a, b any, opts schema.Options) (int, error) {
	o, err := optionsOf[*schema.StructOptions](opts)
	if err != nil {
		return 0, err
	}
	x, err := structFields(r, o, a)
	if err != nil {
		return 0, err
	}
	y, err := structFields(r, o, b)
	if err != nil {
		return 0, err
	}
	for i, f := range o.Fields {
		if c, err := r.Compare(f.Type, x[i], y[i]); err != nil || c != 0 {
			return c, err
		}
	}
	return 0, nil
}

// assign stores v into dst, converting between types of the same kind.
func assign(dst reflect.Value, v any) error {
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		dst.SetZero()
	case rv.Type().AssignableTo(dst.Type()):
		dst.Set(rv)
	case rv.Kind() == dst.Kind() && rv.Type().ConvertibleTo(dst.Type()):
		dst.Set(rv.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot store %s in %s: %w", rv.Type(), dst.Type(), ErrShape)
	}
	return nil
}

func sequence(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv, nil
	case reflect.Pointer:
		if !rv.IsNil() && rv.Elem().Kind() == reflect.Array {
			return rv.Elem(), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("cannot encode %T as a sequence: %w", v, ErrShape)
}

func writeLen(w *wire.Writer, n int) error {
	if uint64(n) > math.MaxUint32 {
		return fmt.Errorf("length %d exceeds u32: %w", n, wire.ErrRange)
	}
	w.WriteU32(uint32(n))
	return nil
}

func writeElems(r *Registry, w *wire.Writer, elem schema.Descriptor, v any, seq reflect.Value) error {
	if r.isPacked(elem.Type) {
		if seq.Kind() == reflect.Array {
			v = arraySlice(seq)
		}
		if done, err := writePacked(w, elem.Type, v); done {
			return err
		}
	}
	for i := 0; i < seq.Len(); i++ {
		if err := r.Write(w, elem, seq.Index(i).Interface()); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	return nil
}

// arraySlice returns a slice over the elements of an array value, copying
// the array when it is not addressable.
func arraySlice(a reflect.Value) any {
	if !a.CanAddr() {
		c := reflect.New(a.Type()).Elem()
		c.Set(a)
		a = c
	}
	return a.Slice(0, a.Len()).Interface()
}

// checkWidth rejects a non-empty collection whose elements take no bytes
// on the wire, since its count could not be bounded by the input length.
func checkWidth(n int, d ...schema.Descriptor) error {
	if n == 0 {
		return nil
	}
	w := 0
	for _, x := range d {
		w = addWidth(w, minWidth(x))
	}
	if w == 0 {
		return fmt.Errorf("%d zero-width elements: %w", n, ErrShape)
	}
	return nil
}

func writeVec(r *Registry, w *wire.Writer, v any, opts schema.Options) error {
	o, err := optionsOf[*schema.VecOptions](opts)
	if err != nil {
		return err
	}
	if v == nil {
		w.WriteU32(0)
		return nil
	}
	seq, err := sequence(v)
	if err != nil {
		return err
	}
	if err := checkWidth(seq.Len(), o.Elem); err != nil {
		return err
	}
	if err := writeLen(w, seq.Len()); err != nil {
		return err
	}
	return writeElems(r, w, o.Elem, v, seq)
}

func writeArray(r *Registry, w *wire.Writer, v any, opts schema.Options) error {
	o, err := optionsOf[*schema.ArrayOptions](opts)
	if err != nil {
		return err
	}
	seq, err := sequence(v)
	if err != nil {
		return err
	}
	if seq.Len() != o.Len {
		return fmt.Errorf("array of %d elements, want %d: %w", seq.Len(), o.Len, ErrShape)
	}
	return writeElems(r, w, o.Elem, v, seq)
}

// readCount reads a u32 element count and checks that that many elements,
// each at least width bytes, fit in the rest of the input.
func readCount(rd *wire.Reader, width int) (int, error) {
	n, err := rd.ReadU32()
	if err != nil {
		return 0, err
	}
	if n > 0 && width == 0 {
		return 0, fmt.Errorf("%d zero-width elements at offset %d: %w", n, rd.Offset()-4, ErrShape)
	}
	if uint64(n)*uint64(width) > uint64(rd.Remaining()) {
		return 0, fmt.Errorf("%d elements of at least %d bytes at offset %d, have %d: %w",
			n, width, rd.Offset(), rd.Remaining(), wire.ErrTruncated)
	}
	return int(n), nil
}

func readVec(r *Registry, rd *wire.Reader, opts schema.Options) (any, error) {
	o, err := optionsOf[*schema.VecOptions](opts)
	if err != nil {
		return nil, err
	}
	n, err := readCount(rd, minWidth(o.Elem))
	if err != nil {
		return nil, err
	}
	return readElems(r, rd, o.Elem, n)
}

func readArray(r *Registry, rd *wire.Reader, opts schema.Options) (any, error) {
	o, err := optionsOf[*schema.ArrayOptions](opts)
	if err != nil {
		return nil, err
	}
	t, err := typeArray(r, opts)
	if err != nil {
		return nil, err
	}
	if w := uint64(minWidth(o.Elem)) * uint64(o.Len); w > uint64(rd.Remaining()) {
		return nil, fmt.Errorf("%s needs at least %d bytes at offset %d, have %d: %w",
			t, w, rd.Offset(), rd.Remaining(), wire.ErrTruncated)
	}
	elems, err := readElems(r, rd, o.Elem, o.Len)
	if err != nil {
		return nil, err
	}
	out := reflect.New(t).Elem()
	reflect.Copy(out, reflect.ValueOf(elems))
	return out.Interface(), nil
}

func readElems(r *Registry, rd *wire.Reader, elem schema.Descriptor, n int) (any, error) {
	if r.isPacked(elem.Type) {
		b, err := rd.Next(n * elem.Type.FixedSize())
		if err != nil {
			return nil, err
		}
		return readPacked(elem.Type, b)
	}
	t, err := r.TypeOf(elem)
	if err != nil {
		return nil, err
	}
	out := reflect.MakeSlice(reflect.SliceOf(t), 0, min(n, rd.Remaining()))
	for i := 0; i < n; i++ {
		v, err := r.Read(rd, elem)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		e := reflect.New(t).Elem()
		if err := assign(e, v); err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out = reflect.Append(out, e)
	}
	return out.Interface(), nil
}

func typeVec(r *Registry, opts schema.Options) (reflect.Type, error) {
	o, err := optionsOf[*schema.VecOptions](opts)
	if err != nil {
		return nil, err
	}
	t, err := r.TypeOf(o.Elem)
	if err != nil {
		return nil, err
	}
	return reflect.SliceOf(t), nil
}

// typeArray is [n]T for elements of type T.
func typeArray(r *Registry, opts schema.Options) (reflect.Type, error) {
	o, err := optionsOf[*schema.ArrayOptions](opts)
	if err != nil {
		return nil, err
	}
	t, err := r.TypeOf(o.Elem)
	if err != nil {
		return nil, err
	}
	if t.Size() > 0 && uint64(o.Len) > uint64(math.MaxInt)/uint64(t.Size()) {
		return nil, fmt.Errorf("array of %d %s is too large: %w", o.Len, t, schema.ErrSchemaConfig)
	}
	return reflect.ArrayOf(o.Len, t), nil
}

func elemOf(opts schema.Options) (schema.Descriptor, error) {
	switch o := opts.(type) {
	case *schema.VecOptions:
		return o.Elem, nil
	case *schema.ArrayOptions:
		return o.Elem, nil
	}
	return schema.Descriptor{}, fmt.Errorf("options %T are not a sequence: %w", opts, ErrShape)
}

// compareSeq orders sequences lexicographically, shorter first on a tie.
func compareSeq(r *Registry, a, b any, opts schema.Options) (int, error) {
	elem, err := elemOf(opts)
	if err != nil {
		return 0, err
	}
	x, err := sequence(a)
	if err != nil {
		return 0, err
	}
	y, err := sequence(b)
	if err != nil {
		return 0, err
	}
	for i := 0; i < x.Len() && i < y.Len(); i++ {
		if c, err := r.Compare(elem, x.Index(i).Interface(), y.Index(i).Interface()); err != nil || c != 0 {
			return c, err
		}
	}
	return x.Len() - y.Len(), nil
}

// setElems lists the elements of a set value: the keys of a map, or the
// items of a slice.
func setElems(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		out := make([]any, 0, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			out = append(out, it.Key().Interface())
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot encode %T as a set: %w", v, ErrShape)
}

func writeSet(r *Registry, w *wire.Writer, v any, opts schema.Options) error {
	o, err := optionsOf[*schema.SetOptions](opts)
	if err != nil {
		return err
	}
	elems, err := setElems(v)
	if err != nil {
		return err
	}
	if err := checkWidth(len(elems), o.Elem); err != nil {
		return err
	}
	order, err := sortedOrder(r, o.Elem, elems)
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}
	if err := writeLen(w, len(elems)); err != nil {
		return err
	}
	for _, i := range order {
		if err := r.Write(w, o.Elem, elems[i]); err != nil {
			return fmt.Errorf("set element: %w", err)
		}
	}
	return nil
}

// keyType returns the decoded type of set elements or map keys and whether
// they go into a Go map. Ordered collections and keys whose type is not
// comparable are kept as a list in wire order instead. So are keys holding
// floats, since a Go map cannot tell -0 from +0.
func keyType(r *Registry, d schema.Descriptor, ordered bool) (reflect.Type, bool, error) {
	t, err := r.TypeOf(d)
	if err != nil {
		return nil, false, err
	}
	return t, !ordered && MapKey(t), nil
}

// MapKey reports whether set elements or map keys decoding to t are
// collected into a Go map.
func MapKey(t reflect.Type) bool {
	return t.Comparable() && !hasFloat(t)
}

func hasFloat(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return true
	case reflect.Array:
		return hasFloat(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasFloat(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

func readSet(r *Registry, rd *wire.Reader, opts schema.Options) (any, error) {
	o, err := optionsOf[*schema.SetOptions](opts)
	if err != nil {
		return nil, err
	}
	t, hashed, err := keyType(r, o.Elem, o.Ordered)
	if err != nil {
		return nil, err
	}
	n, err := readCount(rd, minWidth(o.Elem))
	if err != nil {
		return nil, err
	}
	if !hashed {
		return readSetList(r, rd, o.Elem, t, n)
	}
	out := reflect.MakeMapWithSize(reflect.MapOf(t, unitValue.Type()), n)
	for i := 0; i < n; i++ {
		k, err := readKey(r, rd, o.Elem, t, out)
		if err != nil {
			return nil, fmt.Errorf("set element %d: %w", i, err)
		}
		out.SetMapIndex(k, unitValue)
	}
	return out.Interface(), nil
}

// readSetList decodes n set elements into a []T in wire order.
func readSetList(r *Registry, rd *wire.Reader, elem schema.Descriptor, t reflect.Type, n int) (any, error) {
	out := reflect.MakeSlice(reflect.SliceOf(t), 0, n)
	vals := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := r.Read(rd, elem)
		if err != nil {
			return nil, fmt.Errorf("set element %d: %w", i, err)
		}
		e := reflect.New(t).Elem()
		if err := assign(e, v); err != nil {
			return nil, fmt.Errorf("set element %d: %w", i, err)
		}
		out = reflect.Append(out, e)
		vals = append(vals, v)
	}
	if _, err := sortedOrder(r, elem, vals); err != nil {
		return nil, fmt.Errorf("set: %w", err)
	}
	return out.Interface(), nil
}

// readKey decodes one set element or map key and checks it is new to m.
func readKey(r *Registry, rd *wire.Reader, d schema.Descriptor, t reflect.Type, m reflect.Value) (reflect.Value, error) {
	v, err := r.Read(rd, d)
	if err != nil {
		return reflect.Value{}, err
	}
	k := reflect.New(t).Elem()
	if err := assign(k, v); err != nil {
		return reflect.Value{}, err
	}
	if !k.Comparable() {
		return reflect.Value{}, fmt.Errorf("%T is not comparable: %w", v, ErrShape)
	}
	if m.MapIndex(k).IsValid() {
		return reflect.Value{}, fmt.Errorf("duplicate %v: %w", v, ErrShape)
	}
	return k, nil
}

func typeSet(r *Registry, opts schema.Options) (reflect.Type, error) {
	o, err := optionsOf[*schema.SetOptions](opts)
	if err != nil {
		return nil, err
	}
	t, hashed, err := keyType(r, o.Elem, o.Ordered)
	if err != nil {
		return nil, err
	}
	if !hashed {
		return reflect.SliceOf(t), nil
	}
	return reflect.MapOf(t, unitValue.Type()), nil
}

// mapEntries splits a map value, either a Go map or a []schema.Entry, into
// parallel key and value lists.
func mapEntries(v any) (keys, vals []any, err error) {
	if es, ok := v.([]schema.Entry); ok {
		keys = make([]any, len(es))
		vals = make([]any, len(es))
		for i, e := range es {
			keys[i], vals[i] = e.Key, e.Value
		}
		return keys, vals, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, nil, fmt.Errorf("cannot encode %T as a map: %w", v, ErrShape)
	}
	keys = make([]any, 0, rv.Len())
	vals = make([]any, 0, rv.Len())
	it := rv.MapRange()
	for it.Next() {
		keys = append(keys, it.Key().Interface())
		vals = append(vals, it.Value().Interface())
	}
	return keys, vals, nil
}

func writeMap(r *Registry, w *wire.Writer, v any, opts schema.Options) error {
	o, err := optionsOf[*schema.MapOptions](opts)
	if err != nil {
		return err
	}
	if v == nil {
		w.WriteU32(0)
		return nil
	}
	keys, vals, err := mapEntries(v)
	if err != nil {
		return err
	}
	if err := checkWidth(len(keys), o.Key, o.Value); err != nil {
		return err
	}
	order, err := sortedOrder(r, o.Key, keys)
	if err != nil {
		return fmt.Errorf("map: %w", err)
	}
	if err := writeLen(w, len(keys)); err != nil {
		return err
	}
	for _, i := range order {
		if err := r.Write(w, o.Key, keys[i]); err != nil {
			return fmt.Errorf("key %v: %w", keys[i], err)
		}
		if err := r.Write(w, o.Value, vals[i]); err != nil {
			return fmt.Errorf("value for key %v: %w", keys[i], err)
		}
	}
	return nil
}

func readMap(r *Registry, rd *wire.Reader, opts schema.Options) (any, error) {
	o, err := optionsOf[*schema.MapOptions](opts)
	if err != nil {
		return nil, err
	}
	kt, hashed, err := keyType(r, o.Key, o.Ordered)
	if err != nil {
		return nil, err
	}
	vt, err := r.TypeOf(o.Value)
	if err != nil {
		return nil, err
	}
	n, err := readCount(rd, addWidth(minWidth(o.Key), minWidth(o.Value)))
	if err != nil {
		return nil, err
	}
	if !hashed {
		return readEntries(r, rd, o, n)
	}
	out := reflect.MakeMapWithSize(reflect.MapOf(kt, vt), n)
	for i := 0; i < n; i++ {
		k, err := readKey(r, rd, o.Key, kt, out)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		v, err := r.Read(rd, o.Value)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		e := reflect.New(vt).Elem()
		if err := assign(e, v); err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out.SetMapIndex(k, e)
	}
	return out.Interface(), nil
}

// readEntries decodes n map entries into a []schema.Entry in wire order.
func readEntries(r *Registry, rd *wire.Reader, o *schema.MapOptions, n int) ([]schema.Entry, error) {
	out := make([]schema.Entry, n)
	keys := make([]any, n)
	for i := range out {
		k, err := r.Read(rd, o.Key)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		v, err := r.Read(rd, o.Value)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = schema.Entry{Key: k, Value: v}
		keys[i] = k
	}
	if _, err := sortedOrder(r, o.Key, keys); err != nil {
		return nil, fmt.Errorf("map: %w", err)
	}
	return out, nil
}

func typeMap(r *Registry, opts schema.Options) (reflect.Type, error) {
	o, err := optionsOf[*schema.MapOptions](opts)
	if err != nil {
		return nil, err
	}
	kt, hashed, err := keyType(r, o.Key, o.Ordered)
	if err != nil {
		return nil, err
	}
	vt, err := r.TypeOf(o.Value)
	if err != nil {
		return nil, err
	}
	if !hashed {
		return entriesType, nil
	}
	return reflect.MapOf(kt, vt), nil
}

// optionPayload unwraps an option value. nil and nil pointers are absent;
// a non-nil pointer carries its target, anything else is the payload itself.
func optionPayload(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		return rv.Elem().Interface(), true
	}
	return v, true
}

func writeOption(r *Registry, w *wire.Writer, v any, opts schema.Options) error {
	o, err := optionsOf[*schema.OptionOptions](opts)
	if err != nil {
		return err
	}
	payload, ok := optionPayload(v)
	if !ok {
		w.WriteU8(0)
		return nil
	}
	w.WriteU8(1)
	return r.Write(w, o.Inner, payload)
}

func readOption(r *Registry, rd *wire.Reader, opts schema.Options) (any, error) {
	o, err := optionsOf[*schema.OptionOptions](opts)
	if err != nil {
		return nil, err
	}
	t, err := r.TypeOf(o.Inner)
	if err != nil {
		return nil, err
	}
	tag, err := rd.ReadU8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return reflect.Zero(reflect.PointerTo(t)).Interface(), nil
	case 1:
		v, err := r.Read(rd, o.Inner)
		if err != nil {
			return nil, err
		}
		p := reflect.New(t)
		if err := assign(p.Elem(), v); err != nil {
			return nil, err
		}
		return p.Interface(), nil
	}
	return nil, fmt.Errorf("option tag %d at offset %d: %w", tag, rd.Offset()-1, ErrShape)
}

func typeOption(r *Registry, opts schema.Options) (reflect.Type, error) {
	o, err := optionsOf[*schema.OptionOptions](opts)
	if err != nil {
		return nil, err
	}
	t, err := r.TypeOf(o.Inner)
	if err != nil {
		return nil, err
	}
	return reflect.PointerTo(t), nil
}

func compareOption(r *Registry, a, b any, opts schema.Options) (int, error) {
	o, err := optionsOf[*schema.OptionOptions](opts)
	if err != nil {
		return 0, err
	}
	x, xok := optionPayload(a)
	y, yok := optionPayload(b)
	switch {
	case !xok && !yok:
		return 0, nil
	case !xok:
		return -1, nil
	case !yok:
		return 1, nil
	}
	return r.Compare(o.Inner, x, y)
}

func writeTuple(r *Registry, w *wire.Writer, v any, opts schema.Options) error {
	o, err := optionsOf[*schema.TupleOptions](opts)
	if err != nil {
		return err
	}
	seq, err := sequence(v)
	if err != nil {
		return err
	}
	if seq.Len() != len(o.Elems) {
		return fmt.Errorf("tuple of %d elements, want %d: %w", seq.Len(), len(o.Elems), ErrShape)
	}
	for i, e := range o.Elems {
		if err := r.Write(w, e, seq.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func readTuple(r *Registry, rd *wire.Reader, opts schema.Options) (any, error) {
	o, err := optionsOf[*schema.TupleOptions](opts)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(o.Elems))
	for i, e := range o.Elems {
		if out[i], err = r.Read(rd, e); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

func compareTuple(r *Registry, a, b any, opts schema.Options) (int, error) {
	o, err := optionsOf[*schema.TupleOptions](opts)
	if err != nil {
		return 0, err
	}
	x, err := sequence(a)
	if err != nil {
		return 0, err
	}
	y, err := sequence(b)
	if err != nil {
		return 0, err
	}
	if x.Len() != len(o.Elems) || y.Len() != len(o.Elems) {
		return 0, fmt.Errorf("tuple arity mismatch: %w", ErrShape)
	}
	for i, e := range o.Elems {
		if c, err := r.Compare(e, x.Index(i).Interface(), y.Index(i).Interface()); err != nil || c != 0 {
			return c, err
		}
	}
	return 0, nil
}

func writePacked(w *wire.Writer, tag schema.Tag, v any) (bool, error) {
	switch s := v.(type) {
	case []uint8:
		if tag != schema.U8 {
			return false, nil
		}
		w.WriteRaw(s)
	case []uint16:
		if tag != schema.U16 {
			return false, nil
		}
		putInts(w, s)
	case []uint32:
		if tag != schema.U32 {
			return false, nil
		}
		putInts(w, s)
	case []uint64:
		if tag != schema.U64 {
			return false, nil
		}
		putInts(w, s)
	case []int8:
		if tag != schema.I8 {
			return false, nil
		}
		putInts(w, s)
	case []int16:
		if tag != schema.I16 {
			return false, nil
		}
		putInts(w, s)
	case []int32:
		if tag != schema.I32 {
			return false, nil
		}
		putInts(w, s)
	case []int64:
		if tag != schema.I64 {
			return false, nil
		}
		putInts(w, s)
	case []float32:
		if tag != schema.F32 {
			return false, nil
		}
		if i := common.FirstNaN(s); i >= 0 {
			return true, fmt.Errorf("index %d: NaN: %w", i, wire.ErrRange)
		}
		common.PutFloat32s(w.Reserve(len(s)*4), s)
	case []float64:
		if tag != schema.F64 {
			return false, nil
		}
		if i := common.FirstNaN(s); i >= 0 {
			return true, fmt.Errorf("index %d: NaN: %w", i, wire.ErrRange)
		}
		common.PutFloat64s(w.Reserve(len(s)*8), s)
	default:
		return false, nil
	}
	return true, nil
}

func putInts[T int8 | int16 | int32 | int64 | uint16 | uint32 | uint64](w *wire.Writer, s []T) {
	common.PutInts(w.Reserve(len(s)*common.PackedSize[T]()), s)
}

func readPacked(tag schema.Tag, b []byte) (any, error) {
	switch tag {
	case schema.U8:
		return common.Ints[uint8](b), nil
	case schema.U16:
		return common.Ints[uint16](b), nil
	case schema.U32:
		return common.Ints[uint32](b), nil
	case schema.U64:
		return common.Ints[uint64](b), nil
	case schema.I8:
		return common.Ints[int8](b), nil
	case schema.I16:
		return common.Ints[int16](b), nil
	case schema.I32:
		return common.Ints[int32](b), nil
	case schema.I64:
		return common.Ints[int64](b), nil
	case schema.F32:
		out, err := common.Float32s(b)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", err, wire.ErrRange)
		}
		return out, nil
	case schema.F64:
		out, err := common.Float64s(b)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", err, wire.ErrRange)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s is not a packed type: %w", tag, ErrUnknownType)
}
