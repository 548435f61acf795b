package registry

import (
	"cmp"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/rawbytedev/zorsh/internal/common"
	"github.com/rawbytedev/zorsh/pkg/schema"
	"github.com/rawbytedev/zorsh/pkg/wire"
	"golang.org/x/exp/constraints"
)

func unsigned[T constraints.Unsigned](read func(*wire.Reader) (T, error), write func(*wire.Writer, T)) Handler {
	limit := uint64(^T(0))
	return Handler{
		Write: func(_ *Registry, w *wire.Writer, v any, _ schema.Options) error {
			if x, ok := v.(T); ok {
				write(w, x)
				return nil
			}
			u, err := toUint64(v, limit)
			if err != nil {
				return err
			}
			write(w, T(u))
			return nil
		},
		Read:    readWith(read),
		Type:    typeOf[T](),
		Compare: compareInteger,
	}
}

func signed[T constraints.Signed](read func(*wire.Reader) (T, error), write func(*wire.Writer, T)) Handler {
	bits := common.PackedSize[T]() * 8
	hi := int64(1)<<(bits-1) - 1
	lo := -hi - 1
	return Handler{
		Write: func(_ *Registry, w *wire.Writer, v any, _ schema.Options) error {
			if x, ok := v.(T); ok {
				write(w, x)
				return nil
			}
			n, err := toInt64(v, lo, hi)
			if err != nil {
				return err
			}
			write(w, T(n))
			return nil
		},
		Read:    readWith(read),
		Type:    typeOf[T](),
		Compare: compareInteger,
	}
}

func wide(read func(*wire.Reader) (*big.Int, error), write func(*wire.Writer, *big.Int) error) Handler {
	return Handler{
		Write: func(_ *Registry, w *wire.Writer, v any, _ schema.Options) error {
			b, err := toBig(v)
			if err != nil {
				return err
			}
			return write(w, b)
		},
		Read:    readWith(read),
		Type:    typeOf[*big.Int](),
		Compare: compareInteger,
	}
}

func toUint64(v any, limit uint64) (uint64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= limit {
			return u, nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n := rv.Int(); n >= 0 && uint64(n) <= limit {
			return uint64(n), nil
		}
	default:
		b, err := toBig(v)
		if err != nil {
			return 0, err
		}
		if b.IsUint64() && b.Uint64() <= limit {
			return b.Uint64(), nil
		}
	}
	return 0, fmt.Errorf("%v outside [0, %d]: %w", v, limit, wire.ErrRange)
}

func toInt64(v any, lo, hi int64) (int64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n := rv.Int(); n >= lo && n <= hi {
			return n, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= uint64(hi) {
			return int64(u), nil
		}
	default:
		b, err := toBig(v)
		if err != nil {
			return 0, err
		}
		if b.IsInt64() && b.Int64() >= lo && b.Int64() <= hi {
			return b.Int64(), nil
		}
	}
	return 0, fmt.Errorf("%v outside [%d, %d]: %w", v, lo, hi, wire.ErrRange)
}

// toBig converts any Go integer, integral float or big.Int to a *big.Int.
func toBig(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("nil *big.Int: %w", ErrShape)
		}
		return x, nil
	case big.Int:
		return &x, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not an integer: %w", f, wire.ErrRange)
		}
		b, _ := big.NewFloat(f).Int(nil)
		return b, nil
	}
	return nil, fmt.Errorf("cannot encode %T as an integer: %w", v, ErrShape)
}

// toFloat reports whether the value came from an integer, which must then
// be represented exactly.
func toFloat(v any) (f float64, fromInt bool, err error) {
	if b, ok := v.(*big.Int); ok && b != nil {
		x, acc := new(big.Float).SetInt(b).Float64()
		if acc != big.Exact {
			return 0, true, fmt.Errorf("%v has no exact float64 form: %w", b, wire.ErrRange)
		}
		return x, true, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), false, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		f = float64(n)
		if f < -(1<<63) || f >= 1<<63 || int64(f) != n {
			return 0, true, fmt.Errorf("%d has no exact float64 form: %w", n, wire.ErrRange)
		}
		return f, true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		f = float64(u)
		if f >= 1<<64 || uint64(f) != u {
			return 0, true, fmt.Errorf("%d has no exact float64 form: %w", u, wire.ErrRange)
		}
		return f, true, nil
	}
	return 0, false, fmt.Errorf("cannot encode %T as a float: %w", v, ErrShape)
}

func writeF32(_ *Registry, w *wire.Writer, v any, _ schema.Options) error {
	if x, ok := v.(float32); ok {
		return w.WriteF32(x)
	}
	f, fromInt, err := toFloat(v)
	if err != nil {
		return err
	}
	x := float32(f)
	if math.IsInf(float64(x), 0) && !math.IsInf(f, 0) {
		return fmt.Errorf("%v overflows float32: %w", f, wire.ErrRange)
	}
	if fromInt && float64(x) != f {
		return fmt.Errorf("%v has no exact float32 form: %w", f, wire.ErrRange)
	}
	return w.WriteF32(x)
}

func writeF64(_ *Registry, w *wire.Writer, v any, _ schema.Options) error {
	if x, ok := v.(float64); ok {
		return w.WriteF64(x)
	}
	f, _, err := toFloat(v)
	if err != nil {
		return err
	}
	return w.WriteF64(f)
}

func writeBool(_ *Registry, w *wire.Writer, v any, _ schema.Options) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Bool {
		return fmt.Errorf("cannot encode %T as bool: %w", v, ErrShape)
	}
	w.WriteBool(rv.Bool())
	return nil
}

func writeString(_ *Registry, w *wire.Writer, v any, _ schema.Options) error {
	if s, ok := v.(string); ok {
		return w.WriteString(s)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return fmt.Errorf("cannot encode %T as string: %w", v, ErrShape)
	}
	return w.WriteString(rv.String())
}

func writeUnit(*Registry, *wire.Writer, any, schema.Options) error { return nil }

func readUnit(*Registry, *wire.Reader, schema.Options) (any, error) { return schema.UnitValue{}, nil }

func compareInteger(_ *Registry, a, b any, _ schema.Options) (int, error) {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.CanInt() && rb.CanInt() {
		return cmp.Compare(ra.Int(), rb.Int()), nil
	}
	if ra.CanUint() && rb.CanUint() {
		return cmp.Compare(ra.Uint(), rb.Uint()), nil
	}
	x, err := toBig(a)
	if err != nil {
		return 0, err
	}
	y, err := toBig(b)
	if err != nil {
		return 0, err
	}
	return x.Cmp(y), nil
}

func compareFloat(_ *Registry, a, b any, _ schema.Options) (int, error) {
	x, _, err := toFloat(a)
	if err != nil {
		return 0, err
	}
	y, _, err := toFloat(b)
	if err != nil {
		return 0, err
	}
	if c := cmp.Compare(x, y); c != 0 {
		return c, nil
	}
	// -0 and +0 encode differently, so they are distinct and -0 sorts first.
	switch sx, sy := math.Signbit(x), math.Signbit(y); {
	case sx == sy:
		return 0, nil
	case sx:
		return -1, nil
	default:
		return 1, nil
	}
}

func compareBool(_ *Registry, a, b any, _ schema.Options) (int, error) {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() != reflect.Bool || rb.Kind() != reflect.Bool {
		return 0, fmt.Errorf("cannot compare %T and %T as bool: %w", a, b, ErrShape)
	}
	switch {
	case ra.Bool() == rb.Bool():
		return 0, nil
	case rb.Bool():
		return -1, nil
	default:
		return 1, nil
	}
}

func compareString(_ *Registry, a, b any, _ schema.Options) (int, error) {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() != reflect.String || rb.Kind() != reflect.String {
		return 0, fmt.Errorf("cannot compare %T and %T as string: %w", a, b, ErrShape)
	}
	return strings.Compare(ra.String(), rb.String()), nil
}

func compareUnit(*Registry, any, any, schema.Options) (int, error) { return 0, nil }
