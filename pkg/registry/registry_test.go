package registry

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/big"
	"reflect"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rawbytedev/zorsh/pkg/schema"
	"github.com/rawbytedev/zorsh/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prim(t schema.Tag) schema.Descriptor { return schema.Primitive(t) }

func mustDesc(t *testing.T) func(schema.Descriptor, error) schema.Descriptor {
	return func(d schema.Descriptor, err error) schema.Descriptor {
		t.Helper()
		require.NoError(t, err)
		return d
	}
}

func roundTrip(t *testing.T, r *Registry, d schema.Descriptor, v any) (any, []byte) {
	t.Helper()
	b, err := r.Encode(d, v)
	require.NoError(t, err)
	got, err := r.Decode(d, b, wire.Options{})
	require.NoError(t, err)
	return got, b
}

func TestBuiltinsRegistered(t *testing.T) {
	r := New()
	for _, tag := range schema.Builtin {
		_, err := r.Lookup(tag)
		assert.NoError(t, err, tag)
	}
	assert.Len(t, r.Tags(), len(schema.Builtin))
	assert.Empty(t, NewEmpty().Tags())
}

func TestUnknownType(t *testing.T) {
	r := New()
	_, err := r.Lookup("u256")
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.ErrorContains(t, err, "u256")

	_, err = r.Encode(schema.NewVec(prim("u256")), []int{1})
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.ErrorIs(t, r.Validate(schema.NewOption(prim("u256"))), ErrUnknownType)
	assert.NoError(t, r.Validate(schema.NewOption(prim(schema.U8))))

	_, err = NewEmpty().Encode(prim(schema.U8), 1)
	assert.ErrorIs(t, err, ErrUnknownType)
}

type fixedBytes struct{ n int }

func (fixedBytes) Children() []schema.Descriptor { return nil }

func fixedBytesHandler() Handler {
	return Handler{
		Write: func(_ *Registry, w *wire.Writer, v any, opts schema.Options) error {
			o := opts.(fixedBytes)
			b, ok := v.([]byte)
			if !ok || len(b) != o.n {
				return fmt.Errorf("want %d bytes: %w", o.n, ErrShape)
			}
			w.WriteRaw(b)
			return nil
		},
		Read: func(_ *Registry, rd *wire.Reader, opts schema.Options) (any, error) {
			b, err := rd.Next(opts.(fixedBytes).n)
			if err != nil {
				return nil, err
			}
			return bytes.Clone(b), nil
		},
		Type: func(*Registry, schema.Options) (reflect.Type, error) {
			return reflect.TypeFor[[]byte](), nil
		},
	}
}

func TestCustomTagComposes(t *testing.T) {
	r := New()
	r.Register("fixedBytes", fixedBytesHandler())
	key := schema.Descriptor{Type: "fixedBytes", Options: fixedBytes{n: 4}}
	d := mustDesc(t)(schema.NewStruct(
		schema.Field{Name: "keys", Type: schema.NewVec(key)},
		schema.Field{Name: "tag", Type: prim(schema.U8)},
	))

	v := schema.Record{"keys": [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}}, "tag": uint8(9)}
	got, b := roundTrip(t, r, d, v)
	assert.Equal(t, []byte{2, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, b)
	assert.Empty(t, cmp.Diff(v, got))

	_, err := r.Encode(d, schema.Record{"keys": [][]byte{{1}}, "tag": 0})
	assert.ErrorIs(t, err, ErrShape)

	_, err = r.Encode(schema.NewSet(key), [][]byte{{1, 2, 3, 4}, {0, 0, 0, 0}})
	assert.ErrorIs(t, err, ErrShape, "tags without Compare cannot be set elements")
}

func TestRegisterReplacesAndLogs(t *testing.T) {
	var logs bytes.Buffer
	r := New()
	r.SetLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	doubled := Handler{
		Write: func(_ *Registry, w *wire.Writer, v any, _ schema.Options) error {
			w.WriteU8(v.(uint8) * 2)
			return nil
		},
		Read: readWith((*wire.Reader).ReadU8),
		Type: typeOf[uint8](),
	}
	r.Register(schema.U8, doubled)
	assert.Contains(t, logs.String(), "replacing handler")
	assert.Contains(t, logs.String(), "tag=u8")

	// The packed fast path must not bypass a replaced handler.
	b, err := r.Encode(schema.NewVec(prim(schema.U8)), []uint8{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0, 0, 0, 2, 4}, b)

	b, err = New().Encode(schema.NewVec(prim(schema.U8)), []uint8{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0, 0, 0, 1, 2}, b)
}

func TestRegisterNeedsWriteAndRead(t *testing.T) {
	assert.Panics(t, func() { New().Register("x", Handler{Write: writeUnit}) })
}

func TestFailedWriteRollsBack(t *testing.T) {
	r := New()
	d := mustDesc(t)(schema.NewStruct(
		schema.Field{Name: "a", Type: prim(schema.U32)},
		schema.Field{Name: "b", Type: prim(schema.U8)},
	))
	w := wire.NewWriter(0)
	w.WriteU8(0xAA)
	err := r.Write(w, d, schema.Record{"a": 1, "b": 300})
	require.ErrorIs(t, err, wire.ErrRange)
	assert.ErrorContains(t, err, `field "b"`)
	assert.Equal(t, []byte{0xAA}, w.Bytes())
}

func TestTrailingBytes(t *testing.T) {
	r := New()
	_, err := r.Decode(prim(schema.U16), []byte{1, 0, 0}, wire.Options{})
	assert.ErrorIs(t, err, ErrTrailingBytes)
	_, err = r.Decode(prim(schema.U16), []byte{1}, wire.Options{})
	assert.ErrorIs(t, err, wire.ErrTruncated)
}

func TestIntegerConversions(t *testing.T) {
	r := New()
	type level uint8
	for _, v := range []any{7, int8(7), uint64(7), 7.0, level(7), big.NewInt(7)} {
		b, err := r.Encode(prim(schema.U8), v)
		require.NoError(t, err, "%T", v)
		assert.Equal(t, []byte{7}, b)
	}
	for _, v := range []any{256, -1, 7.5, "7", nil, uint64(1 << 40)} {
		_, err := r.Encode(prim(schema.U8), v)
		assert.Error(t, err, "%T %v", v, v)
	}
	_, err := r.Encode(prim(schema.U8), 7.5)
	assert.ErrorIs(t, err, wire.ErrRange)
	_, err = r.Encode(prim(schema.U8), "7")
	assert.ErrorIs(t, err, ErrShape)

	b, err := r.Encode(prim(schema.I16), uint8(200))
	require.NoError(t, err)
	assert.Equal(t, []byte{200, 0}, b)
	_, err = r.Encode(prim(schema.I16), uint16(40000))
	assert.ErrorIs(t, err, wire.ErrRange)

	b, err = r.Encode(prim(schema.U128), uint64(1))
	require.NoError(t, err)
	assert.Equal(t, append([]byte{1}, make([]byte, 15)...), b)
	_, err = r.Encode(prim(schema.U128), -1)
	assert.ErrorIs(t, err, wire.ErrRange)
}

func TestFloatConversions(t *testing.T) {
	r := New()
	b, err := r.Encode(prim(schema.F32), 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0x80, 0x3F}, b)

	_, err = r.Encode(prim(schema.F32), 1e300)
	assert.ErrorIs(t, err, wire.ErrRange)
	_, err = r.Encode(prim(schema.F32), 16777217)
	assert.ErrorIs(t, err, wire.ErrRange)
	_, err = r.Encode(prim(schema.F64), int64(1<<53+1))
	assert.ErrorIs(t, err, wire.ErrRange)
	_, err = r.Encode(prim(schema.F64), "1")
	assert.ErrorIs(t, err, ErrShape)
}

func TestStructSources(t *testing.T) {
	r := New()
	d := mustDesc(t)(schema.NewStruct(
		schema.Field{Name: "name", Type: prim(schema.String)},
		schema.Field{Name: "hit_points", Type: prim(schema.U16)},
	))
	want := []byte{2, 0, 0, 0, 'o', 'k', 0x2C, 0x01}

	type hero struct {
		HitPoints int
		Name      string
		ignored   bool
	}
	type tagged struct {
		Label string `borsh:"name"`
		HP    uint16 `borsh:"hit_points"`
		Extra bool   `borsh:"-"`
	}
	sources := []any{
		schema.Record{"hit_points": 300, "name": "ok", "extra": true},
		map[string]any{"name": "ok", "hit_points": uint16(300)},
		map[string]string{"name": "ok", "hit_points": "x"},
		hero{HitPoints: 300, Name: "ok"},
		&hero{HitPoints: 300, Name: "ok"},
		tagged{Label: "ok", HP: 300},
	}
	for i, src := range sources {
		b, err := r.Encode(d, src)
		if i == 2 {
			assert.ErrorIs(t, err, ErrShape)
			continue
		}
		require.NoError(t, err, "%T", src)
		assert.Equal(t, want, b, "%T", src)
	}

	_, err := r.Encode(d, schema.Record{"name": "ok"})
	assert.ErrorIs(t, err, ErrShape)
	assert.ErrorContains(t, err, "hit_points")
	_, err = r.Encode(d, (*hero)(nil))
	assert.ErrorIs(t, err, ErrShape)
	_, err = r.Encode(d, struct{ Name string }{"ok"})
	assert.ErrorIs(t, err, ErrShape)
	_ = hero{}.ignored
}

func TestBoundStructDecode(t *testing.T) {
	type pair struct {
		Left  uint8
		Right []uint16
	}
	r := New()
	d := mustDesc(t)(schema.NewStruct(
		schema.Field{Name: "right", Type: schema.NewVec(prim(schema.U16))},
		schema.Field{Name: "left", Type: prim(schema.U8)},
	))
	plan, err := r.Plan(reflect.TypeFor[pair](), d.Options.(*schema.StructOptions))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, plan)
	bound := mustDesc(t)(schema.BindStruct(d, reflect.TypeFor[pair](), plan))

	got, b := roundTrip(t, r, bound, pair{Left: 3, Right: []uint16{1, 2}})
	assert.Equal(t, []byte{2, 0, 0, 0, 1, 0, 2, 0, 3}, b)
	assert.Equal(t, pair{Left: 3, Right: []uint16{1, 2}}, got)

	ty, err := r.TypeOf(bound)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[pair](), ty)
}

func TestConcurrentUse(t *testing.T) {
	r := New()
	d := schema.NewMap(prim(schema.String), schema.NewVec(prim(schema.I32)))
	v := map[string][]int32{"a": {1, -1}, "b": nil}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b, err := r.Encode(d, v)
				assert.NoError(t, err)
				_, err = r.Decode(d, b, wire.Options{})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}

func reflectTypeOf[T any]() reflect.Type { return reflect.TypeFor[T]() }
