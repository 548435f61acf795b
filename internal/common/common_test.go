package common

import (
	"math"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackedSize(t *testing.T) {
	assert.Equal(t, 1, PackedSize[int8]())
	assert.Equal(t, 2, PackedSize[uint16]())
	assert.Equal(t, 4, PackedSize[float32]())
	assert.Equal(t, 8, PackedSize[int64]())
}

func TestPutIntsSigned(t *testing.T) {
	dst := make([]byte, 6)
	PutInts(dst, []int16{-1, 2, math.MinInt16})
	assert.Equal(t, []byte{0xFF, 0xFF, 0x02, 0x00, 0x00, 0x80}, dst)
	assert.Equal(t, []int16{-1, 2, math.MinInt16}, Ints[int16](dst))
}

func TestQuickInts(t *testing.T) {
	f := func(src []int32) bool {
		dst := make([]byte, len(src)*4)
		PutInts(dst, src)
		got := Ints[int32](dst)
		return len(got) == len(src) && (len(src) == 0 || assert.ObjectsAreEqual(src, got))
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestFloats(t *testing.T) {
	src := []float64{1, math.Inf(-1), math.Pi}
	dst := make([]byte, 24)
	PutFloat64s(dst, src)
	got, err := Float64s(dst)
	require.NoError(t, err)
	assert.Equal(t, src, got)

	assert.Equal(t, -1, FirstNaN(src))
	assert.Equal(t, 1, FirstNaN([]float32{0, float32(math.NaN())}))

	nan := make([]byte, 8)
	PutFloat32s(nan, []float32{2, float32(math.NaN())})
	_, err = Float32s(nan)
	assert.Error(t, err)
}

func TestUnsafeString(t *testing.T) {
	b := []byte("abc")
	assert.Equal(t, "abc", UnsafeString(b))
	assert.Equal(t, "", UnsafeString(nil))
}
