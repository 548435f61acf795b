package common

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Number is an element type that can live in a packed numeric buffer.
type Number interface {
	constraints.Integer | constraints.Float
}

// PackedSize returns the byte width of one element of T.
func PackedSize[T Number]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

// PutInts writes src into dst as little-endian two's complement integers.
// dst must hold len(src)*PackedSize[T]() bytes.
func PutInts[T constraints.Integer](dst []byte, src []T) {
	switch PackedSize[T]() {
	case 1:
		for i, v := range src {
			dst[i] = byte(v)
		}
	case 2:
		for i, v := range src {
			binary.LittleEndian.PutUint16(dst[i*2:], uint16(v))
		}
	case 4:
		for i, v := range src {
			binary.LittleEndian.PutUint32(dst[i*4:], uint32(v))
		}
	case 8:
		for i, v := range src {
			binary.LittleEndian.PutUint64(dst[i*8:], uint64(v))
		}
	}
}

// Ints decodes a packed little-endian buffer into a fresh []T.
// Signed types wrap from the unsigned wire value, restoring the sign.
func Ints[T constraints.Integer](src []byte) []T {
	size := PackedSize[T]()
	out := make([]T, len(src)/size)
	switch size {
	case 1:
		for i := range out {
			out[i] = T(src[i])
		}
	case 2:
		for i := range out {
			out[i] = T(binary.LittleEndian.Uint16(src[i*2:]))
		}
	case 4:
		for i := range out {
			out[i] = T(binary.LittleEndian.Uint32(src[i*4:]))
		}
	case 8:
		for i := range out {
			out[i] = T(binary.LittleEndian.Uint64(src[i*8:]))
		}
	}
	return out
}

// FirstNaN returns the index of the first NaN in s, or -1.
func FirstNaN[T constraints.Float](s []T) int {
	for i, v := range s {
		if v != v {
			return i
		}
	}
	return -1
}

// PutFloat32s writes src as IEEE-754 binary32; callers reject NaN first.
func PutFloat32s(dst []byte, src []float32) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// PutFloat64s writes src as IEEE-754 binary64; callers reject NaN first.
func PutFloat64s(dst []byte, src []float64) {
	for i, v := range src {
		binary.LittleEndian.PutUint64(dst[i*8:], math.Float64bits(v))
	}
}

func Float32s(src []byte) ([]float32, error) {
	out := make([]float32, len(src)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		if math.IsNaN(float64(out[i])) {
			return nil, fmt.Errorf("element %d is NaN", i)
		}
	}
	return out, nil
}

func Float64s(src []byte) ([]float64, error) {
	out := make([]float64, len(src)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(src[i*8:]))
		if math.IsNaN(out[i]) {
			return nil, fmt.Errorf("element %d is NaN", i)
		}
	}
	return out, nil
}

// UnsafeString aliases b as a string without copying.
func UnsafeString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
