package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"unicode/utf8"
)

const defaultCapacity = 64

var (
	two128  = new(big.Int).Lsh(big.NewInt(1), 128)
	maxU128 = new(big.Int).Sub(two128, big.NewInt(1))
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	mask64  = new(big.Int).SetUint64(math.MaxUint64)
)

// Writer appends little-endian Borsh primitives to a growable buffer.
// The zero value is ready to use.
type Writer struct {
	buf []byte
	n   int
}

func NewWriter(capacity int) *Writer {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Writer{buf: make([]byte, capacity)}
}

// Reserve returns the next n bytes of the buffer and advances past them.
// Capacity doubles until the request fits.
func (w *Writer) Reserve(n int) []byte {
	need := w.n + n
	if need > len(w.buf) {
		size := len(w.buf)
		if size == 0 {
			size = defaultCapacity
		}
		for size < need {
			size *= 2
		}
		grown := make([]byte, size)
		copy(grown, w.buf[:w.n])
		w.buf = grown
	}
	b := w.buf[w.n:need]
	w.n = need
	return b
}

// Bytes returns exactly the bytes written so far. The slice aliases the
// writer's buffer until the next Reset.
func (w *Writer) Bytes() []byte {
	return w.buf[:w.n:w.n]
}

func (w *Writer) Len() int { return w.n }

func (w *Writer) Reset() { w.n = 0 }

func (w *Writer) WriteU8(v uint8) {
	w.Reserve(1)[0] = v
}

func (w *Writer) WriteU16(v uint16) {
	binary.LittleEndian.PutUint16(w.Reserve(2), v)
}

func (w *Writer) WriteU32(v uint32) {
	binary.LittleEndian.PutUint32(w.Reserve(4), v)
}

func (w *Writer) WriteU64(v uint64) {
	binary.LittleEndian.PutUint64(w.Reserve(8), v)
}

func (w *Writer) WriteI8(v int8)   { w.WriteU8(uint8(v)) }
func (w *Writer) WriteI16(v int16) { w.WriteU16(uint16(v)) }
func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }
func (w *Writer) WriteI64(v int64) { w.WriteU64(uint64(v)) }

// WriteU128 writes v as two 64-bit limbs, low limb first.
func (w *Writer) WriteU128(v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(maxU128) > 0 {
		return fmt.Errorf("u128 %v: %w", v, ErrRange)
	}
	w.writeLimbs(v)
	return nil
}

// WriteI128 writes the two's complement of v as two 64-bit limbs; the high
// limb carries the sign.
func (w *Writer) WriteI128(v *big.Int) error {
	if v == nil || v.Cmp(minI128) < 0 || v.Cmp(maxI128) > 0 {
		return fmt.Errorf("i128 %v: %w", v, ErrRange)
	}
	if v.Sign() < 0 {
		v = new(big.Int).Add(v, two128)
	}
	w.writeLimbs(v)
	return nil
}

func (w *Writer) writeLimbs(v *big.Int) {
	lo := new(big.Int).And(v, mask64).Uint64()
	hi := new(big.Int).Rsh(v, 64).Uint64()
	b := w.Reserve(16)
	binary.LittleEndian.PutUint64(b, lo)
	binary.LittleEndian.PutUint64(b[8:], hi)
}

func (w *Writer) WriteF32(v float32) error {
	if math.IsNaN(float64(v)) {
		return fmt.Errorf("f32 NaN: %w", ErrRange)
	}
	w.WriteU32(math.Float32bits(v))
	return nil
}

func (w *Writer) WriteF64(v float64) error {
	if math.IsNaN(v) {
		return fmt.Errorf("f64 NaN: %w", ErrRange)
	}
	w.WriteU64(math.Float64bits(v))
	return nil
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
}

// WriteString writes a u32 byte length followed by the UTF-8 bytes of s.
func (w *Writer) WriteString(s string) error {
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	if uint64(len(s)) > math.MaxUint32 {
		return fmt.Errorf("string length %d: %w", len(s), ErrRange)
	}
	b := w.Reserve(4 + len(s))
	binary.LittleEndian.PutUint32(b, uint32(len(s)))
	copy(b[4:], s)
	return nil
}

// WriteRaw appends b verbatim, without a length prefix.
func (w *Writer) WriteRaw(b []byte) {
	copy(w.Reserve(len(b)), b)
}

// Truncate discards everything written after the first n bytes.
func (w *Writer) Truncate(n int) {
	if n < 0 || n > w.n {
		panic("wire: truncate out of range")
	}
	w.n = n
}
