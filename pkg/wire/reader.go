package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/rawbytedev/zorsh/internal/common"
)

type Options struct {
	UnsafeStrings bool // zero-copy strings; caller must keep the input alive
}

// Reader decodes Borsh primitives from an immutable byte slice.
type Reader struct {
	buf  []byte
	off  int
	opts Options
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func NewReaderWithOptions(b []byte, opts Options) *Reader {
	return &Reader{buf: b, opts: opts}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// Next returns the next n bytes without copying and advances past them.
func (r *Reader) Next(n int) ([]byte, error) {
	if n < 0 || n > len(r.buf)-r.off {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w", n, r.off, len(r.buf)-r.off, ErrTruncated)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.Next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.Next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadU128() (*big.Int, error) {
	b, err := r.Next(16)
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetUint64(binary.LittleEndian.Uint64(b[8:]))
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(binary.LittleEndian.Uint64(b))), nil
}

// ReadI128 sign-extends from the high limb.
func (r *Reader) ReadI128() (*big.Int, error) {
	b, err := r.Next(16)
	if err != nil {
		return nil, err
	}
	v := big.NewInt(int64(binary.LittleEndian.Uint64(b[8:])))
	v.Lsh(v, 64)
	return v.Add(v, new(big.Int).SetUint64(binary.LittleEndian.Uint64(b))), nil
}

func (r *Reader) ReadF32() (float32, error) {
	bits, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	v := math.Float32frombits(bits)
	if math.IsNaN(float64(v)) {
		return 0, fmt.Errorf("f32 NaN at offset %d: %w", r.off-4, ErrRange)
	}
	return v, nil
}

func (r *Reader) ReadF64() (float64, error) {
	bits, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	v := math.Float64frombits(bits)
	if math.IsNaN(v) {
		return 0, fmt.Errorf("f64 NaN at offset %d: %w", r.off-8, ErrRange)
	}
	return v, nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%#x at offset %d: %w", b, r.off-1, ErrInvalidBool)
	}
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(r.Remaining()) {
		return "", fmt.Errorf("string of %d bytes at offset %d, have %d: %w", n, r.off, r.Remaining(), ErrTruncated)
	}
	b, err := r.Next(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("string at offset %d: %w", r.off-len(b), ErrInvalidUTF8)
	}
	if r.opts.UnsafeStrings {
		return common.UnsafeString(b), nil
	}
	return string(b), nil
}
