// Package zorsh encodes and decodes values in the Borsh binary format,
// driven by schemas built from the constructors in this package.
package zorsh

import (
	"fmt"

	"github.com/rawbytedev/zorsh/pkg/registry"
	"github.com/rawbytedev/zorsh/pkg/schema"
	"github.com/rawbytedev/zorsh/pkg/wire"
)

var (
	ErrRange         = wire.ErrRange
	ErrTruncated     = wire.ErrTruncated
	ErrInvalidUTF8   = wire.ErrInvalidUTF8
	ErrInvalidBool   = wire.ErrInvalidBool
	ErrShape         = registry.ErrShape
	ErrUnknownType   = registry.ErrUnknownType
	ErrTrailingBytes = registry.ErrTrailingBytes
	ErrSchemaConfig  = schema.ErrSchemaConfig
)

type (
	Record  = schema.Record
	Unit    = schema.UnitValue
	Variant = schema.Variant
	Entry   = schema.Entry
)

type Options struct {
	UnsafeStrings bool // zero-copy strings; caller must keep the input alive
}

// Describer is implemented by every Schema; composite constructors take it
// so children of different value types can be mixed.
type Describer interface {
	Descriptor() schema.Descriptor
}

// Schema pairs a descriptor with the Go type its values decode into.
// The zero registry means registry.Default.
type Schema[T any] struct {
	desc schema.Descriptor
	reg  *registry.Registry
	opts Options
}

// Of wraps a descriptor whose decoded values have type T, typically one
// using a tag registered by the caller.
func Of[T any](d schema.Descriptor) Schema[T] {
	return Schema[T]{desc: d}
}

// Dynamic wraps a descriptor built at run time, for example from a schema
// description.
func Dynamic(d schema.Descriptor) Schema[any] {
	return Schema[any]{desc: d}
}

func (s Schema[T]) Descriptor() schema.Descriptor { return s.desc }

func (s Schema[T]) String() string { return s.desc.String() }

func (s Schema[T]) Registry() *registry.Registry {
	if s.reg == nil {
		return registry.Default
	}
	return s.reg
}

// WithRegistry returns a copy of s that dispatches through r.
func (s Schema[T]) WithRegistry(r *registry.Registry) Schema[T] {
	s.reg = r
	return s
}

func (s Schema[T]) WithOptions(opts Options) Schema[T] {
	s.opts = opts
	return s
}

// Serialize returns the Borsh encoding of v. No partial output is
// returned on error.
func (s Schema[T]) Serialize(v T) ([]byte, error) {
	return s.Registry().Encode(s.desc, v)
}

// Deserialize decodes exactly one value from b; leftover input is an error.
func (s Schema[T]) Deserialize(b []byte) (T, error) {
	var zero T
	v, err := s.Registry().Decode(s.desc, b, wire.Options{UnsafeStrings: s.opts.UnsafeStrings})
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s decoded to %T, want %T: %w", s.desc, v, zero, ErrShape)
	}
	return out, nil
}

// Validate reports whether every tag in s is registered and its decoded
// Go type can be built.
func (s Schema[T]) Validate() error {
	return s.Registry().Validate(s.desc)
}
