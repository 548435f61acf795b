package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/rawbytedev/zorsh/pkg/schema"
	"github.com/rawbytedev/zorsh/pkg/wire"
)

var (
	ErrUnknownType   = errors.New("unknown type")
	ErrShape         = errors.New("value does not match schema")
	ErrTrailingBytes = errors.New("trailing bytes after value")
)

type (
	WriteFunc   func(r *Registry, w *wire.Writer, v any, opts schema.Options) error
	ReadFunc    func(r *Registry, rd *wire.Reader, opts schema.Options) (any, error)
	TypeFunc    func(r *Registry, opts schema.Options) (reflect.Type, error)
	CompareFunc func(r *Registry, a, b any, opts schema.Options) (int, error)
)

// Handler implements the wire behaviour of one tag. Write and Read are
// required. Type reports the Go type Read produces (interface{} when nil).
// Compare orders values for set elements and map keys; tags without it
// cannot be used there.
type Handler struct {
	Write   WriteFunc
	Read    ReadFunc
	Type    TypeFunc
	Compare CompareFunc
}

// Registry maps tags to handlers. Container handlers recurse through the
// registry for their children, so a tag registered here composes with every
// builtin container.
type Registry struct {
	mu       sync.RWMutex
	handlers map[schema.Tag]Handler
	packed   map[schema.Tag]bool
	logger   *slog.Logger

	planMu sync.RWMutex
	plans  map[planKey][]int
}

// Default is the registry used by schemas that were not given one.
var Default = New()

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// New returns a registry holding the builtin handlers.
func New() *Registry {
	r := NewEmpty()
	registerBuiltins(r)
	return r
}

func NewEmpty() *Registry {
	return &Registry{
		handlers: make(map[schema.Tag]Handler),
		packed:   make(map[schema.Tag]bool),
		logger:   slog.New(slog.DiscardHandler),
		plans:    make(map[planKey][]int),
	}
}

func (r *Registry) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	r.mu.Lock()
	r.logger = l
	r.mu.Unlock()
}

// Register installs h for tag, replacing any previous handler.
func (r *Registry) Register(tag schema.Tag, h Handler) {
	if h.Write == nil || h.Read == nil {
		panic(fmt.Errorf("handler for %q needs both Write and Read", tag))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.handlers[tag]; found {
		r.logger.Debug("replacing handler", "tag", string(tag))
	}
	r.handlers[tag] = h
	delete(r.packed, tag)
}

// isPacked reports whether tag still has its builtin fixed-width numeric
// handler, so sequences of it may use the packed slice path.
func (r *Registry) isPacked(tag schema.Tag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.packed[tag]
}

// Lookup returns the handler for tag or an error wrapping ErrUnknownType.
func (r *Registry) Lookup(tag schema.Tag) (Handler, error) {
	r.mu.RLock()
	h, ok := r.handlers[tag]
	r.mu.RUnlock()
	if !ok {
		return Handler{}, fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}
	return h, nil
}

// Tags lists the registered tags in no particular order.
func (r *Registry) Tags() []schema.Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]schema.Tag, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	return out
}

// Write appends the encoding of v. On failure the writer is rolled back to
// its length before the call.
func (r *Registry) Write(w *wire.Writer, d schema.Descriptor, v any) error {
	h, err := r.Lookup(d.Type)
	if err != nil {
		return err
	}
	mark := w.Len()
	if err := h.Write(r, w, v, d.Options); err != nil {
		w.Truncate(mark)
		return err
	}
	return nil
}

func (r *Registry) Read(rd *wire.Reader, d schema.Descriptor) (any, error) {
	h, err := r.Lookup(d.Type)
	if err != nil {
		return nil, err
	}
	return h.Read(r, rd, d.Options)
}

// TypeOf returns the Go type values of d decode into.
func (r *Registry) TypeOf(d schema.Descriptor) (reflect.Type, error) {
	h, err := r.Lookup(d.Type)
	if err != nil {
		return nil, err
	}
	if h.Type == nil {
		return anyType, nil
	}
	return h.Type(r, d.Options)
}

// Compare orders two values of d: negative when a sorts first, zero when
// they encode identically.
func (r *Registry) Compare(d schema.Descriptor, a, b any) (int, error) {
	h, err := r.Lookup(d.Type)
	if err != nil {
		return 0, err
	}
	if h.Compare == nil {
		return 0, fmt.Errorf("%s values are not orderable: %w", d.Type, ErrShape)
	}
	return h.Compare(r, a, b, d.Options)
}

// Validate checks that every tag in d is registered and that its Go
// representation can be built.
func (r *Registry) Validate(d schema.Descriptor) error {
	err := schema.Walk(d, func(n schema.Descriptor) error {
		_, err := r.Lookup(n.Type)
		return err
	})
	if err != nil {
		return err
	}
	_, err = r.TypeOf(d)
	return err
}

// Encode serializes v into a fresh buffer.
func (r *Registry) Encode(d schema.Descriptor, v any) ([]byte, error) {
	w := wire.NewWriter(0)
	if err := r.Write(w, d, v); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Decode deserializes exactly one value of d from b.
func (r *Registry) Decode(d schema.Descriptor, b []byte, opts wire.Options) (any, error) {
	rd := wire.NewReaderWithOptions(b, opts)
	v, err := r.Read(rd, d)
	if err != nil {
		return nil, err
	}
	if rd.Remaining() != 0 {
		return nil, fmt.Errorf("%d bytes after offset %d: %w", rd.Remaining(), rd.Offset(), ErrTrailingBytes)
	}
	return v, nil
}

func registerBuiltins(r *Registry) {
	r.Register(schema.U8, unsigned((*wire.Reader).ReadU8, (*wire.Writer).WriteU8))
	r.Register(schema.U16, unsigned((*wire.Reader).ReadU16, (*wire.Writer).WriteU16))
	r.Register(schema.U32, unsigned((*wire.Reader).ReadU32, (*wire.Writer).WriteU32))
	r.Register(schema.U64, unsigned((*wire.Reader).ReadU64, (*wire.Writer).WriteU64))
	r.Register(schema.I8, signed((*wire.Reader).ReadI8, (*wire.Writer).WriteI8))
	r.Register(schema.I16, signed((*wire.Reader).ReadI16, (*wire.Writer).WriteI16))
	r.Register(schema.I32, signed((*wire.Reader).ReadI32, (*wire.Writer).WriteI32))
	r.Register(schema.I64, signed((*wire.Reader).ReadI64, (*wire.Writer).WriteI64))
	r.Register(schema.U128, wide((*wire.Reader).ReadU128, (*wire.Writer).WriteU128))
	r.Register(schema.I128, wide((*wire.Reader).ReadI128, (*wire.Writer).WriteI128))
	r.Register(schema.F32, Handler{Write: writeF32, Read: readWith((*wire.Reader).ReadF32), Type: typeOf[float32](), Compare: compareFloat})
	r.Register(schema.F64, Handler{Write: writeF64, Read: readWith((*wire.Reader).ReadF64), Type: typeOf[float64](), Compare: compareFloat})
	r.Register(schema.Bool, Handler{Write: writeBool, Read: readWith((*wire.Reader).ReadBool), Type: typeOf[bool](), Compare: compareBool})
	r.Register(schema.String, Handler{Write: writeString, Read: readWith((*wire.Reader).ReadString), Type: typeOf[string](), Compare: compareString})
	r.Register(schema.Unit, Handler{Write: writeUnit, Read: readUnit, Type: typeOf[schema.UnitValue](), Compare: compareUnit})
	r.Register(schema.Struct, Handler{Write: writeStruct, Read: readStruct, Type: typeStruct, Compare: compareStruct})
	r.Register(schema.Vec, Handler{Write: writeVec, Read: readVec, Type: typeVec, Compare: compareSeq})
	r.Register(schema.Array, Handler{Write: writeArray, Read: readArray, Type: typeArray, Compare: compareSeq})
	r.Register(schema.Set, Handler{Write: writeSet, Read: readSet, Type: typeSet})
	r.Register(schema.Map, Handler{Write: writeMap, Read: readMap, Type: typeMap})
	r.Register(schema.Option, Handler{Write: writeOption, Read: readOption, Type: typeOption, Compare: compareOption})
	r.Register(schema.Tuple, Handler{Write: writeTuple, Read: readTuple, Type: typeOf[[]any](), Compare: compareTuple})
	r.Register(schema.Enum, Handler{Write: writeEnum, Read: readEnum, Type: typeOf[schema.Variant](), Compare: compareEnum})
	r.Register(schema.NativeEnum, Handler{Write: writeNativeEnum, Read: readNativeEnum, Type: typeNativeEnum, Compare: compareNativeEnum})

	r.mu.Lock()
	for _, t := range schema.Builtin {
		if t.IsPacked() {
			r.packed[t] = true
		}
	}
	r.mu.Unlock()
}

func readWith[T any](read func(*wire.Reader) (T, error)) ReadFunc {
	return func(_ *Registry, rd *wire.Reader, _ schema.Options) (any, error) {
		v, err := read(rd)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func typeOf[T any]() TypeFunc {
	t := reflect.TypeFor[T]()
	return func(*Registry, schema.Options) (reflect.Type, error) {
		return t, nil
	}
}

func optionsOf[T schema.Options](opts schema.Options) (T, error) {
	o, ok := opts.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("options %T, want %T: %w", opts, zero, ErrShape)
	}
	return o, nil
}
