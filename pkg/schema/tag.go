package schema

// Tag names the wire shape a Descriptor encodes.
type Tag string

const (
	U8         Tag = "u8"
	U16        Tag = "u16"
	U32        Tag = "u32"
	U64        Tag = "u64"
	U128       Tag = "u128"
	I8         Tag = "i8"
	I16        Tag = "i16"
	I32        Tag = "i32"
	I64        Tag = "i64"
	I128       Tag = "i128"
	F32        Tag = "f32"
	F64        Tag = "f64"
	Bool       Tag = "bool"
	String     Tag = "string"
	Unit       Tag = "unit"
	Struct     Tag = "struct"
	Vec        Tag = "vec"
	Set        Tag = "set"
	Map        Tag = "map"
	Option     Tag = "option"
	Array      Tag = "array"
	Enum       Tag = "enum"
	Tuple      Tag = "tuple"
	NativeEnum Tag = "nativeEnum"
)

// Builtin lists every tag with a handler in a fresh registry.
var Builtin = []Tag{
	U8, U16, U32, U64, U128, I8, I16, I32, I64, I128, F32, F64,
	Bool, String, Unit, Struct, Vec, Set, Map, Option, Array, Enum, Tuple, NativeEnum,
}

// FixedSize returns the wire width of fixed-width primitives, or -1.
func (t Tag) FixedSize() int {
	switch t {
	case U8, I8, Bool:
		return 1
	case U16, I16:
		return 2
	case U32, I32, F32:
		return 4
	case U64, I64, F64:
		return 8
	case U128, I128:
		return 16
	case Unit:
		return 0
	default:
		return -1
	}
}

// IsPacked reports whether vectors of t decode into packed numeric slices.
func (t Tag) IsPacked() bool {
	switch t {
	case U8, U16, U32, U64, I8, I16, I32, I64, F32, F64:
		return true
	default:
		return false
	}
}

// IsInteger reports whether t is one of the 8..128-bit integer tags.
func (t Tag) IsInteger() bool {
	switch t {
	case U8, U16, U32, U64, U128, I8, I16, I32, I64, I128:
		return true
	default:
		return false
	}
}
