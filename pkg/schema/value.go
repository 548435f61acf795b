package schema

// Record is the decoded form of a struct: field name to field value.
type Record = map[string]any

// UnitValue is the decoded form of the unit type.
type UnitValue = struct{}

// Variant is the decoded form of a tagged union: the active variant and its
// payload. Unit payloads decode as UnitValue{}.
type Variant struct {
	Name  string
	Value any
}

// Entry is one key/value pair of a map decoded in ordered form, used when
// the key type cannot index a Go map.
type Entry struct {
	Key   any
	Value any
}
