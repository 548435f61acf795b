package registry

import (
	"math"

	"github.com/rawbytedev/zorsh/pkg/schema"
)

const maxWidth = math.MaxInt32

// minWidth is the fewest bytes a value of d can take on the wire,
// saturating at maxWidth. Tags with no built-in layout count as one byte.
func minWidth(d schema.Descriptor) int {
	if n := d.Type.FixedSize(); n >= 0 {
		return n
	}
	switch o := d.Options.(type) {
	case *schema.StructOptions:
		n := 0
		for _, f := range o.Fields {
			n = addWidth(n, minWidth(f.Type))
		}
		return n
	case *schema.TupleOptions:
		n := 0
		for _, e := range o.Elems {
			n = addWidth(n, minWidth(e))
		}
		return n
	case *schema.ArrayOptions:
		w := minWidth(o.Elem)
		if w == 0 || o.Len == 0 {
			return 0
		}
		if o.Len > maxWidth/w {
			return maxWidth
		}
		return w * o.Len
	}
	switch d.Type {
	case schema.String, schema.Vec, schema.Set, schema.Map:
		return 4
	}
	return 1
}

func addWidth(a, b int) int {
	return int(min(int64(a)+int64(b), maxWidth))
}
