package registry

import (
	"fmt"
	"slices"

	"github.com/rawbytedev/zorsh/pkg/schema"
)

// sortedOrder returns the indices of vals in ascending order under the
// schema comparison for d. Two values that compare equal would encode to
// the same bytes, so they are reported as duplicates.
func sortedOrder(r *Registry, d schema.Descriptor, vals []any) ([]int, error) {
	order := make([]int, len(vals))
	for i := range order {
		order[i] = i
	}
	if len(vals) < 2 {
		return order, nil
	}
	var cmpErr error
	slices.SortFunc(order, func(i, j int) int {
		c, err := r.Compare(d, vals[i], vals[j])
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		return c
	})
	if cmpErr != nil {
		return nil, cmpErr
	}
	for k := 1; k < len(order); k++ {
		c, err := r.Compare(d, vals[order[k-1]], vals[order[k]])
		if err != nil {
			return nil, err
		}
		if c == 0 {
			return nil, fmt.Errorf("duplicate %v: %w", vals[order[k]], ErrShape)
		}
	}
	return order, nil
}
