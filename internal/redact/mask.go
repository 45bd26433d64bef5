package redact

import (
	"errors"
	"fmt"
	"reflect"
)

// DefaultMaxDepth bounds the masking walk on nested structures.
const DefaultMaxDepth = 64

var (
	ErrTooDeep = errors.New("value nesting exceeds maximum depth")
	ErrCyclic  = errors.New("value contains a cyclic reference")
)

// Masker walks arbitrarily shaped, dynamically typed values (the JSON variant
// model: nil, bool, float64, string, []any, map[string]any) and redacts every
// string leaf. It holds no mutable state; independent Mask calls may run fully
// in parallel.
type Masker struct {
	maxDepth int
}

func NewMasker(maxDepth int) *Masker {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Masker{maxDepth: maxDepth}
}

// Mask returns a masked copy of v. Shape is preserved exactly: sequences keep
// their length and order, mappings keep their keys (keys are never redacted),
// and non-text scalars pass through unchanged. The input is never mutated.
//
// Values nested deeper than the configured bound yield ErrTooDeep; aliased
// containers that would make the walk revisit themselves yield ErrCyclic.
func (m *Masker) Mask(v any) (out any, changed bool, err error) {
	return m.mask(v, 0, map[uintptr]struct{}{})
}

func (m *Masker) mask(v any, depth int, visited map[uintptr]struct{}) (any, bool, error) {
	if depth > m.maxDepth {
		return nil, false, fmt.Errorf("%w (%d)", ErrTooDeep, m.maxDepth)
	}

	switch t := v.(type) {
	case nil:
		return nil, false, nil
	case bool, float64, int, int64:
		return t, false, nil
	case string:
		red, changed := Redact(t)
		return red, changed, nil
	case []any:
		ptr := reflect.ValueOf(t).Pointer()
		if _, seen := visited[ptr]; seen {
			return nil, false, ErrCyclic
		}
		visited[ptr] = struct{}{}
		defer delete(visited, ptr)

		out := make([]any, len(t))
		var changed bool
		for i, elem := range t {
			masked, c, err := m.mask(elem, depth+1, visited)
			if err != nil {
				return nil, false, err
			}
			out[i] = masked
			changed = changed || c
		}
		return out, changed, nil
	case map[string]any:
		ptr := reflect.ValueOf(t).Pointer()
		if _, seen := visited[ptr]; seen {
			return nil, false, ErrCyclic
		}
		visited[ptr] = struct{}{}
		defer delete(visited, ptr)

		out := make(map[string]any, len(t))
		var changed bool
		for k, val := range t {
			masked, c, err := m.mask(val, depth+1, visited)
			if err != nil {
				return nil, false, err
			}
			out[k] = masked
			changed = changed || c
		}
		return out, changed, nil
	default:
		return nil, false, fmt.Errorf("unsupported value type %T", v)
	}
}
