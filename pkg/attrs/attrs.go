// Package attrs defines the attribute set observed for a tracked entity during
// one poll, along with structural comparison helpers. Attribute values are JSON
// scalars: nil, bool, string, or any numeric type. Numeric values are compared
// by magnitude so that a record which has round-tripped through JSON (where all
// numbers decode as float64) still compares equal to the record it came from.
package attrs

import (
	"reflect"
	"strconv"
)

// Attributes is one entity's observed state at a single poll.
type Attributes map[string]any

// Clone returns a shallow copy of the attribute set.
// Values are JSON scalars, so a shallow copy is a full copy.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}

	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}

	return out
}

// Equal reports whether two attribute sets are structurally equal.
// Key sets must match exactly; values are compared with ValueEqual.
func (a Attributes) Equal(b Attributes) bool {
	if len(a) != len(b) {
		return false
	}

	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}

		if !ValueEqual(av, bv) {
			return false
		}
	}

	return true
}

// ValueEqual compares two attribute values. Numbers of different Go types are
// equal when their magnitudes are equal; everything else falls back to deep
// equality.
func ValueEqual(x, y any) bool {
	xf, xok := Number(x)
	yf, yok := Number(y)

	if xok && yok {
		return xf == yf
	}

	if xok != yok {
		return false
	}

	return reflect.DeepEqual(x, y)
}

// Float parses an attribute value as a float: numeric types directly,
// strings via strconv. Used for observation-timestamp fields, which some
// sources deliver as strings.
func Float(v any) (float64, bool) {
	if f, ok := Number(v); ok {
		return f, true
	}

	s, ok := v.(string)
	if !ok {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

// Number extracts a numeric attribute value as float64.
// Booleans and strings are not numbers.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
