package eval

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lawclick/tenantguard/operation"
)

// toNumber reports v as a number. isInt is true when v is an integer kind
// (or a json.Number without a fraction).
func toNumber(v any) (f float64, i int64, isInt, ok bool) {
	switch n := v.(type) {
	case int:
		return float64(n), int64(n), true, true
	case int8:
		return float64(n), int64(n), true, true
	case int16:
		return float64(n), int64(n), true, true
	case int32:
		return float64(n), int64(n), true, true
	case int64:
		return float64(n), n, true, true
	case uint:
		return float64(n), int64(n), true, true
	case uint8:
		return float64(n), int64(n), true, true
	case uint16:
		return float64(n), int64(n), true, true
	case uint32:
		return float64(n), int64(n), true, true
	case uint64:
		return float64(n), int64(n), true, true
	case float32:
		return float64(n), int64(n), false, true
	case float64:
		return n, int64(n), false, true
	case json.Number:
		if iv, err := n.Int64(); err == nil {
			return float64(iv), iv, true, true
		}
		if fv, err := n.Float64(); err == nil {
			return fv, int64(fv), false, true
		}
	}
	return 0, 0, false, false
}

// NormalizeNumber converts decoded numbers to int64 or float64 so that
// values read back from a backend compare like the values written.
func NormalizeNumber(v any) any {
	if _, ok := v.(json.Number); !ok {
		return v
	}
	f, i, isInt, _ := toNumber(v)
	if isInt {
		return i
	}
	return f
}

// compareValues orders a and b. ok is false when they are not comparable.
func compareValues(a, b any) (int, bool) {
	if fa, _, _, aok := toNumber(a); aok {
		if fb, _, _, bok := toNumber(b); bok {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), true
		}
		if bt, ok := b.(time.Time); ok {
			if at, err := time.Parse(time.RFC3339Nano, av); err == nil {
				return at.Compare(bt), true
			}
		}
	case time.Time:
		switch bv := b.(type) {
		case time.Time:
			return av.Compare(bv), true
		case string:
			if bt, err := time.Parse(time.RFC3339Nano, bv); err == nil {
				return av.Compare(bt), true
			}
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, true
			case !av:
				return -1, true
			}
			return 1, true
		}
	}
	return 0, false
}

// valuesEqual compares numbers numerically and everything else by its
// printed form. nil only equals nil.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func inList(actual, list any) (bool, error) {
	items, ok := asValues(list)
	if !ok {
		return false, fmt.Errorf("expected a list, got %T", list)
	}
	for _, item := range items {
		if valuesEqual(actual, item) {
			return true, nil
		}
	}
	return false, nil
}

func asValues(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	case []int:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	case []int64:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	case []float64:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	}
	return nil, false
}

// Copy returns a deep copy of a generic value tree. Maps and lists of
// any flavour come back as map[string]any and []any.
func Copy(v any) any {
	if m := operation.AsMap(v); m != nil {
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = Copy(val)
		}
		return out
	}
	if l := operation.AsList(v); l != nil {
		out := make([]any, len(l))
		for i := range l {
			out[i] = Copy(l[i])
		}
		return out
	}
	return v
}

// CopyRecord returns a deep copy of rec.
func CopyRecord(rec map[string]any) map[string]any {
	if rec == nil {
		return nil
	}
	return Copy(rec).(map[string]any)
}

// Normalize rewrites every json.Number inside a decoded JSON tree into an
// int64 or float64, in place, and returns v.
func Normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = Normalize(val)
		}
		return x
	case []any:
		for i := range x {
			x[i] = Normalize(x[i])
		}
		return x
	default:
		return NormalizeNumber(v)
	}
}
