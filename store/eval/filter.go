package eval

import (
	"fmt"
	"strings"

	"github.com/lawclick/tenantguard/operation"
	"github.com/lawclick/tenantguard/store"
)

// Filter operators accepted inside a field condition.
const (
	OpEquals     = "equals"
	OpNot        = "not"
	OpIn         = "in"
	OpNotIn      = "notIn"
	OpLT         = "lt"
	OpLTE        = "lte"
	OpGT         = "gt"
	OpGTE        = "gte"
	OpContains   = "contains"
	OpStartsWith = "startsWith"
	OpEndsWith   = "endsWith"
	OpMode       = "mode"
)

// Logical combinators accepted at any where level.
const (
	KeyAND = "AND"
	KeyOR  = "OR"
	KeyNOT = "NOT"
)

var filterOps = map[string]struct{}{
	OpEquals: {}, OpNot: {}, OpIn: {}, OpNotIn: {},
	OpLT: {}, OpLTE: {}, OpGT: {}, OpGTE: {},
	OpContains: {}, OpStartsWith: {}, OpEndsWith: {}, OpMode: {},
}

// Match reports whether rec satisfies where. A nil where matches every row.
//
// A field whose condition is a map of non-operator keys is read as a nested
// where over the same row; this is how composite unique selectors such as
// {tenantId_id: {tenantId: "t", id: "x"}} are evaluated.
func Match(rec map[string]any, where map[string]any) (bool, error) {
	for key, cond := range where {
		ok, err := matchKey(rec, key, cond)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchKey(rec map[string]any, key string, cond any) (bool, error) {
	switch key {
	case KeyAND:
		for _, sub := range whereList(cond) {
			ok, err := Match(rec, sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case KeyOR:
		for _, sub := range whereList(cond) {
			ok, err := Match(rec, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case KeyNOT:
		for _, sub := range whereList(cond) {
			ok, err := Match(rec, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return false, nil
			}
		}
		return true, nil
	}

	actual := rec[key]
	m := operation.AsMap(cond)
	if m == nil {
		if cond == nil {
			return actual == nil, nil
		}
		return valuesEqual(actual, cond), nil
	}
	if !isOperatorMap(m) {
		return Match(rec, m)
	}
	return matchOps(key, actual, m)
}

func whereList(v any) []map[string]any {
	if m := operation.AsMap(v); m != nil {
		return []map[string]any{m}
	}
	var out []map[string]any
	for _, item := range operation.AsList(v) {
		if m := operation.AsMap(item); m != nil {
			out = append(out, m)
		}
	}
	return out
}

func isOperatorMap(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if _, ok := filterOps[k]; !ok {
			return false
		}
	}
	return true
}

func matchOps(field string, actual any, ops map[string]any) (bool, error) {
	insensitive := false
	if mode, ok := ops[OpMode]; ok {
		insensitive = fmt.Sprint(mode) == "insensitive"
	}
	fold := func(s string) string {
		if insensitive {
			return strings.ToLower(s)
		}
		return s
	}

	for op, expected := range ops {
		var ok bool
		switch op {
		case OpMode:
			continue
		case OpEquals:
			if s, isStr := actual.(string); isStr && insensitive {
				ok = fold(s) == fold(fmt.Sprint(expected))
			} else {
				ok = valuesEqual(actual, expected)
			}
		case OpNot:
			if sub := operation.AsMap(expected); sub != nil {
				inner, err := matchOps(field, actual, sub)
				if err != nil {
					return false, err
				}
				ok = !inner
			} else {
				ok = !valuesEqual(actual, expected)
			}
		case OpIn, OpNotIn:
			found, err := inList(actual, expected)
			if err != nil {
				return false, fmt.Errorf("%w: %s.%s: %w", store.ErrInvalidArgs, field, op, err)
			}
			ok = found == (op == OpIn)
		case OpLT, OpLTE, OpGT, OpGTE:
			c, comparable := compareValues(actual, expected)
			if !comparable {
				return false, nil
			}
			switch op {
			case OpLT:
				ok = c < 0
			case OpLTE:
				ok = c <= 0
			case OpGT:
				ok = c > 0
			default:
				ok = c >= 0
			}
		case OpContains, OpStartsWith, OpEndsWith:
			s, isStr := actual.(string)
			if !isStr {
				return false, nil
			}
			s, needle := fold(s), fold(fmt.Sprint(expected))
			switch op {
			case OpContains:
				ok = strings.Contains(s, needle)
			case OpStartsWith:
				ok = strings.HasPrefix(s, needle)
			default:
				ok = strings.HasSuffix(s, needle)
			}
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// TenantHint returns the top-level string tenantId of where, or "". Backends
// use it to narrow the rows they load; the full where is still evaluated.
func TenantHint(where map[string]any) string {
	s, _ := where[operation.KeyTenantID].(string)
	return s
}
