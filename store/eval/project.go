package eval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lawclick/tenantguard/operation"
	"github.com/lawclick/tenantguard/store"
)

// Select projects rec onto the fields set to true in sel. A nil sel keeps
// every field. The result is always a fresh copy.
func Select(rec, sel map[string]any) operation.Record {
	if len(sel) == 0 {
		return operation.Record(CopyRecord(rec))
	}
	out := make(operation.Record, len(sel))
	for field, on := range sel {
		if b, ok := on.(bool); ok && b {
			if v, present := rec[field]; present {
				out[field] = Copy(v)
			} else {
				out[field] = nil
			}
		}
	}
	return out
}

type sortKey struct {
	path []string
	desc bool
}

// parseOrderBy accepts {field: "asc"}, {field: {sort: "desc"}},
// {_sum: {field: "asc"}} or a list of those.
func parseOrderBy(v any) ([]sortKey, error) {
	if v == nil {
		return nil, nil
	}
	var clauses []map[string]any
	if m := operation.AsMap(v); m != nil {
		clauses = []map[string]any{m}
	} else if l := operation.AsList(v); l != nil {
		for _, item := range l {
			m := operation.AsMap(item)
			if m == nil {
				return nil, fmt.Errorf("%w: orderBy entries must be objects", store.ErrInvalidArgs)
			}
			clauses = append(clauses, m)
		}
	} else {
		return nil, fmt.Errorf("%w: orderBy must be an object or a list", store.ErrInvalidArgs)
	}

	var keys []sortKey
	for _, clause := range clauses {
		// Within one object, key order is not preserved; sort field names
		// so the result is deterministic.
		fields := make([]string, 0, len(clause))
		for f := range clause {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			more, err := sortKeys([]string{f}, clause[f])
			if err != nil {
				return nil, err
			}
			keys = append(keys, more...)
		}
	}
	return keys, nil
}

func sortKeys(path []string, v any) ([]sortKey, error) {
	if s, ok := v.(string); ok {
		return direction(path, s)
	}
	m := operation.AsMap(v)
	if m == nil {
		return nil, fmt.Errorf("%w: orderBy %s: unexpected %T", store.ErrInvalidArgs, strings.Join(path, "."), v)
	}
	if s, ok := m["sort"].(string); ok {
		return direction(path, s)
	}
	fields := make([]string, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var keys []sortKey
	for _, f := range fields {
		sub := append(append([]string(nil), path...), f)
		more, err := sortKeys(sub, m[f])
		if err != nil {
			return nil, err
		}
		keys = append(keys, more...)
	}
	return keys, nil
}

func direction(path []string, s string) ([]sortKey, error) {
	switch strings.ToLower(s) {
	case "asc":
		return []sortKey{{path: path}}, nil
	case "desc":
		return []sortKey{{path: path, desc: true}}, nil
	}
	return nil, fmt.Errorf("%w: orderBy %s: direction %q", store.ErrInvalidArgs, strings.Join(path, "."), s)
}

func lookup(rec map[string]any, path []string) any {
	var cur any = rec
	for _, p := range path {
		m := operation.AsMap(cur)
		if m == nil {
			return nil
		}
		cur = m[p]
	}
	return cur
}

// Order sorts rows in place. Nulls sort last ascending and first descending.
func Order(rows []map[string]any, orderBy any) error {
	keys, err := parseOrderBy(orderBy)
	if err != nil || len(keys) == 0 {
		return err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			a, b := lookup(rows[i], k.path), lookup(rows[j], k.path)
			var c int
			switch {
			case a == nil && b == nil:
				continue
			case a == nil:
				c = 1
			case b == nil:
				c = -1
			default:
				var ok bool
				if c, ok = compareValues(a, b); !ok {
					c = strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
				}
			}
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return nil
}

// Page applies skip and take. A negative take keeps the last |take| rows.
func Page(rows []map[string]any, args operation.Args) ([]map[string]any, error) {
	skip, err := intArg(args, operation.KeySkip)
	if err != nil {
		return nil, err
	}
	take, err := intArg(args, operation.KeyTake)
	if err != nil {
		return nil, err
	}
	if skip < 0 {
		return nil, fmt.Errorf("%w: skip must not be negative", store.ErrInvalidArgs)
	}
	if _, hasTake := args[operation.KeyTake]; hasTake && take < 0 {
		n := int(-take)
		end := len(rows) - int(skip)
		if end < 0 {
			end = 0
		}
		start := end - n
		if start < 0 {
			start = 0
		}
		return rows[start:end], nil
	}
	if int(skip) >= len(rows) {
		return rows[:0], nil
	}
	rows = rows[skip:]
	if _, hasTake := args[operation.KeyTake]; hasTake && int(take) < len(rows) {
		rows = rows[:take]
	}
	return rows, nil
}

func intArg(args operation.Args, key string) (int64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, nil
	}
	_, i, isInt, ok := toNumber(v)
	if !ok || !isInt {
		return 0, fmt.Errorf("%w: %s must be an integer", store.ErrInvalidArgs, key)
	}
	return i, nil
}
