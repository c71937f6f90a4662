package eval

import (
	"fmt"
	"sort"

	"github.com/lawclick/tenantguard/operation"
	"github.com/lawclick/tenantguard/store"
)

var aggregateKeys = []string{
	operation.KeyCount, operation.KeySum, operation.KeyAvg, operation.KeyMin, operation.KeyMax,
}

// Aggregate computes the requested _count, _sum, _avg, _min and _max over rows.
func Aggregate(rows []map[string]any, args operation.Args) (operation.Record, error) {
	out := operation.Record{}
	for _, key := range aggregateKeys {
		spec, ok := args[key]
		if !ok {
			continue
		}
		v, err := aggregateOne(key, rows, spec)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func aggregateOne(key string, rows []map[string]any, spec any) (any, error) {
	if b, ok := spec.(bool); ok {
		if key != operation.KeyCount {
			return nil, fmt.Errorf("%w: %s takes an object of fields", store.ErrInvalidArgs, key)
		}
		if !b {
			return nil, nil
		}
		return int64(len(rows)), nil
	}
	fields := operation.AsMap(spec)
	if fields == nil {
		return nil, fmt.Errorf("%w: %s: unexpected %T", store.ErrInvalidArgs, key, spec)
	}
	res := make(map[string]any, len(fields))
	for field, on := range fields {
		if b, ok := on.(bool); !ok || !b {
			continue
		}
		switch key {
		case operation.KeyCount:
			res[field] = countField(rows, field)
		case operation.KeySum:
			res[field] = sumField(rows, field)
		case operation.KeyAvg:
			res[field] = avgField(rows, field)
		case operation.KeyMin:
			res[field] = extremeField(rows, field, -1)
		case operation.KeyMax:
			res[field] = extremeField(rows, field, 1)
		}
	}
	return res, nil
}

func countField(rows []map[string]any, field string) int64 {
	if field == "_all" {
		return int64(len(rows))
	}
	var n int64
	for _, r := range rows {
		if r[field] != nil {
			n++
		}
	}
	return n
}

func sumField(rows []map[string]any, field string) any {
	var fsum float64
	var isum int64
	allInt, seen := true, false
	for _, r := range rows {
		f, i, isInt, ok := toNumber(r[field])
		if !ok {
			continue
		}
		seen = true
		fsum += f
		isum += i
		allInt = allInt && isInt
	}
	switch {
	case !seen:
		return nil
	case allInt:
		return isum
	}
	return fsum
}

func avgField(rows []map[string]any, field string) any {
	var (
		sum float64
		n   int
	)
	for _, r := range rows {
		if f, _, _, ok := toNumber(r[field]); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return sum / float64(n)
}

func extremeField(rows []map[string]any, field string, want int) any {
	var best any
	for _, r := range rows {
		v := r[field]
		if v == nil {
			continue
		}
		if best == nil {
			best = v
			continue
		}
		if c, ok := compareValues(v, best); ok && c == want {
			best = v
		}
	}
	return Copy(best)
}

// GroupBy partitions rows by the fields named in "by", in order of first
// appearance, and computes the requested aggregates per group. orderBy,
// skip and take then apply to the group rows.
func GroupBy(rows []map[string]any, args operation.Args) ([]operation.Record, error) {
	by, err := byFields(args[operation.KeyBy])
	if err != nil {
		return nil, err
	}

	type group struct {
		key  map[string]any
		rows []map[string]any
	}
	var (
		order  []string
		groups = map[string]*group{}
	)
	for _, r := range rows {
		key := make(map[string]any, len(by))
		for _, f := range by {
			key[f] = r[f]
		}
		sig := groupSignature(by, key)
		g, ok := groups[sig]
		if !ok {
			g = &group{key: key}
			groups[sig] = g
			order = append(order, sig)
		}
		g.rows = append(g.rows, r)
	}

	out := make([]map[string]any, 0, len(order))
	for _, sig := range order {
		g := groups[sig]
		agg, err := Aggregate(g.rows, args)
		if err != nil {
			return nil, err
		}
		row := CopyRecord(g.key)
		for k, v := range agg {
			row[k] = v
		}
		out = append(out, row)
	}

	if err := Order(out, args[operation.KeyOrderBy]); err != nil {
		return nil, err
	}
	if out, err = Page(out, args); err != nil {
		return nil, err
	}
	return toRecords(out), nil
}

func byFields(v any) ([]string, error) {
	if s, ok := v.(string); ok && s != "" {
		return []string{s}, nil
	}
	var fields []string
	for _, item := range operation.AsList(v) {
		s, ok := item.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("%w: by must list field names", store.ErrInvalidArgs)
		}
		fields = append(fields, s)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: groupBy requires by", store.ErrInvalidArgs)
	}
	sort.Strings(fields)
	return fields, nil
}

func groupSignature(by []string, key map[string]any) string {
	sig := ""
	for _, f := range by {
		v := key[f]
		if f, i, isInt, ok := toNumber(v); ok {
			if isInt {
				v = i
			} else {
				v = f
			}
		}
		sig += fmt.Sprintf("%s=%T:%v;", f, v, v)
	}
	return sig
}

func toRecords(rows []map[string]any) []operation.Record {
	out := make([]operation.Record, len(rows))
	for i := range rows {
		out[i] = operation.Record(rows[i])
	}
	return out
}
