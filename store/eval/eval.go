// Package eval executes guarded operations over a minimal record backend.
//
// Every store shares this engine: a backend only loads, inserts, replaces
// and removes whole rows of one model, and eval implements filtering,
// write operators, projection, ordering, pagination and aggregation on top.
package eval

import (
	"context"
	"fmt"

	"github.com/lawclick/tenantguard/id"
	"github.com/lawclick/tenantguard/operation"
	"github.com/lawclick/tenantguard/store"
)

// Backend is the row-level persistence a store provides.
type Backend interface {
	// Load returns copies of the model's rows in insertion order. A
	// non-empty tenantID restricts the result to rows carrying it.
	Load(ctx context.Context, model, tenantID string) ([]map[string]any, error)

	// Insert adds new rows. A row whose id already exists for the model
	// fails the whole call with store.ErrUniqueViolation.
	Insert(ctx context.Context, model string, rows []map[string]any) error

	// Replace overwrites existing rows, matched by id.
	Replace(ctx context.Context, model string, rows []map[string]any) error

	// Remove deletes rows by id.
	Remove(ctx context.Context, model string, ids []string) error
}

// RecordID returns the id attribute of rec as a string.
func RecordID(rec map[string]any) string {
	switch v := rec[operation.KeyID].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// TenantOf returns the tenantId attribute of rec, or "".
func TenantOf(rec map[string]any) string {
	s, _ := rec[operation.KeyTenantID].(string)
	return s
}

// Run executes op against b. See store.Executor for result shapes.
func Run(ctx context.Context, b Backend, op *operation.Operation) (any, error) {
	if op == nil || op.Model == "" {
		return nil, fmt.Errorf("%w: operation requires a model", store.ErrInvalidArgs)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := &runner{b: b, model: op.Model, action: op.Action, args: op.Args}
	if r.args == nil {
		r.args = operation.Args{}
	}

	switch op.Action {
	case operation.Create:
		return r.create(ctx)
	case operation.CreateMany:
		return r.createMany(ctx)
	case operation.FindUnique, operation.FindFirst:
		return r.findFirst(ctx, false)
	case operation.FindUniqueOrThrow, operation.FindFirstOrThrow:
		return r.findFirst(ctx, true)
	case operation.FindMany:
		return r.findMany(ctx)
	case operation.Update:
		return r.update(ctx)
	case operation.UpdateMany:
		return r.updateMany(ctx)
	case operation.Upsert:
		return r.upsert(ctx)
	case operation.Delete:
		return r.delete(ctx)
	case operation.DeleteMany:
		return r.deleteMany(ctx)
	case operation.Count:
		return r.count(ctx)
	case operation.Aggregate:
		return r.aggregate(ctx)
	case operation.GroupBy:
		return r.groupBy(ctx)
	}
	return nil, fmt.Errorf("%w: unsupported action %q", store.ErrInvalidArgs, op.Action)
}

type runner struct {
	b      Backend
	model  string
	action operation.Action
	args   operation.Args
}

func (r *runner) where() (map[string]any, error) {
	v, ok := r.args[operation.KeyWhere]
	if !ok || v == nil {
		return nil, nil
	}
	m := operation.AsMap(v)
	if m == nil {
		return nil, fmt.Errorf("%w: %s.%s: where must be an object", store.ErrInvalidArgs, r.model, r.action)
	}
	return m, nil
}

func (r *runner) selection() map[string]any {
	return operation.AsMap(r.args[operation.KeySelect])
}

func (r *runner) notFound() error {
	return fmt.Errorf("%w: %s.%s", store.ErrRecordNotFound, r.model, r.action)
}

// matching loads every row satisfying the where clause, in insertion order.
func (r *runner) matching(ctx context.Context) ([]map[string]any, error) {
	where, err := r.where()
	if err != nil {
		return nil, err
	}
	rows, err := r.b.Load(ctx, r.model, TenantHint(where))
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, row := range rows {
		ok, err := Match(row, where)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// query is matching plus orderBy, skip and take.
func (r *runner) query(ctx context.Context) ([]map[string]any, error) {
	rows, err := r.matching(ctx)
	if err != nil {
		return nil, err
	}
	if err := Order(rows, r.args[operation.KeyOrderBy]); err != nil {
		return nil, err
	}
	return Page(rows, r.args)
}

func (r *runner) build(data any) (map[string]any, error) {
	m := operation.AsMap(data)
	if m == nil {
		return nil, fmt.Errorf("%w: %s.%s: data must be an object", store.ErrInvalidArgs, r.model, r.action)
	}
	rec, err := NewRecord(m)
	if err != nil {
		return nil, err
	}
	if RecordID(rec) == "" {
		rec[operation.KeyID] = id.ForModel(r.model).String()
	}
	return rec, nil
}

func (r *runner) create(ctx context.Context) (any, error) {
	rec, err := r.build(r.args[operation.KeyData])
	if err != nil {
		return nil, err
	}
	if err := r.b.Insert(ctx, r.model, []map[string]any{rec}); err != nil {
		return nil, err
	}
	return Select(rec, r.selection()), nil
}

func (r *runner) createMany(ctx context.Context) (any, error) {
	raw := r.args[operation.KeyData]
	items := operation.AsList(raw)
	if items == nil {
		if m := operation.AsMap(raw); m != nil {
			items = []any{m}
		}
	}
	skipDuplicates, _ := r.args["skipDuplicates"].(bool)

	var existing map[string]struct{}
	if skipDuplicates {
		rows, err := r.b.Load(ctx, r.model, "")
		if err != nil {
			return nil, err
		}
		existing = make(map[string]struct{}, len(rows))
		for _, row := range rows {
			existing[RecordID(row)] = struct{}{}
		}
	}

	recs := make([]map[string]any, 0, len(items))
	for _, item := range items {
		rec, err := r.build(item)
		if err != nil {
			return nil, err
		}
		if skipDuplicates {
			rid := RecordID(rec)
			if _, dup := existing[rid]; dup {
				continue
			}
			existing[rid] = struct{}{}
		}
		recs = append(recs, rec)
	}
	if len(recs) > 0 {
		if err := r.b.Insert(ctx, r.model, recs); err != nil {
			return nil, err
		}
	}
	return operation.BatchResult{Count: int64(len(recs))}, nil
}

func (r *runner) findFirst(ctx context.Context, orThrow bool) (any, error) {
	rows, err := r.query(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		if orThrow {
			return nil, r.notFound()
		}
		return nil, nil
	}
	return Select(rows[0], r.selection()), nil
}

func (r *runner) findMany(ctx context.Context) (any, error) {
	rows, err := r.query(ctx)
	if err != nil {
		return nil, err
	}
	sel := r.selection()
	out := make([]operation.Record, len(rows))
	for i := range rows {
		out[i] = Select(rows[i], sel)
	}
	return out, nil
}

func (r *runner) apply(rec map[string]any, data any) error {
	m := operation.AsMap(data)
	if m == nil {
		return fmt.Errorf("%w: %s.%s: data must be an object", store.ErrInvalidArgs, r.model, r.action)
	}
	before := RecordID(rec)
	if err := Apply(rec, m); err != nil {
		return err
	}
	if RecordID(rec) != before {
		return fmt.Errorf("%w: %s.%s: id cannot be changed", store.ErrInvalidArgs, r.model, r.action)
	}
	return nil
}

func (r *runner) update(ctx context.Context) (any, error) {
	rows, err := r.matching(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, r.notFound()
	}
	rec := rows[0]
	if err := r.apply(rec, r.args[operation.KeyData]); err != nil {
		return nil, err
	}
	if err := r.b.Replace(ctx, r.model, []map[string]any{rec}); err != nil {
		return nil, err
	}
	return Select(rec, r.selection()), nil
}

func (r *runner) updateMany(ctx context.Context) (any, error) {
	rows, err := r.matching(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range rows {
		if err := r.apply(rec, r.args[operation.KeyData]); err != nil {
			return nil, err
		}
	}
	if len(rows) > 0 {
		if err := r.b.Replace(ctx, r.model, rows); err != nil {
			return nil, err
		}
	}
	return operation.BatchResult{Count: int64(len(rows))}, nil
}

func (r *runner) upsert(ctx context.Context) (any, error) {
	rows, err := r.matching(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		rec := rows[0]
		if err := r.apply(rec, r.args[operation.KeyUpdate]); err != nil {
			return nil, err
		}
		if err := r.b.Replace(ctx, r.model, []map[string]any{rec}); err != nil {
			return nil, err
		}
		return Select(rec, r.selection()), nil
	}

	rec, err := r.build(r.args[operation.KeyCreate])
	if err != nil {
		return nil, err
	}
	if err := r.b.Insert(ctx, r.model, []map[string]any{rec}); err != nil {
		return nil, err
	}
	return Select(rec, r.selection()), nil
}

func (r *runner) delete(ctx context.Context) (any, error) {
	rows, err := r.matching(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, r.notFound()
	}
	rec := rows[0]
	if err := r.b.Remove(ctx, r.model, []string{RecordID(rec)}); err != nil {
		return nil, err
	}
	return Select(rec, r.selection()), nil
}

func (r *runner) deleteMany(ctx context.Context) (any, error) {
	rows, err := r.matching(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = RecordID(rows[i])
	}
	if len(ids) > 0 {
		if err := r.b.Remove(ctx, r.model, ids); err != nil {
			return nil, err
		}
	}
	return operation.BatchResult{Count: int64(len(ids))}, nil
}

func (r *runner) count(ctx context.Context) (any, error) {
	rows, err := r.query(ctx)
	if err != nil {
		return nil, err
	}
	sel := r.selection()
	if len(sel) == 0 {
		return int64(len(rows)), nil
	}
	out := operation.Record{}
	for field, on := range sel {
		if b, ok := on.(bool); ok && b {
			out[field] = countField(rows, field)
		}
	}
	return out, nil
}

func (r *runner) aggregate(ctx context.Context) (any, error) {
	rows, err := r.query(ctx)
	if err != nil {
		return nil, err
	}
	return Aggregate(rows, r.args)
}

func (r *runner) groupBy(ctx context.Context) (any, error) {
	rows, err := r.matching(ctx)
	if err != nil {
		return nil, err
	}
	return GroupBy(rows, r.args)
}
