// Package memory provides an in-memory implementation of the tenant guard
// store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lawclick/tenantguard/audit"
	"github.com/lawclick/tenantguard/operation"
	"github.com/lawclick/tenantguard/store"
	"github.com/lawclick/tenantguard/store/eval"
)

// Compile-time interface checks.
var (
	_ store.Store  = (*Store)(nil)
	_ audit.Store  = (*Store)(nil)
	_ eval.Backend = (*Store)(nil)
	_ eval.Backend = (*records)(nil)
)

// table holds one model's rows in insertion order.
type table struct {
	order []string
	rows  map[string]map[string]any
}

// Store is a thread-safe in-memory store for records and audit entries.
type Store struct {
	mu sync.RWMutex

	tables map[string]*table
	audit  map[string]*audit.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		tables: make(map[string]*table),
		audit:  make(map[string]*audit.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// Execute implements store.Executor. The whole call runs under the store
// lock, exclusively for actions that write, so a read-modify-write such as
// an increment never interleaves with another writer.
func (s *Store) Execute(ctx context.Context, op *operation.Operation) (any, error) {
	if op != nil && op.Action.Mutates() {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return eval.Run(ctx, (*records)(s), op)
}

// ──────────────────────────────────────────────────
// Record backend
// ──────────────────────────────────────────────────

// Load implements eval.Backend.
func (s *Store) Load(ctx context.Context, model, tenantID string) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (*records)(s).Load(ctx, model, tenantID)
}

// Insert implements eval.Backend.
func (s *Store) Insert(ctx context.Context, model string, rows []map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*records)(s).Insert(ctx, model, rows)
}

// Replace implements eval.Backend.
func (s *Store) Replace(ctx context.Context, model string, rows []map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*records)(s).Replace(ctx, model, rows)
}

// Remove implements eval.Backend.
func (s *Store) Remove(ctx context.Context, model string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*records)(s).Remove(ctx, model, ids)
}

// records is the store's record backend without locking. Callers hold mu.
type records Store

func (r *records) table(model string) *table {
	t, ok := r.tables[model]
	if !ok {
		t = &table{rows: make(map[string]map[string]any)}
		r.tables[model] = t
	}
	return t
}

func (r *records) Load(_ context.Context, model, tenantID string) ([]map[string]any, error) {
	t, ok := r.tables[model]
	if !ok {
		return nil, nil
	}
	out := make([]map[string]any, 0, len(t.order))
	for _, key := range t.order {
		row := t.rows[key]
		if tenantID != "" && eval.TenantOf(row) != tenantID {
			continue
		}
		out = append(out, eval.CopyRecord(row))
	}
	return out, nil
}

func (r *records) Insert(_ context.Context, model string, rows []map[string]any) error {
	t := r.table(model)
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		key := eval.RecordID(row)
		_, exists := t.rows[key]
		_, dup := seen[key]
		if exists || dup {
			return fmt.Errorf("%w: %s id=%s", store.ErrUniqueViolation, model, key)
		}
		seen[key] = struct{}{}
	}
	for _, row := range rows {
		key := eval.RecordID(row)
		t.rows[key] = eval.CopyRecord(row)
		t.order = append(t.order, key)
	}
	return nil
}

func (r *records) Replace(_ context.Context, model string, rows []map[string]any) error {
	t := r.table(model)
	for _, row := range rows {
		key := eval.RecordID(row)
		if _, ok := t.rows[key]; !ok {
			return fmt.Errorf("%w: %s id=%s", store.ErrRecordNotFound, model, key)
		}
	}
	for _, row := range rows {
		t.rows[eval.RecordID(row)] = eval.CopyRecord(row)
	}
	return nil
}

func (r *records) Remove(_ context.Context, model string, ids []string) error {
	t, ok := r.tables[model]
	if !ok {
		return nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, key := range ids {
		if _, ok := t.rows[key]; ok {
			delete(t.rows, key)
			drop[key] = struct{}{}
		}
	}
	kept := t.order[:0]
	for _, key := range t.order {
		if _, gone := drop[key]; !gone {
			kept = append(kept, key)
		}
	}
	t.order = kept
	return nil
}

// ──────────────────────────────────────────────────
// Audit Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(_ context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit[e.ID.String()] = copyEntry(e)
	return nil
}

func (s *Store) ListAuditEntries(_ context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := s.matchingEntries(filter)
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() > result[j].ID.String()
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return applyPagination(result, filter), nil
}

func (s *Store) CountAuditEntries(_ context.Context, filter *audit.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matchingEntries(filter))), nil
}

func (s *Store) PurgeAuditEntries(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for k, e := range s.audit {
		if e.CreatedAt.Before(before) {
			delete(s.audit, k)
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteAuditEntriesByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.audit {
		if e.TenantID == tenantID {
			delete(s.audit, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (s *Store) matchingEntries(filter *audit.QueryFilter) []*audit.Entry {
	result := make([]*audit.Entry, 0, len(s.audit))
	for _, e := range s.audit {
		if filter.Matches(e) {
			result = append(result, copyEntry(e))
		}
	}
	return result
}

func copyEntry(e *audit.Entry) *audit.Entry {
	c := *e
	return &c
}

func applyPagination(items []*audit.Entry, f *audit.QueryFilter) []*audit.Entry {
	if f == nil {
		return items
	}
	if f.Offset > 0 {
		if f.Offset >= len(items) {
			return nil
		}
		items = items[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(items) {
		items = items[:f.Limit]
	}
	return items
}
