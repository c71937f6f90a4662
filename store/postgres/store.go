// Package postgres provides a PostgreSQL implementation of the tenant guard
// composite store using grove ORM with Go-based migrations. Rows are kept as
// jsonb documents and evaluated by store/eval.
package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/lawclick/tenantguard/audit"
	"github.com/lawclick/tenantguard/operation"
	"github.com/lawclick/tenantguard/store"
	"github.com/lawclick/tenantguard/store/eval"
)

// Compile-time interface checks.
var (
	_ store.Store  = (*Store)(nil)
	_ eval.Backend = (*Store)(nil)
)

// Store is a PostgreSQL implementation of the composite tenant guard store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB

	// position orders rows by insertion across calls and restarts.
	position atomic.Int64

	// writeMu serializes writing actions from Load to the final write.
	writeMu sync.Mutex
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	s := &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
	s.position.Store(time.Now().UnixNano())
	return s
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("tenantguard/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("tenantguard/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Execute implements store.Executor. Writing actions run one at a time
// per store so read-modify-write updates are not lost.
func (s *Store) Execute(ctx context.Context, op *operation.Operation) (any, error) {
	if op != nil && op.Action.Mutates() {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
	}
	return eval.Run(ctx, s, op)
}

// ──────────────────────────────────────────────────
// Record backend
// ──────────────────────────────────────────────────

// Load implements eval.Backend.
func (s *Store) Load(ctx context.Context, model, tenantID string) ([]map[string]any, error) {
	var models []recordModel
	q := s.pgdb.NewSelect(&models).
		Where("model = ?", model).
		OrderExpr("position ASC, row_key ASC")
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tenantguard/postgres: load %s: %w", model, err)
	}
	rows := make([]map[string]any, len(models))
	for i := range models {
		row, err := recordFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("tenantguard/postgres: load %s: %w", model, err)
		}
		rows[i] = row
	}
	return rows, nil
}

// Insert implements eval.Backend.
func (s *Store) Insert(ctx context.Context, model string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	models, err := newRecordModels(model, rows, func() int64 { return s.position.Add(1) }, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("tenantguard/postgres: insert %s: %w", model, err)
	}

	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("tenantguard/postgres: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	res, err := tx.NewInsert(&models).
		OnConflict("(row_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenantguard/postgres: insert %s: %w", model, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("tenantguard/postgres: insert %s rows: %w", model, err)
	}
	if err := checkInserted(model, n, len(models)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tenantguard/postgres: commit tx: %w", err)
	}
	return nil
}

// Replace implements eval.Backend. Rows keep their insertion position.
func (s *Store) Replace(ctx context.Context, model string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	keys := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = recordKey(model, eval.RecordID(row))
	}
	var existing []recordModel
	if err := s.pgdb.NewSelect(&existing).Where("row_key IN (?)", keys).Scan(ctx); err != nil {
		return fmt.Errorf("tenantguard/postgres: replace %s: %w", model, err)
	}
	models, err := replacementModels(model, rows, existing, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("tenantguard/postgres: replace %s: %w", model, err)
	}

	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("tenantguard/postgres: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if _, err := tx.NewDelete((*recordModel)(nil)).Where("row_key IN (?)", keys).Exec(ctx); err != nil {
		return fmt.Errorf("tenantguard/postgres: replace %s: %w", model, err)
	}
	if _, err := tx.NewInsert(&models).Exec(ctx); err != nil {
		return fmt.Errorf("tenantguard/postgres: replace %s: %w", model, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tenantguard/postgres: commit tx: %w", err)
	}
	return nil
}

// Remove implements eval.Backend.
func (s *Store) Remove(ctx context.Context, model string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pgdb.NewDelete((*recordModel)(nil)).
		Where("model = ?", model).
		Where("record_id IN (?)", ids).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenantguard/postgres: remove %s: %w", model, err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Audit operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(ctx context.Context, e *audit.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.pgdb.NewInsert(auditToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("tenantguard/postgres: create audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	var models []auditModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.Model != "" {
			q = q.Where("model = ?", filter.Model)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", string(filter.Decision))
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tenantguard/postgres: list audit entries: %w", err)
	}
	result := make([]*audit.Entry, len(models))
	for i := range models {
		result[i] = auditFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAuditEntries(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	q := s.pgdb.NewSelect((*auditModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.Model != "" {
			q = q.Where("model = ?", filter.Model)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", string(filter.Decision))
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tenantguard/postgres: count audit entries: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeAuditEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*auditModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("tenantguard/postgres: purge audit entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("tenantguard/postgres: purge audit entries rows: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteAuditEntriesByTenant(ctx context.Context, tenantID string) error {
	_, err := s.pgdb.NewDelete((*auditModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenantguard/postgres: delete audit entries by tenant: %w", err)
	}
	return nil
}
