// Package mongo provides a MongoDB implementation of the tenant guard store
// backed by grove's mongo driver. Every guarded model shares one collection;
// rows are embedded documents evaluated by store/eval.
package mongo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/lawclick/tenantguard/audit"
	"github.com/lawclick/tenantguard/operation"
	"github.com/lawclick/tenantguard/store"
	"github.com/lawclick/tenantguard/store/eval"
)

// Collection name constants.
const (
	colRecords = "tenantguard_records"
	colAudit   = "tenantguard_audit"
)

// Compile-time interface checks.
var (
	_ store.Store  = (*Store)(nil)
	_ eval.Backend = (*Store)(nil)
)

// Store is a MongoDB implementation of the composite tenant guard store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB

	position atomic.Int64

	// writeMu serializes writing actions from Load to the final write.
	writeMu sync.Mutex
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	s := &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
	s.position.Store(time.Now().UnixNano())
	return s
}

// Migrate creates indexes for all tenant guard collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("tenantguard/mongo: migrate %s indexes: %w", col, err)
		}
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// migrationIndexes returns the index definitions for all tenant guard collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colRecords: {
			{
				Keys:    bson.D{{Key: "model", Value: 1}, {Key: "record_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "model", Value: 1}, {Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "model", Value: 1}, {Key: "position", Value: 1}}},
		},
		colAudit: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "decision", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Record backend
// ──────────────────────────────────────────────────

// Load implements eval.Backend.
func (s *Store) Load(ctx context.Context, model, tenantID string) ([]map[string]any, error) {
	var models []recordModel
	f := bson.M{"model": model}
	if tenantID != "" {
		f["tenant_id"] = tenantID
	}
	err := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tenantguard/mongo: load %s: %w", model, err)
	}
	rows := make([]map[string]any, len(models))
	for i := range models {
		rows[i] = recordFromModel(&models[i])
	}
	return rows, nil
}

// Insert implements eval.Backend. Existing ids are checked up front so a
// duplicate fails the call before any row is written.
func (s *Store) Insert(ctx context.Context, model string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	models, keys, err := newRecordModels(model, rows, func() int64 { return s.position.Add(1) }, now())
	if err != nil {
		return err
	}

	n, err := s.mdb.NewFind((*recordModel)(nil)).
		Filter(bson.M{"_id": bson.M{"$in": keys}}).
		Count(ctx)
	if err != nil {
		return fmt.Errorf("tenantguard/mongo: insert %s: %w", model, err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", store.ErrUniqueViolation, model)
	}

	for _, m := range models {
		if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
			if mongod.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: %s id=%s", store.ErrUniqueViolation, model, m.RecordID)
			}
			return fmt.Errorf("tenantguard/mongo: insert %s: %w", model, err)
		}
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
	err := s.mdb.NewFind(&existing).
		Filter(bson.M{"_id": bson.M{"$in": keys}}).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("tenantguard/mongo: replace %s: %w", model, err)
	}
	models, err := replacementModels(model, rows, existing, now())
	if err != nil {
		return err
	}
	for _, m := range models {
		res, err := s.mdb.NewUpdate(m).
			Filter(bson.M{"_id": m.Key}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("tenantguard/mongo: replace %s: %w", model, err)
		}
		if res.MatchedCount() == 0 {
			return fmt.Errorf("%w: %s id=%s", store.ErrRecordNotFound, model, m.RecordID)
		}
	}
	return nil
}

// Remove implements eval.Backend.
func (s *Store) Remove(ctx context.Context, model string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, rid := range ids {
		keys[i] = recordKey(model, rid)
	}
	_, err := s.mdb.NewDelete((*recordModel)(nil)).
		Many().
		Filter(bson.M{"_id": bson.M{"$in": keys}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenantguard/mongo: remove %s: %w", model, err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Audit operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(ctx context.Context, e *audit.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	if _, err := s.mdb.NewInsert(auditToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("tenantguard/mongo: create audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	var models []auditModel
	q := s.mdb.NewFind(&models).
		Filter(auditFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tenantguard/mongo: list audit entries: %w", err)
	}
	result := make([]*audit.Entry, len(models))
	for i := range models {
		result[i] = auditFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAuditEntries(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	count, err := s.mdb.NewFind((*auditModel)(nil)).
		Filter(auditFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("tenantguard/mongo: count audit entries: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeAuditEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*auditModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("tenantguard/mongo: purge audit entries: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteAuditEntriesByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*auditModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tenantguard/mongo: delete audit entries by tenant: %w", err)
	}
	return nil
}

// auditFilter builds the selection document for filter, ignoring pagination.
func auditFilter(filter *audit.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.Model != "" {
		f["model"] = filter.Model
	}
	if filter.Action != "" {
		f["action"] = filter.Action
	}
	if filter.Decision != "" {
		f["decision"] = string(filter.Decision)
	}
	if filter.After != nil || filter.Before != nil {
		dateFilter := bson.M{}
		if filter.After != nil {
			dateFilter["$gte"] = *filter.After
		}
		if filter.Before != nil {
			dateFilter["$lte"] = *filter.Before
		}
		f["created_at"] = dateFilter
	}
	return f
}
