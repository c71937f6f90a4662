package sqlite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/lawclick/tenantguard/audit"
	"github.com/lawclick/tenantguard/id"
	"github.com/lawclick/tenantguard/store"
	"github.com/lawclick/tenantguard/store/eval"
)

// ──────────────────────────────────────────────────
// Record model
// ──────────────────────────────────────────────────

// recordModel stores one row of any guarded model. The row itself is kept
// as JSON text; id and tenantId are lifted into columns for lookups.
type recordModel struct {
	grove.BaseModel `grove:"table:tenantguard_records"`
	Key             string    `grove:"row_key,pk"`
	Model           string    `grove:"model,notnull"`
	RecordID        string    `grove:"record_id,notnull"`
	TenantID        string    `grove:"tenant_id,notnull"`
	Position        int64     `grove:"position,notnull"`
	Data            string    `grove:"data,notnull"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func recordKey(model, recordID string) string {
	return model + "/" + recordID
}

func recordToModel(model string, row map[string]any, position int64, now time.Time) (*recordModel, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("marshal %s record: %w", model, err)
	}
	rid := eval.RecordID(row)
	return &recordModel{
		Key:       recordKey(model, rid),
		Model:     model,
		RecordID:  rid,
		TenantID:  eval.TenantOf(row),
		Position:  position,
		Data:      string(data),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func recordFromModel(m *recordModel) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(m.Data)))
	dec.UseNumber()
	var row map[string]any
	if err := dec.Decode(&row); err != nil {
		return nil, fmt.Errorf("unmarshal %s record %s: %w", m.Model, m.RecordID, err)
	}
	if row == nil {
		row = map[string]any{}
	}
	eval.Normalize(row)
	return row, nil
}

// newRecordModels encodes rows for insertion, numbering them with next. An
// id repeated within rows is a unique violation.
func newRecordModels(model string, rows []map[string]any, next func() int64, now time.Time) ([]recordModel, error) {
	models := make([]recordModel, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		m, err := recordToModel(model, row, next(), now)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[m.Key]; dup {
			return nil, fmt.Errorf("%w: %s id=%s", store.ErrUniqueViolation, model, m.RecordID)
		}
		seen[m.Key] = struct{}{}
		models[i] = *m
	}
	return models, nil
}

// checkInserted reports a unique violation when ON CONFLICT DO NOTHING
// skipped rows whose key already existed.
func checkInserted(model string, inserted int64, want int) error {
	if inserted != int64(want) {
		return fmt.Errorf("%w: %s: %d of %d rows already exist", store.ErrUniqueViolation, model, int64(want)-inserted, want)
	}
	return nil
}

// replacementModels encodes rows as replacements for existing, keeping each
// row's position and creation time.
func replacementModels(model string, rows []map[string]any, existing []recordModel, now time.Time) ([]recordModel, error) {
	byKey := make(map[string]*recordModel, len(existing))
	for i := range existing {
		byKey[existing[i].Key] = &existing[i]
	}
	models := make([]recordModel, 0, len(rows))
	for _, row := range rows {
		m, err := recordToModel(model, row, 0, now)
		if err != nil {
			return nil, err
		}
		prev, ok := byKey[m.Key]
		if !ok {
			return nil, fmt.Errorf("%w: %s id=%s", store.ErrRecordNotFound, model, m.RecordID)
		}
		m.Position = prev.Position
		m.CreatedAt = prev.CreatedAt
		models = append(models, *m)
	}
	return models, nil
}

// ──────────────────────────────────────────────────
// Audit entry model
// ──────────────────────────────────────────────────

type auditModel struct {
	grove.BaseModel `grove:"table:tenantguard_audit"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	Model           string    `grove:"model,notnull"`
	Action          string    `grove:"action,notnull"`
	Decision        string    `grove:"decision,notnull"`
	Reason          string    `grove:"reason"`
	EvalTimeNs      int64     `grove:"eval_time_ns,notnull"`
	TraceID         string    `grove:"trace_id"`
	SpanID          string    `grove:"span_id"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func auditToModel(e *audit.Entry) *auditModel {
	return &auditModel{
		ID:         e.ID.String(),
		TenantID:   e.TenantID,
		Model:      e.Model,
		Action:     e.Action,
		Decision:   string(e.Decision),
		Reason:     e.Reason,
		EvalTimeNs: e.EvalTimeNs,
		TraceID:    e.TraceID,
		SpanID:     e.SpanID,
		CreatedAt:  e.CreatedAt,
	}
}

func auditFromModel(m *auditModel) *audit.Entry {
	eid, _ := id.ParseAuditEntryID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &audit.Entry{
		ID:         eid,
		TenantID:   m.TenantID,
		Model:      m.Model,
		Action:     m.Action,
		Decision:   audit.Decision(m.Decision),
		Reason:     m.Reason,
		EvalTimeNs: m.EvalTimeNs,
		TraceID:    m.TraceID,
		SpanID:     m.SpanID,
		CreatedAt:  m.CreatedAt,
	}
}
