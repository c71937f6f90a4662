package mongo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/grove"

	"github.com/lawclick/tenantguard/audit"
	"github.com/lawclick/tenantguard/id"
	"github.com/lawclick/tenantguard/store"
	"github.com/lawclick/tenantguard/store/eval"
)

// ──────────────────────────────────────────────────
// Record model
// ──────────────────────────────────────────────────

type recordModel struct {
	grove.BaseModel `grove:"table:tenantguard_records"`
	Key             string         `grove:"id,pk"           bson:"_id"`
	Model           string         `grove:"model"           bson:"model"`
	RecordID        string         `grove:"record_id"       bson:"record_id"`
	TenantID        string         `grove:"tenant_id"       bson:"tenant_id"`
	Position        int64          `grove:"position"        bson:"position"`
	Data            map[string]any `grove:"data"            bson:"data"`
	CreatedAt       time.Time      `grove:"created_at"      bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at"      bson:"updated_at"`
}

func recordKey(model, recordID string) string {
	return model + "/" + recordID
}

func recordToModel(model string, row map[string]any, position int64, at time.Time) *recordModel {
	rid := eval.RecordID(row)
	return &recordModel{
		Key:       recordKey(model, rid),
		Model:     model,
		RecordID:  rid,
		TenantID:  eval.TenantOf(row),
		Position:  position,
		Data:      eval.CopyRecord(row),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func recordFromModel(m *recordModel) map[string]any {
	row, _ := fromBSON(m.Data).(map[string]any)
	if row == nil {
		row = map[string]any{}
	}
	return row
}

// fromBSON converts decoded BSON values into the plain maps, slices and
// int64/float64 numbers the evaluator works with.
func fromBSON(v any) any {
	switch x := v.(type) {
	case bson.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	case bson.M:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = fromBSON(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = fromBSON(val)
		}
		return out
	case bson.A:
		out := make([]any, len(x))
		for i := range x {
			out[i] = fromBSON(x[i])
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = fromBSON(x[i])
		}
		return out
	case int32:
		return int64(x)
	case int:
		return int64(x)
	case bson.DateTime:
		return x.Time().UTC()
	default:
		return v
	}
}

// newRecordModels encodes rows for insertion, numbering them with next, and
// returns their keys. An id repeated within rows is a unique violation.
func newRecordModels(model string, rows []map[string]any, next func() int64, at time.Time) ([]*recordModel, []string, error) {
	models := make([]*recordModel, len(rows))
	keys := make([]string, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		m := recordToModel(model, row, next(), at)
		if _, dup := seen[m.Key]; dup {
			return nil, nil, fmt.Errorf("%w: %s id=%s", store.ErrUniqueViolation, model, m.RecordID)
		}
		seen[m.Key] = struct{}{}
		models[i] = m
		keys[i] = m.Key
	}
	return models, keys, nil
}

// replacementModels encodes rows as replacements for existing, keeping each
// row's position and creation time.
func replacementModels(model string, rows []map[string]any, existing []recordModel, at time.Time) ([]*recordModel, error) {
	byKey := make(map[string]*recordModel, len(existing))
	for i := range existing {
		byKey[existing[i].Key] = &existing[i]
	}
	models := make([]*recordModel, 0, len(rows))
	for _, row := range rows {
		m := recordToModel(model, row, 0, at)
		prev, ok := byKey[m.Key]
		if !ok {
			return nil, fmt.Errorf("%w: %s id=%s", store.ErrRecordNotFound, model, m.RecordID)
		}
		m.Position = prev.Position
		m.CreatedAt = prev.CreatedAt
		models = append(models, m)
	}
	return models, nil
}

// ──────────────────────────────────────────────────
// Audit entry model
// ──────────────────────────────────────────────────

type auditModel struct {
	grove.BaseModel `grove:"table:tenantguard_audit"`
	ID              string    `grove:"id,pk"           bson:"_id"`
	TenantID        string    `grove:"tenant_id"       bson:"tenant_id"`
	Model           string    `grove:"model"           bson:"model"`
	Action          string    `grove:"action"          bson:"action"`
	Decision        string    `grove:"decision"        bson:"decision"`
	Reason          string    `grove:"reason"          bson:"reason"`
	EvalTimeNs      int64     `grove:"eval_time_ns"    bson:"eval_time_ns"`
	TraceID         string    `grove:"trace_id"        bson:"trace_id,omitempty"`
	SpanID          string    `grove:"span_id"         bson:"span_id,omitempty"`
	CreatedAt       time.Time `grove:"created_at"      bson:"created_at"`
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
