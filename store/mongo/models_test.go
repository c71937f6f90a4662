package mongo

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/lawclick/tenantguard/store"
)

func TestFromBSONFlattensDocuments(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := &recordModel{Data: map[string]any{
		"id":       "c1",
		"tenantId": "t1",
		"hours":    int32(3),
		"meta":     bson.D{{Key: "tags", Value: bson.A{"a", int32(2)}}},
		"due":      bson.NewDateTimeFromTime(at),
	}}

	row := recordFromModel(m)
	if row["hours"] != int64(3) {
		t.Fatalf("expected int64 hours, got %T", row["hours"])
	}
	meta, ok := row["meta"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested map, got %T", row["meta"])
	}
	tags, ok := meta["tags"].([]any)
	if !ok || len(tags) != 2 || tags[1] != int64(2) {
		t.Fatalf("unexpected tags %#v", meta["tags"])
	}
	if due, ok := row["due"].(time.Time); !ok || !due.Equal(at) {
		t.Fatalf("unexpected due %#v", row["due"])
	}
}

func TestRecordToModelLiftsColumns(t *testing.T) {
	row := map[string]any{"id": "c1", "tenantId": "t1", "title": "x"}
	m := recordToModel("Case", row, 7, now())
	if m.Key != "Case/c1" || m.RecordID != "c1" || m.TenantID != "t1" || m.Position != 7 {
		t.Fatalf("unexpected model %+v", m)
	}
	row["title"] = "changed"
	if m.Data["title"] != "x" {
		t.Fatal("model must not alias the caller's row")
	}
}

func TestAuditFilter(t *testing.T) {
	if len(auditFilter(nil)) != 0 {
		t.Fatal("nil filter selects everything")
	}
}

func TestNewRecordModels(t *testing.T) {
	var pos int64
	next := func() int64 { pos++; return pos }
	models, keys, err := newRecordModels("Case", []map[string]any{
		{"id": "c1", "tenantId": "t1"},
		{"id": "c2", "tenantId": "t2"},
	}, next, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "Case/c1" || keys[1] != "Case/c2" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if models[1].Position != 2 || models[1].TenantID != "t2" {
		t.Fatalf("unexpected model %+v", models[1])
	}

	_, _, err = newRecordModels("Case", []map[string]any{{"id": "c1"}, {"id": "c1"}}, next, time.Now().UTC())
	if !errors.Is(err, store.ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
}

func TestReplacementModels(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	existing := []recordModel{{Key: "Case/c1", Position: 7, CreatedAt: created}}

	models, err := replacementModels("Case", []map[string]any{{"id": "c1", "title": "x"}}, existing, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if models[0].Position != 7 || !models[0].CreatedAt.Equal(created) {
		t.Fatalf("expected position and creation to carry over, got %+v", models[0])
	}

	_, err = replacementModels("Case", []map[string]any{{"id": "c2"}}, existing, time.Now().UTC())
	if !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
