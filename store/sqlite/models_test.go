package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/lawclick/tenantguard/store"
)

func TestRecordRoundTripNormalizesNumbers(t *testing.T) {
	row := map[string]any{
		"id":       "c1",
		"tenantId": "t1",
		"hours":    3,
		"rate":     1.5,
		"lines":    []any{map[string]any{"qty": 2}},
	}
	m, err := recordToModel("Case", row, 1, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if m.Key != "Case/c1" || m.TenantID != "t1" {
		t.Fatalf("unexpected columns %+v", m)
	}

	got, err := recordFromModel(m)
	if err != nil {
		t.Fatal(err)
	}
	if got["hours"] != int64(3) {
		t.Fatalf("expected int64 hours, got %T", got["hours"])
	}
	if got["rate"] != 1.5 {
		t.Fatalf("expected float rate, got %v", got["rate"])
	}
	lines := got["lines"].([]any)
	if lines[0].(map[string]any)["qty"] != int64(2) {
		t.Fatalf("nested numbers not normalized: %#v", lines)
	}
}

func TestRecordFromModelRejectsBadJSON(t *testing.T) {
	if _, err := recordFromModel(&recordModel{Model: "Case", Data: "{"}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewRecordModelsNumbersRows(t *testing.T) {
	var pos int64 = 10
	next := func() int64 { pos++; return pos }
	models, err := newRecordModels("Case", []map[string]any{
		{"id": "c1", "tenantId": "t1"},
		{"id": "c2", "tenantId": "t1"},
	}, next, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if len(models) != 2 || models[0].Position != 11 || models[1].Position != 12 {
		t.Fatalf("unexpected positions %+v", models)
	}
	if models[1].Key != "Case/c2" {
		t.Fatalf("unexpected key %q", models[1].Key)
	}
}

func TestNewRecordModelsRejectsRepeatedID(t *testing.T) {
	next := func() int64 { return 1 }
	_, err := newRecordModels("Case", []map[string]any{
		{"id": "c1", "tenantId": "t1"},
		{"id": "c1", "tenantId": "t1"},
	}, next, time.Now().UTC())
	if !errors.Is(err, store.ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
}

func TestCheckInserted(t *testing.T) {
	if err := checkInserted("Case", 3, 3); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := checkInserted("Case", 2, 3); !errors.Is(err, store.ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
}

func TestReplacementModelsKeepPositionAndCreation(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	existing := []recordModel{{Key: "Case/c1", Model: "Case", RecordID: "c1", Position: 42, CreatedAt: created}}

	models, err := replacementModels("Case", []map[string]any{
		{"id": "c1", "tenantId": "t1", "title": "new"},
	}, existing, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if models[0].Position != 42 || !models[0].CreatedAt.Equal(created) {
		t.Fatalf("expected position and creation to carry over, got %+v", models[0])
	}
	if models[0].UpdatedAt.Equal(created) {
		t.Fatal("expected a fresh update time")
	}
}

func TestReplacementModelsMissingRow(t *testing.T) {
	_, err := replacementModels("Case", []map[string]any{{"id": "gone"}}, nil, time.Now().UTC())
	if !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
