package eval

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/lawclick/tenantguard/store"
)

func TestMatchOperators(t *testing.T) {
	rec := map[string]any{
		"id":       "c1",
		"tenantId": "t-1",
		"title":    "Smith v. Jones",
		"amount":   int64(250),
		"closedAt": nil,
	}

	tests := []struct {
		name  string
		where map[string]any
		want  bool
	}{
		{"empty", nil, true},
		{"scalar equality", map[string]any{"tenantId": "t-1"}, true},
		{"scalar mismatch", map[string]any{"tenantId": "t-2"}, false},
		{"null", map[string]any{"closedAt": nil}, true},
		{"missing field is null", map[string]any{"archivedAt": nil}, true},
		{"json number", map[string]any{"amount": json.Number("250")}, true},
		{"gte", map[string]any{"amount": map[string]any{"gte": 250}}, true},
		{"lt", map[string]any{"amount": map[string]any{"lt": 100.5}}, false},
		{"in", map[string]any{"id": map[string]any{"in": []any{"c0", "c1"}}}, true},
		{"notIn", map[string]any{"id": map[string]any{"notIn": []string{"c1"}}}, false},
		{"contains insensitive", map[string]any{"title": map[string]any{"contains": "smith", "mode": "insensitive"}}, true},
		{"contains sensitive", map[string]any{"title": map[string]any{"contains": "smith"}}, false},
		{"startsWith", map[string]any{"title": map[string]any{"startsWith": "Smith"}}, true},
		{"not nested", map[string]any{"title": map[string]any{"not": map[string]any{"endsWith": "Jones"}}}, false},
		{"OR", map[string]any{"OR": []any{map[string]any{"id": "zz"}, map[string]any{"id": "c1"}}}, true},
		{"empty OR", map[string]any{"OR": []any{}}, false},
		{"AND object", map[string]any{"AND": map[string]any{"tenantId": "t-1"}}, true},
		{"NOT list", map[string]any{"NOT": []any{map[string]any{"id": "c1"}}}, false},
		{"composite unique", map[string]any{"tenantId_id": map[string]any{"tenantId": "t-1", "id": "c1"}}, true},
		{"composite unique mismatch", map[string]any{"tenantId_id": map[string]any{"tenantId": "t-2", "id": "c1"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(rec, tt.where)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMatchInRequiresList(t *testing.T) {
	_, err := Match(map[string]any{"id": "x"}, map[string]any{"id": map[string]any{"in": "x"}})
	if !errors.Is(err, store.ErrInvalidArgs) {
		t.Fatalf("expected ErrInvalidArgs, got %v", err)
	}
}

func TestTenantHint(t *testing.T) {
	if TenantHint(map[string]any{"tenantId": "t-1"}) != "t-1" {
		t.Fatal("expected hint from string tenantId")
	}
	if TenantHint(map[string]any{"tenantId": map[string]any{"in": []any{"a"}}}) != "" {
		t.Fatal("operator conditions give no hint")
	}
}
