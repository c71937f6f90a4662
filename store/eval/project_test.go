package eval

import (
	"errors"
	"testing"

	"github.com/lawclick/tenantguard/operation"
	"github.com/lawclick/tenantguard/store"
)

func rowsFixture() []map[string]any {
	return []map[string]any{
		{"id": "a", "status": "open", "amount": int64(30)},
		{"id": "b", "status": "closed", "amount": int64(10)},
		{"id": "c", "status": "open", "amount": nil},
		{"id": "d", "status": "open", "amount": int64(20)},
	}
}

func ids(rows []map[string]any) string {
	s := ""
	for _, r := range rows {
		s += RecordID(r)
	}
	return s
}

func TestOrderNullsLast(t *testing.T) {
	rows := rowsFixture()
	if err := Order(rows, map[string]any{"amount": "asc"}); err != nil {
		t.Fatal(err)
	}
	if got := ids(rows); got != "bdac" {
		t.Fatalf("expected bdac, got %s", got)
	}
	if err := Order(rows, []any{map[string]any{"status": "desc"}, map[string]any{"amount": map[string]any{"sort": "desc"}}}); err != nil {
		t.Fatal(err)
	}
	if got := ids(rows); got != "cadb" {
		t.Fatalf("expected cadb, got %s", got)
	}
}

func TestOrderRejectsBadDirection(t *testing.T) {
	err := Order(rowsFixture(), map[string]any{"amount": "up"})
	if !errors.Is(err, store.ErrInvalidArgs) {
		t.Fatalf("expected ErrInvalidArgs, got %v", err)
	}
}

func TestPage(t *testing.T) {
	rows, err := Page(rowsFixture(), operation.Args{"skip": 1, "take": 2})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(rows); got != "bc" {
		t.Fatalf("expected bc, got %s", got)
	}

	rows, err = Page(rowsFixture(), operation.Args{"take": -2})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(rows); got != "cd" {
		t.Fatalf("expected cd, got %s", got)
	}

	rows, err = Page(rowsFixture(), operation.Args{"skip": 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}

	if _, err := Page(rowsFixture(), operation.Args{"take": "two"}); !errors.Is(err, store.ErrInvalidArgs) {
		t.Fatalf("expected ErrInvalidArgs, got %v", err)
	}
}

func TestSelect(t *testing.T) {
	rec := map[string]any{"id": "a", "title": "x", "tenantId": "t"}
	got := Select(rec, map[string]any{"id": true, "title": false})
	if len(got) != 1 || got["id"] != "a" {
		t.Fatalf("unexpected projection %v", got)
	}
	all := Select(rec, nil)
	all["title"] = "changed"
	if rec["title"] != "x" {
		t.Fatal("projection shares the row")
	}
}

func TestAggregate(t *testing.T) {
	res, err := Aggregate(rowsFixture(), operation.Args{
		"_count": map[string]any{"_all": true, "amount": true},
		"_sum":   map[string]any{"amount": true},
		"_avg":   map[string]any{"amount": true},
		"_min":   map[string]any{"amount": true},
		"_max":   map[string]any{"amount": true},
	})
	if err != nil {
		t.Fatal(err)
	}
	count := res["_count"].(map[string]any)
	if count["_all"] != int64(4) || count["amount"] != int64(3) {
		t.Fatalf("unexpected _count %v", count)
	}
	if res["_sum"].(map[string]any)["amount"] != int64(60) {
		t.Fatalf("unexpected _sum %v", res["_sum"])
	}
	if res["_avg"].(map[string]any)["amount"] != 20.0 {
		t.Fatalf("unexpected _avg %v", res["_avg"])
	}
	if res["_min"].(map[string]any)["amount"] != int64(10) || res["_max"].(map[string]any)["amount"] != int64(30) {
		t.Fatalf("unexpected min/max %v %v", res["_min"], res["_max"])
	}

	res, err = Aggregate(nil, operation.Args{"_count": true, "_sum": map[string]any{"amount": true}})
	if err != nil {
		t.Fatal(err)
	}
	if res["_count"] != int64(0) || res["_sum"].(map[string]any)["amount"] != nil {
		t.Fatalf("unexpected empty aggregate %v", res)
	}
}

func TestGroupBy(t *testing.T) {
	groups, err := GroupBy(rowsFixture(), operation.Args{
		"by":      []any{"status"},
		"_count":  map[string]any{"_all": true},
		"_sum":    map[string]any{"amount": true},
		"orderBy": map[string]any{"_sum": map[string]any{"amount": "desc"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0]["status"] != "open" || groups[0]["_sum"].(map[string]any)["amount"] != int64(50) {
		t.Fatalf("unexpected first group %v", groups[0])
	}
	if groups[1]["_count"].(map[string]any)["_all"] != int64(1) {
		t.Fatalf("unexpected second group %v", groups[1])
	}

	if _, err := GroupBy(rowsFixture(), operation.Args{}); !errors.Is(err, store.ErrInvalidArgs) {
		t.Fatalf("expected ErrInvalidArgs, got %v", err)
	}
}
