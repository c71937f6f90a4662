package operation

import "testing"

func TestActionClassification(t *testing.T) {
	for _, a := range Actions {
		if !a.Valid() {
			t.Fatalf("%s should be valid", a)
		}
		if a.IsPointLookup() && a.FiltersRows() {
			t.Fatalf("%s cannot be both a point lookup and a bulk filter", a)
		}
	}
	if Action("createManyAndReturn").Valid() {
		t.Fatal("unknown action reported valid")
	}
	if !Upsert.IsPointLookup() || !Delete.IsPointLookup() {
		t.Fatal("upsert and delete are point lookups")
	}
	if !UpdateMany.FiltersRows() || !UpdateMany.WritesData() {
		t.Fatal("updateMany filters rows and writes data")
	}
	if Upsert.WritesData() {
		t.Fatal("upsert writes through create/update, not data")
	}
}

func TestCloneDoesNotShareTopLevel(t *testing.T) {
	op := New("Case", FindMany, Args{"where": map[string]any{"title": "x"}})
	c := op.Clone()
	c.Args["where"] = map[string]any{"tenantId": "t1"}

	if AsMap(op.Args["where"])["title"] != "x" {
		t.Fatal("clone rewrote the caller's args")
	}
	if op.String() != "Case.findMany" {
		t.Fatalf("unexpected string %q", op.String())
	}
}

func TestAsList(t *testing.T) {
	if len(AsList([]map[string]any{{"a": 1}, {"b": 2}})) != 2 {
		t.Fatal("expected two elements")
	}
	if AsList("nope") != nil {
		t.Fatal("scalar is not a list")
	}
	if AsMap(Record{"a": 1}) == nil {
		t.Fatal("record should be accepted as a map")
	}
}
