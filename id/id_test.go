package id_test

import (
	"strings"
	"testing"

	"github.com/lawclick/tenantguard/id"
)

func TestModelPrefix(t *testing.T) {
	tests := []struct {
		model string
		want  id.Prefix
	}{
		{"Case", "case"},
		{"CaseTask", "casetask"},
		{"Case_2", "case"},
		{"123", id.PrefixRecord},
		{"", id.PrefixRecord},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := id.ModelPrefix(tt.model); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestModelPrefixTruncates(t *testing.T) {
	long := strings.Repeat("A", 100)
	if got := id.ModelPrefix(long); len(got) != 63 {
		t.Fatalf("expected 63-char prefix, got %d", len(got))
	}
}

func TestForModel(t *testing.T) {
	i := id.ForModel("CaseTask")
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if !strings.HasPrefix(i.String(), "casetask_") {
		t.Errorf("unexpected id %q", i.String())
	}
}

func TestAuditEntryRoundTrip(t *testing.T) {
	orig := id.NewAuditEntryID()
	parsed, err := id.ParseAuditEntryID(orig.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed.String() != orig.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed.String(), orig.String())
	}
}

func TestParseWithPrefixMismatch(t *testing.T) {
	rec := id.ForModel("Case")
	if _, err := id.ParseAuditEntryID(rec.String()); err == nil {
		t.Fatal("expected prefix mismatch error")
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Fatal("expected error for empty string")
	}
}

func TestMarshalUnmarshalText(t *testing.T) {
	orig := id.NewAuditEntryID()
	data, err := orig.MarshalText()
	if err != nil {
		t.Fatal(err)
	}

	var restored id.ID
	if err := restored.UnmarshalText(data); err != nil {
		t.Fatal(err)
	}
	if restored.String() != orig.String() {
		t.Errorf("expected %q, got %q", orig.String(), restored.String())
	}

	var empty id.ID
	if err := empty.UnmarshalText([]byte{}); err != nil {
		t.Fatal(err)
	}
	if !empty.IsNil() {
		t.Error("expected Nil after empty unmarshal")
	}
}

func TestValueScan(t *testing.T) {
	orig := id.NewAuditEntryID()
	v, err := orig.Value()
	if err != nil {
		t.Fatal(err)
	}

	var scanned id.ID
	if err := scanned.Scan(v); err != nil {
		t.Fatal(err)
	}
	if scanned.String() != orig.String() {
		t.Errorf("expected %q, got %q", orig.String(), scanned.String())
	}

	var fromNil id.ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if !fromNil.IsNil() {
		t.Error("expected Nil from nil scan")
	}
	if err := fromNil.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}
