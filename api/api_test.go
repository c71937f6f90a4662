package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lawclick/tenantguard"
	"github.com/lawclick/tenantguard/audit"
	"github.com/lawclick/tenantguard/store"
)

func TestAuditFilterFromRequest(t *testing.T) {
	f, err := auditFilter(&ListAuditEntriesRequest{
		TenantID: "t1",
		Decision: "rejected",
		After:    "2026-01-02T15:04:05Z",
	})
	if err != nil {
		t.Fatal(err)
	}
	if f.TenantID != "t1" || f.Decision != audit.DecisionRejected {
		t.Fatalf("unexpected filter %+v", f)
	}
	if f.After == nil || f.After.Year() != 2026 {
		t.Fatalf("unexpected after %v", f.After)
	}
	if f.Limit != 50 {
		t.Fatalf("expected default limit 50, got %d", f.Limit)
	}
}

func TestAuditFilterRejectsBadInput(t *testing.T) {
	if _, err := auditFilter(&ListAuditEntriesRequest{Decision: "maybe"}); err == nil {
		t.Fatal("expected error for unknown decision")
	}
	if _, err := auditFilter(&ListAuditEntriesRequest{Before: "yesterday"}); err == nil {
		t.Fatal("expected error for bad timestamp")
	}
}

func TestDefaultLimit(t *testing.T) {
	if defaultLimit(0) != 50 || defaultLimit(5000) != 1000 || defaultLimit(20) != 20 {
		t.Fatal("unexpected limit clamping")
	}
}

func TestMapErrorPassesThroughUnknown(t *testing.T) {
	if mapError(nil) != nil {
		t.Fatal("nil maps to nil")
	}
	plain := errors.New("boom")
	if mapError(plain) != plain {
		t.Fatal("unknown errors are returned as is")
	}
	wrapped := fmt.Errorf("%w: Case", store.ErrRecordNotFound)
	if mapError(wrapped) == wrapped {
		t.Fatal("not-found should be mapped")
	}
	if mapError(tenantguard.ErrCrossTenantWrite) == tenantguard.ErrCrossTenantWrite {
		t.Fatal("cross-tenant should be mapped")
	}
}
