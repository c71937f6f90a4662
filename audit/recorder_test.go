package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/lawclick/tenantguard/audit"
	"github.com/lawclick/tenantguard/operation"
	"github.com/lawclick/tenantguard/plugin"
	"github.com/lawclick/tenantguard/store/memory"
)

func TestRecorderWritesDecisions(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	rec := audit.NewRecorder(s)

	op := operation.New("Case", operation.FindMany, nil)
	_ = rec.OnOperationCompleted(ctx, &plugin.Event{Operation: op, TenantID: "t1", Outcome: plugin.OutcomeScoped, Elapsed: time.Millisecond})
	_ = rec.OnOperationCompleted(ctx, &plugin.Event{Operation: operation.New("User", operation.FindMany, nil), Outcome: plugin.OutcomeBypass})
	_ = rec.OnOperationRejected(ctx, &plugin.Event{Operation: op, Outcome: plugin.OutcomeRejected, Err: errors.New("cross-tenant")})

	entries, err := s.ListAuditEntries(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected bypass to be skipped, got %d entries", len(entries))
	}

	rejected, _ := s.ListAuditEntries(ctx, &audit.QueryFilter{Decision: audit.DecisionRejected})
	if len(rejected) != 1 || rejected[0].Reason != "cross-tenant" || rejected[0].Model != "Case" {
		t.Fatalf("unexpected rejection entry %+v", rejected)
	}

	scoped, _ := s.ListAuditEntries(ctx, &audit.QueryFilter{Decision: audit.DecisionScoped})
	if len(scoped) != 1 || scoped[0].EvalTimeNs != int64(time.Millisecond) || scoped[0].TenantID != "t1" {
		t.Fatalf("unexpected scoped entry %+v", scoped)
	}
}

func TestRecorderRejectionsOnly(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	rec := audit.NewRecorder(s, audit.RejectionsOnly())

	op := operation.New("Case", operation.Create, nil)
	_ = rec.OnOperationCompleted(ctx, &plugin.Event{Operation: op, Outcome: plugin.OutcomeUnscoped})
	_ = rec.OnOperationRejected(ctx, &plugin.Event{Operation: op, Outcome: plugin.OutcomeRejected, Err: errors.New("x")})

	n, _ := s.CountAuditEntries(ctx, nil)
	if n != 1 {
		t.Fatalf("expected only the rejection, got %d", n)
	}
}

func TestRecorderIncludeBypass(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	rec := audit.NewRecorder(s, audit.IncludeBypass())

	_ = rec.OnOperationCompleted(ctx, &plugin.Event{Operation: operation.New("User", operation.FindMany, nil), Outcome: plugin.OutcomeBypass})

	n, _ := s.CountAuditEntries(ctx, &audit.QueryFilter{Decision: audit.DecisionBypass})
	if n != 1 {
		t.Fatalf("expected bypass entry, got %d", n)
	}
}

func TestRecorderStampsTraceContext(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	s := memory.New()
	rec := audit.NewRecorder(s)

	op := operation.New("Case", operation.FindMany, nil)
	if err := rec.OnOperationRejected(ctx, &plugin.Event{Operation: op, Outcome: plugin.OutcomeRejected, Err: errors.New("x")}); err != nil {
		t.Fatal(err)
	}

	entries, _ := s.ListAuditEntries(ctx, nil)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].TraceID != sc.TraceID().String() || entries[0].SpanID != sc.SpanID().String() {
		t.Fatalf("trace context not recorded: %+v", entries[0])
	}
}
