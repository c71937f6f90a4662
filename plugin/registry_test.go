package plugin

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/lawclick/tenantguard/operation"
)

// testPlugin implements Plugin + OperationScoped + OperationRejected.
type testPlugin struct {
	scoped   []string
	rejected int
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnOperationScoped(_ context.Context, ev *Event) error {
	t.scoped = append(t.scoped, ev.TenantID)
	return nil
}

func (t *testPlugin) OnOperationRejected(_ context.Context, _ *Event) error {
	t.rejected++
	return errors.New("hook failure is logged, not returned")
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	ev := &Event{
		Operation: operation.New("Case", operation.FindMany, nil),
		TenantID:  "t-1",
		Outcome:   OutcomeScoped,
	}
	reg.EmitOperationScoped(ctx, ev)
	if len(tp.scoped) != 1 || tp.scoped[0] != "t-1" {
		t.Fatalf("OnOperationScoped not dispatched: %v", tp.scoped)
	}

	reg.EmitOperationRejected(ctx, &Event{Operation: ev.Operation, Outcome: OutcomeRejected})
	if tp.rejected != 1 {
		t.Fatal("OnOperationRejected was not called")
	}

	// Should not panic on hooks with no listeners.
	reg.EmitUnscopedAllowed(ctx, ev)
	reg.EmitOperationCompleted(ctx, ev)
	reg.EmitShutdown(ctx)
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	reg := NewRegistry(nil)
	if reg.logger == nil {
		t.Fatal("expected default logger")
	}
}
