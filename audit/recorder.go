package audit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/lawclick/tenantguard/id"
	"github.com/lawclick/tenantguard/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Recorder)(nil)
	_ plugin.OperationRejected  = (*Recorder)(nil)
	_ plugin.OperationCompleted = (*Recorder)(nil)
)

// Recorder is a plugin that writes one Entry per guarded operation.
// Bypassed operations are skipped unless IncludeBypass is set.
type Recorder struct {
	store          Store
	rejectionsOnly bool
	includeBypass  bool
	now            func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// RejectionsOnly limits recording to rejected operations.
func RejectionsOnly() RecorderOption {
	return func(r *Recorder) { r.rejectionsOnly = true }
}

// IncludeBypass also records operations on models that are not tenant-scoped.
func IncludeBypass() RecorderOption {
	return func(r *Recorder) { r.includeBypass = true }
}

// NewRecorder creates a recorder writing to s.
func NewRecorder(s Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: s, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name implements plugin.Plugin.
func (r *Recorder) Name() string { return "audit-recorder" }

// OnOperationRejected records a rejection.
func (r *Recorder) OnOperationRejected(ctx context.Context, ev *plugin.Event) error {
	return r.record(ctx, ev)
}

// OnOperationCompleted records an executed operation.
func (r *Recorder) OnOperationCompleted(ctx context.Context, ev *plugin.Event) error {
	if r.rejectionsOnly {
		return nil
	}
	if ev.Outcome == plugin.OutcomeBypass && !r.includeBypass {
		return nil
	}
	return r.record(ctx, ev)
}

func (r *Recorder) record(ctx context.Context, ev *plugin.Event) error {
	e := &Entry{
		ID:         id.NewAuditEntryID(),
		TenantID:   ev.TenantID,
		Decision:   Decision(ev.Outcome),
		EvalTimeNs: ev.Elapsed.Nanoseconds(),
		CreatedAt:  r.now().UTC(),
	}
	if ev.Operation != nil {
		e.Model = ev.Operation.Model
		e.Action = string(ev.Operation.Action)
	}
	if ev.Err != nil {
		e.Reason = ev.Err.Error()
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		e.TraceID = sc.TraceID().String()
		e.SpanID = sc.SpanID().String()
	}
	return r.store.CreateAuditEntry(ctx, e)
}
