// Package audit defines the guard decision log: one Entry per guarded
// operation, recording whether it was bypassed, scoped, run unscoped or
// rejected.
package audit

import (
	"time"

	"github.com/lawclick/tenantguard/id"
)

// Decision is the outcome the guard reached for one operation.
type Decision string

const (
	// DecisionBypass means the model is not tenant-scoped.
	DecisionBypass Decision = "bypass"

	// DecisionScoped means the operation was pinned to one tenant and executed.
	DecisionScoped Decision = "scoped"

	// DecisionUnscoped means the non-production escape hatch let it run unpinned.
	DecisionUnscoped Decision = "unscoped"

	// DecisionRejected means the guard refused to execute it.
	DecisionRejected Decision = "rejected"
)

// Entry is a single guard decision record.
type Entry struct {
	ID         id.ID     `json:"id" db:"id"`
	TenantID   string    `json:"tenant_id" db:"tenant_id"`
	Model      string    `json:"model" db:"model"`
	Action     string    `json:"action" db:"action"`
	Decision   Decision  `json:"decision" db:"decision"`
	Reason     string    `json:"reason,omitempty" db:"reason"`
	EvalTimeNs int64     `json:"eval_time_ns" db:"eval_time_ns"`
	TraceID    string    `json:"trace_id,omitempty" db:"trace_id"`
	SpanID     string    `json:"span_id,omitempty" db:"span_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying audit entries.
type QueryFilter struct {
	TenantID string     `json:"tenant_id,omitempty"`
	Model    string     `json:"model,omitempty"`
	Action   string     `json:"action,omitempty"`
	Decision Decision   `json:"decision,omitempty"`
	After    *time.Time `json:"after,omitempty"`
	Before   *time.Time `json:"before,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

// Matches reports whether e satisfies every set field of f, ignoring
// pagination.
func (f *QueryFilter) Matches(e *Entry) bool {
	if f == nil {
		return true
	}
	if f.TenantID != "" && e.TenantID != f.TenantID {
		return false
	}
	if f.Model != "" && e.Model != f.Model {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Decision != "" && e.Decision != f.Decision {
		return false
	}
	if f.After != nil && e.CreatedAt.Before(*f.After) {
		return false
	}
	if f.Before != nil && e.CreatedAt.After(*f.Before) {
		return false
	}
	return true
}
