// Package plugin defines the plugin system for the tenant guard.
// Plugins are notified of guard decisions (operation scoped, rejected, run
// unscoped, completed) and can react: audit logging, metrics, tracing.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"
	"time"

	"github.com/lawclick/tenantguard/operation"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// Outcome is the decision the guard reached for one operation.
type Outcome string

const (
	OutcomeBypass   Outcome = "bypass"
	OutcomeScoped   Outcome = "scoped"
	OutcomeUnscoped Outcome = "unscoped"
	OutcomeRejected Outcome = "rejected"
)

// Event describes one guarded operation as seen by plugins.
//
// Operation is the effective operation: for scoped outcomes it carries the
// rewritten arguments. Plugins must treat it as read-only. TenantID is the
// governing tenant; rejections carry the acting tenant when one was known.
type Event struct {
	Operation *operation.Operation
	TenantID  string
	Outcome   Outcome
	Err       error
	Elapsed   time.Duration
}

// ──────────────────────────────────────────────────
// Guard lifecycle hooks
// ──────────────────────────────────────────────────

// OperationScoped is called after an operation has been pinned to a tenant
// and before the store executes it.
type OperationScoped interface {
	OnOperationScoped(ctx context.Context, ev *Event) error
}

// OperationRejected is called when the guard refuses an operation.
// ev.Err holds the rejection.
type OperationRejected interface {
	OnOperationRejected(ctx context.Context, ev *Event) error
}

// UnscopedAllowed is called when the non-production escape hatch lets an
// operation on a tenant-scoped model run without a tenant.
type UnscopedAllowed interface {
	OnUnscopedAllowed(ctx context.Context, ev *Event) error
}

// OperationCompleted is called after the store returns, whatever the
// outcome. ev.Err holds the store error, if any.
type OperationCompleted interface {
	OnOperationCompleted(ctx context.Context, ev *Event) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
