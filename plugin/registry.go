package plugin

import (
	"context"
	"log/slog"
)

// Named entry types pair a hook with the plugin name for logging.

type operationScopedEntry struct {
	name string
	hook OperationScoped
}
type operationRejectedEntry struct {
	name string
	hook OperationRejected
}
type unscopedAllowedEntry struct {
	name string
	hook UnscopedAllowed
}
type operationCompletedEntry struct {
	name string
	hook OperationCompleted
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins that implement the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	operationScoped    []operationScopedEntry
	operationRejected  []operationRejectedEntry
	unscopedAllowed    []unscopedAllowedEntry
	operationCompleted []operationCompletedEntry
	shutdown           []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable hook caches.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(OperationScoped); ok {
		r.operationScoped = append(r.operationScoped, operationScopedEntry{name, h})
	}
	if h, ok := p.(OperationRejected); ok {
		r.operationRejected = append(r.operationRejected, operationRejectedEntry{name, h})
	}
	if h, ok := p.(UnscopedAllowed); ok {
		r.unscopedAllowed = append(r.unscopedAllowed, unscopedAllowedEntry{name, h})
	}
	if h, ok := p.(OperationCompleted); ok {
		r.operationCompleted = append(r.operationCompleted, operationCompletedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Guard event emitters
// ──────────────────────────────────────────────────

// EmitOperationScoped notifies all plugins that implement OperationScoped.
func (r *Registry) EmitOperationScoped(ctx context.Context, ev *Event) {
	for _, e := range r.operationScoped {
		if err := e.hook.OnOperationScoped(ctx, ev); err != nil {
			r.logHookError("OnOperationScoped", e.name, err)
		}
	}
}

// EmitOperationRejected notifies all plugins that implement OperationRejected.
func (r *Registry) EmitOperationRejected(ctx context.Context, ev *Event) {
	for _, e := range r.operationRejected {
		if err := e.hook.OnOperationRejected(ctx, ev); err != nil {
			r.logHookError("OnOperationRejected", e.name, err)
		}
	}
}

// EmitUnscopedAllowed notifies all plugins that implement UnscopedAllowed.
func (r *Registry) EmitUnscopedAllowed(ctx context.Context, ev *Event) {
	for _, e := range r.unscopedAllowed {
		if err := e.hook.OnUnscopedAllowed(ctx, ev); err != nil {
			r.logHookError("OnUnscopedAllowed", e.name, err)
		}
	}
}

// EmitOperationCompleted notifies all plugins that implement OperationCompleted.
func (r *Registry) EmitOperationCompleted(ctx context.Context, ev *Event) {
	for _, e := range r.operationCompleted {
		if err := e.hook.OnOperationCompleted(ctx, ev); err != nil {
			r.logHookError("OnOperationCompleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Hook errors are never propagated; they must not change a guard decision.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
