package tenantguard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lawclick/tenantguard/operation"
	"github.com/lawclick/tenantguard/plugin"
	"github.com/lawclick/tenantguard/schema"
	"github.com/lawclick/tenantguard/store"
)

// Guard is the single enforcement point between callers and the store.
// It is safe for concurrent use: after construction it holds only
// read-only state.
type Guard struct {
	store        store.Executor
	registry     *schema.Registry
	plugins      *plugin.Registry
	logger       *slog.Logger
	config       Config
	tenantSource TenantSource
}

// NewGuard creates a guard with the given options. A store and a registry
// are required.
func NewGuard(opts ...Option) (*Guard, error) {
	g := &Guard{
		logger:       slog.Default(),
		config:       DefaultConfig(),
		tenantSource: AmbientTenant,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrStartupConfiguration)
	}
	if g.registry == nil {
		return nil, fmt.Errorf("%w: schema registry is required", ErrStartupConfiguration)
	}
	if err := g.config.Validate(); err != nil {
		g.logger.Error("tenant guard refused to start", slog.String("error", err.Error()))
		return nil, err
	}
	if g.config.AllowUnscoped() {
		g.logger.Warn("unscoped tenant queries enabled; operations without a tenant context will run unpinned",
			slog.String("flag", "LAWCLICK_ALLOW_UNSCOPED_TENANT_QUERIES"),
		)
	}
	g.logger.Debug("tenant guard ready", slog.Int("scoped_models", g.registry.Len()))
	return g, nil
}

// NewFromEnv builds a guard the way a process does at startup: the
// configuration is read from the environment and the schema is loaded from
// the configured (or default) candidate paths relative to the working
// directory. Every failure wraps ErrStartupConfiguration.
func NewFromEnv(opts ...Option) (*Guard, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStartupConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("%w: working directory: %w", ErrStartupConfiguration, err)
	}
	reg, err := schema.Load(cwd, cfg.SchemaPaths)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStartupConfiguration, err)
	}
	base := []Option{WithConfig(cfg), WithRegistry(reg)}
	return NewGuard(append(base, opts...)...)
}

// Registry returns the tenant-scoped model registry.
func (g *Guard) Registry() *schema.Registry { return g.registry }

// Store returns the underlying executor.
func (g *Guard) Store() store.Executor { return g.store }

// Plugins returns the plugin registry (may be nil).
func (g *Guard) Plugins() *plugin.Registry { return g.plugins }

// Config returns the guard configuration.
func (g *Guard) Config() Config { return g.config }

// Start performs any startup initialization.
func (g *Guard) Start(_ context.Context) error { return nil }

// Stop performs graceful shutdown.
func (g *Guard) Stop(ctx context.Context) error {
	if g.plugins != nil {
		g.plugins.EmitShutdown(ctx)
	}
	return nil
}

// Execute runs op through the guard and, unless it is rejected, the store.
// This is the hot path.
func (g *Guard) Execute(ctx context.Context, op *operation.Operation) (any, error) {
	start := time.Now()
	if op == nil || op.Model == "" {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidOperation)
	}

	// 1. Bypass: the model is not tenant-scoped.
	if !g.registry.Has(op.Model) {
		g.logger.Debug("tenant guard bypass", slog.String("model", op.Model), slog.String("action", string(op.Action)))
		res, err := g.store.Execute(ctx, op)
		g.completed(ctx, &plugin.Event{Operation: op, Outcome: plugin.OutcomeBypass, Err: err}, start)
		return res, err
	}

	// 2-5. Resolve, pre-check and rewrite.
	scoped, tenant, err := g.scope(ctx, op)
	if err != nil {
		g.logger.Warn("tenant guard rejected operation",
			slog.String("model", op.Model),
			slog.String("action", string(op.Action)),
			slog.String("error", err.Error()),
		)
		if g.plugins != nil {
			g.plugins.EmitOperationRejected(ctx, &plugin.Event{
				Operation: op,
				TenantID:  tenant,
				Outcome:   plugin.OutcomeRejected,
				Err:       err,
				Elapsed:   time.Since(start),
			})
		}
		return nil, err
	}

	outcome := plugin.OutcomeScoped
	if tenant == "" {
		outcome = plugin.OutcomeUnscoped
		g.logger.Warn("tenant guard running operation unscoped",
			slog.String("model", op.Model),
			slog.String("action", string(op.Action)),
		)
		if g.plugins != nil {
			g.plugins.EmitUnscopedAllowed(ctx, &plugin.Event{Operation: scoped, Outcome: outcome})
		}
	} else if g.plugins != nil {
		g.plugins.EmitOperationScoped(ctx, &plugin.Event{Operation: scoped, TenantID: tenant, Outcome: outcome})
	}

	// 6. Execute.
	res, err := g.store.Execute(ctx, scoped)
	g.completed(ctx, &plugin.Event{Operation: scoped, TenantID: tenant, Outcome: outcome, Err: err}, start)
	return res, err
}

func (g *Guard) completed(ctx context.Context, ev *plugin.Event, start time.Time) {
	if g.plugins == nil {
		return
	}
	ev.Elapsed = time.Since(start)
	g.plugins.EmitOperationCompleted(ctx, ev)
}

// Scope returns the operation the store would receive for op under ctx,
// without executing it. Operations on models that are not tenant-scoped,
// and unscoped operations allowed by the escape hatch, are returned as is.
func (g *Guard) Scope(ctx context.Context, op *operation.Operation) (*operation.Operation, error) {
	if op == nil || op.Model == "" {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidOperation)
	}
	if !g.registry.Has(op.Model) {
		return op, nil
	}
	scoped, _, err := g.scope(ctx, op)
	return scoped, err
}

// scope resolves the governing tenant for op and returns a rewritten copy
// pinned to it. An empty tenant with a nil error means the escape hatch
// let op through unscoped. On rejection the tenant resolved so far, if
// any, is still returned.
func (g *Guard) scope(ctx context.Context, op *operation.Operation) (*operation.Operation, string, error) {
	tenant := strings.TrimSpace(g.tenantSource(ctx))
	if !op.Action.Valid() {
		return nil, tenant, g.reject(op, ErrUnsupportedAction)
	}

	if tenant == "" {
		if g.config.AllowUnscoped() {
			return op, "", nil
		}
		inferred, err := inferTenant(op.Args, g.config.scanDepth())
		if err != nil {
			return nil, "", g.reject(op, err)
		}
		if inferred == "" {
			return nil, "", g.reject(op, fmt.Errorf(
				"%w: bind a tenant to the request context or pass tenantId in where/data", ErrMissingTenantScope))
		}
		tenant = inferred
	}

	out := op.Clone()
	args := out.Args

	if op.Action.IsPointLookup() {
		if err := checkUniqueWhere(args[operation.KeyWhere], tenant); err != nil {
			return nil, tenant, g.reject(op, err)
		}
	}

	var payloadKeys []string
	switch op.Action {
	case operation.Create, operation.CreateMany, operation.Update, operation.UpdateMany:
		payloadKeys = []string{operation.KeyData}
	case operation.Upsert:
		payloadKeys = []string{operation.KeyCreate, operation.KeyUpdate}
	}
	for _, key := range payloadKeys {
		data, present := args[key]
		if !present {
			continue
		}
		scoped, err := scopeData(data, tenant)
		if err != nil {
			return nil, tenant, g.reject(op, err)
		}
		args[key] = scoped
	}

	if op.Action.FiltersRows() {
		where, err := scopeWhere(args[operation.KeyWhere], tenant)
		if err != nil {
			return nil, tenant, g.reject(op, err)
		}
		args[operation.KeyWhere] = where
	}

	return out, tenant, nil
}

func (g *Guard) reject(op *operation.Operation, err error) error {
	return fmt.Errorf("%w (model=%s action=%s)", err, op.Model, op.Action)
}
