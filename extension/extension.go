// Package extension provides a Forge extension entry point for the tenant guard.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/lawclick/tenantguard"
	"github.com/lawclick/tenantguard/api"
	"github.com/lawclick/tenantguard/audit"
	"github.com/lawclick/tenantguard/plugin"
	"github.com/lawclick/tenantguard/schema"
	"github.com/lawclick/tenantguard/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "tenantguard"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Tenant isolation guard for tenant-scoped data access"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the tenant guard as a Forge extension.
type Extension struct {
	config     Config
	guard      *tenantguard.Guard
	client     *tenantguard.Client
	store      store.Store
	groveDB    *grove.DB
	registry   *schema.Registry
	apiHandler *api.API
	logger     *slog.Logger
	guardOpts  []tenantguard.Option
	plugins    []plugin.Plugin
}

// New creates a tenant guard Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Guard returns the underlying guard.
func (e *Extension) Guard() *tenantguard.Guard { return e.guard }

// Client returns the guarded data client.
func (e *Extension) Client() *tenantguard.Client { return e.client }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It builds the guard, registers the
// client and guard in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*tenantguard.Client, error) {
		return e.client, nil
	}); err != nil {
		return fmt.Errorf("tenantguard: register client in container: %w", err)
	}
	if err := vessel.Provide(fapp.Container(), func() (*tenantguard.Guard, error) {
		return e.guard, nil
	}); err != nil {
		return fmt.Errorf("tenantguard: register guard in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	s, err := e.resolveStore(fapp)
	if err != nil {
		return err
	}
	e.store = s

	opts := make([]tenantguard.Option, 0, len(e.guardOpts)+len(e.plugins)+3)
	opts = append(opts, tenantguard.WithLogger(logger), tenantguard.WithStore(s))

	switch e.config.Audit {
	case AuditOff:
	case AuditAll:
		opts = append(opts, tenantguard.WithPlugin(audit.NewRecorder(s)))
	case "", AuditRejections:
		opts = append(opts, tenantguard.WithPlugin(audit.NewRecorder(s, audit.RejectionsOnly())))
	default:
		return fmt.Errorf("tenantguard: unknown audit mode %q", e.config.Audit)
	}
	for _, x := range e.plugins {
		opts = append(opts, tenantguard.WithPlugin(x))
	}

	// User-provided options may override the store and logger.
	opts = append(opts, e.guardOpts...)

	var g *tenantguard.Guard
	if e.registry != nil {
		g, err = tenantguard.NewGuard(append([]tenantguard.Option{tenantguard.WithRegistry(e.registry)}, opts...)...)
	} else {
		g, err = tenantguard.NewFromEnv(opts...)
	}
	if err != nil {
		return fmt.Errorf("tenantguard: create guard: %w", err)
	}
	e.guard = g
	e.client = tenantguard.NewClient(g)

	e.apiHandler = api.New(g, s, fapp.Router())

	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("tenantguard: register routes: %w", err)
		}
	}

	return nil
}

// resolveStore picks, in order: the WithStore backend, a store.Store from
// the DI container, then a grove-backed store built for Config.Driver.
func (e *Extension) resolveStore(fapp forge.App) (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		return s, nil
	}
	if e.config.Driver == "" {
		return nil, errors.New("tenantguard: no store configured")
	}
	db := e.groveDB
	if db == nil {
		injected, err := forge.Inject[*grove.DB](fapp.Container())
		if err != nil {
			return nil, fmt.Errorf("tenantguard: resolve grove database: %w", err)
		}
		db = injected
	}
	return NewStore(e.config.Driver, db)
}

// Start runs migrations if enabled and starts the guard.
func (e *Extension) Start(ctx context.Context) error {
	if e.guard == nil {
		return errors.New("tenantguard: extension not initialized")
	}

	if !e.config.DisableMigrate && e.store != nil {
		if err := e.store.Migrate(ctx); err != nil {
			return fmt.Errorf("tenantguard: migration failed: %w", err)
		}
	}

	return e.guard.Start(ctx)
}

// Stop gracefully shuts down the guard.
func (e *Extension) Stop(ctx context.Context) error {
	if e.guard == nil {
		return nil
	}
	return e.guard.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.guard == nil {
		return errors.New("tenantguard: extension not initialized")
	}
	if e.store == nil {
		return errors.New("tenantguard: no store configured")
	}
	return e.store.Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all tenant guard API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
