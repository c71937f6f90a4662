package extension

import (
	"log/slog"

	"github.com/xraph/grove"

	"github.com/lawclick/tenantguard"
	"github.com/lawclick/tenantguard/plugin"
	"github.com/lawclick/tenantguard/schema"
	"github.com/lawclick/tenantguard/store"
)

// ExtOption configures the tenant guard Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB sets the database a grove-backed store is built on. The
// store kind is chosen by Config.Driver.
func WithGroveDB(db *grove.DB) ExtOption {
	return func(e *Extension) {
		e.groveDB = db
	}
}

// WithRegistry sets the tenant-scoped model registry. Without it the
// registry is loaded from the schema on disk at Register.
func WithRegistry(r *schema.Registry) ExtOption {
	return func(e *Extension) {
		e.registry = r
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithGuardOptions adds guard-level options.
func WithGuardOptions(opts ...tenantguard.Option) ExtOption {
	return func(e *Extension) {
		e.guardOpts = append(e.guardOpts, opts...)
	}
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) {
		e.plugins = append(e.plugins, x)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}
