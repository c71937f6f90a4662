package tenantguard

import (
	"log/slog"

	"github.com/lawclick/tenantguard/plugin"
	"github.com/lawclick/tenantguard/schema"
	"github.com/lawclick/tenantguard/store"
)

// Option is a functional option for the Guard.
type Option func(*Guard)

// WithStore sets the store operations are delegated to.
func WithStore(s store.Executor) Option { return func(g *Guard) { g.store = s } }

// WithRegistry sets the tenant-scoped model registry.
func WithRegistry(r *schema.Registry) Option { return func(g *Guard) { g.registry = r } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(g *Guard) { g.logger = l } }

// WithConfig sets the guard configuration.
func WithConfig(c Config) Option { return func(g *Guard) { g.config = c } }

// WithTenantSource replaces the ambient tenant accessor.
func WithTenantSource(src TenantSource) Option { return func(g *Guard) { g.tenantSource = src } }

// WithPlugin registers a plugin with the guard.
func WithPlugin(x plugin.Plugin) Option {
	return func(g *Guard) {
		if g.plugins == nil {
			g.plugins = plugin.NewRegistry(g.logger)
		}
		g.plugins.Register(x)
	}
}
