// Package api provides read-only HTTP handlers describing what the tenant
// guard protects and what it decided.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/lawclick/tenantguard"
	"github.com/lawclick/tenantguard/audit"
)

// API wires all tenant guard HTTP handlers together.
type API struct {
	guard  *tenantguard.Guard
	audit  audit.Store
	router forge.Router
}

// New creates an API from a Guard, the audit store it records into, and a
// Forge router. A nil audit store disables the audit routes.
func New(g *tenantguard.Guard, auditStore audit.Store, router forge.Router) *API {
	return &API{guard: g, audit: auditStore, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("tenantguard: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerModelRoutes,
	}
	if a.audit != nil {
		registerers = append(registerers, a.registerAuditRoutes)
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}
