// Package middleware binds the request's tenant into the context the guard
// reads, for Forge routers and plain net/http servers.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/xraph/forge"

	"github.com/lawclick/tenantguard"
)

// TenantHeader is the header consulted when no Forge scope carries an org.
const TenantHeader = "X-Tenant-ID"

// Resolver extracts the tenant id from a request. It returns "" when the
// request carries none.
type Resolver func(r *http.Request) string

// HeaderResolver reads the tenant id from the named header.
func HeaderResolver(name string) Resolver {
	return func(r *http.Request) string {
		return strings.TrimSpace(r.Header.Get(name))
	}
}

// RequireTenant binds the tenant of each request into its context. The
// Forge scope's org id wins over the X-Tenant-ID header. Requests with
// neither are answered with 400.
func RequireTenant() forge.Middleware {
	header := HeaderResolver(TenantHeader)
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			req := ctx.Request()
			tenantID := ""
			if s, ok := forge.ScopeFrom(req.Context()); ok {
				tenantID = strings.TrimSpace(s.OrgID())
			}
			if tenantID == "" {
				tenantID = header(req)
			}
			if tenantID == "" {
				return missingTenantResponse(ctx)
			}

			bound := tenantguard.WithRequestContext(req.Context(), tenantguard.RequestContext{
				TenantID: tenantID,
				UserID:   forge.UserIDFromContext(req.Context()),
			})
			*req = *req.WithContext(bound)
			return next(ctx)
		}
	}
}

// HTTP wraps next so every request runs inside a tenant request context.
// A nil resolver reads the X-Tenant-ID header.
func HTTP(next http.Handler, resolve Resolver) http.Handler {
	if resolve == nil {
		resolve = HeaderResolver(TenantHeader)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := resolve(r)
		if tenantID == "" {
			writeMissingTenant(w)
			return
		}
		ctx := tenantguard.WithTenant(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func missingTenantResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(http.StatusBadRequest)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "tenant id is required"})
}

func writeMissingTenant(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "tenant id is required"}) //nolint:errcheck // best effort
}
