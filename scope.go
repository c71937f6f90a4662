package tenantguard

import (
	"context"
	"strings"

	"github.com/xraph/forge"
)

// TenantSource returns the ambient tenant for ctx, or "" when there is none.
type TenantSource func(ctx context.Context) string

// AmbientTenant is the default TenantSource. An explicit request context
// wins; otherwise the Forge scope's organization id is used.
func AmbientTenant(ctx context.Context) string {
	if t := TenantFromContext(ctx); t != "" {
		return t
	}
	if s, ok := forge.ScopeFrom(ctx); ok {
		return strings.TrimSpace(s.OrgID())
	}
	return ""
}
