package tenantguard

import (
	"context"
	"fmt"
	"strings"
)

type contextKey int

const (
	ctxKeyRequest contextKey = iota
)

// RequestContext is the per-request identity the guard reads. At most one
// is visible to any code running under a given context.
type RequestContext struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id,omitempty"`
}

// WithRequestContext returns a context carrying rc. Values are trimmed.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	rc.TenantID = strings.TrimSpace(rc.TenantID)
	rc.UserID = strings.TrimSpace(rc.UserID)
	return context.WithValue(ctx, ctxKeyRequest, rc)
}

// WithTenant returns a context whose request tenant is tenantID. An existing
// user id is kept. Use this for standalone mode (without Forge).
func WithTenant(ctx context.Context, tenantID string) context.Context {
	rc, _ := RequestContextFrom(ctx)
	rc.TenantID = tenantID
	return WithRequestContext(ctx, rc)
}

// RequestContextFrom returns the request context bound to ctx, if any.
func RequestContextFrom(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(ctxKeyRequest).(RequestContext)
	return rc, ok
}

// TenantFromContext returns the request tenant bound to ctx, or "".
func TenantFromContext(ctx context.Context) string {
	rc, _ := RequestContextFrom(ctx)
	return rc.TenantID
}

// RunWithTenant runs fn under a request context pinned to tenantID. It is
// meant for work that runs outside an HTTP request, such as queued jobs.
func RunWithTenant(ctx context.Context, tenantID string, fn func(ctx context.Context) error) error {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return fmt.Errorf("%w: RunWithTenant requires a tenant id", ErrMissingTenantScope)
	}
	return fn(WithTenant(ctx, tenantID))
}
