package tenantguard

import (
	"fmt"

	"github.com/lawclick/tenantguard/operation"
)

// checkUniqueWhere requires a unique where clause to name tenant itself.
// Point lookups cannot be narrowed by merging a filter: the row a primary
// key resolves to may belong to another tenant.
func checkUniqueWhere(where any, tenant string) error {
	declared := uniqueWhereTenants(where)
	if len(declared) == 0 {
		return fmt.Errorf("%w: use findFirst, updateMany or deleteMany with a tenantId filter, or add tenantId to the unique where", ErrPointLookupUnscoped)
	}
	for _, t := range declared {
		if t != tenant {
			return fmt.Errorf("%w: where tenantId %q, scope %q", ErrCrossTenantAccess, t, tenant)
		}
	}
	return nil
}

// scopeWhere pins a bulk filter to tenant. The input is never modified.
// An absent filter becomes the tenant filter; a filter that is not an
// object is rejected rather than dropped.
func scopeWhere(where any, tenant string) (any, error) {
	if where == nil {
		return map[string]any{operation.KeyTenantID: tenant}, nil
	}
	m := operation.AsMap(where)
	if m == nil {
		return nil, fmt.Errorf("%w: where must be an object, got %T", ErrInvalidOperation, where)
	}

	existing, present := m[operation.KeyTenantID]
	if !present {
		if isScopedConjunction(m, tenant) {
			return m, nil
		}
		return withTenant(m, tenant), nil
	}
	if s, ok := existing.(string); ok {
		if t := normalizeTenant(s); t != "" && t != tenant {
			return nil, fmt.Errorf("%w: where tenantId %q, scope %q", ErrCrossTenantAccess, t, tenant)
		}
		return withTenant(m, tenant), nil
	}
	// A filter object under tenantId keeps its meaning and is conjoined.
	return map[string]any{
		"AND": []any{m, map[string]any{operation.KeyTenantID: tenant}},
	}, nil
}

// isScopedConjunction reports whether m is exactly the AND wrapper that
// scopeWhere produces for tenant.
func isScopedConjunction(m map[string]any, tenant string) bool {
	if len(m) != 1 {
		return false
	}
	parts := operation.AsList(m["AND"])
	if len(parts) != 2 {
		return false
	}
	last := operation.AsMap(parts[1])
	if len(last) != 1 {
		return false
	}
	s, ok := last[operation.KeyTenantID].(string)
	return ok && s == tenant
}

// scopeData pins a write payload, or each element of a list of payloads,
// to tenant. Non-object payloads are returned unchanged.
func scopeData(data any, tenant string) (any, error) {
	if m := operation.AsMap(data); m != nil {
		if existing, ok := m[operation.KeyTenantID].(string); ok {
			if t := normalizeTenant(existing); t != "" && t != tenant {
				return nil, fmt.Errorf("%w: data tenantId %q, scope %q", ErrCrossTenantWrite, t, tenant)
			}
		}
		return withTenant(m, tenant), nil
	}
	if l := operation.AsList(data); l != nil {
		out := make([]any, len(l))
		for i, item := range l {
			scoped, err := scopeData(item, tenant)
			if err != nil {
				return nil, fmt.Errorf("%w (element %d)", err, i)
			}
			out[i] = scoped
		}
		return out, nil
	}
	return data, nil
}

// withTenant returns a shallow copy of m with tenantId set.
func withTenant(m map[string]any, tenant string) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[operation.KeyTenantID] = tenant
	return out
}
