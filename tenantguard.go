// Package tenantguard enforces multi-tenant row isolation on every
// data-access operation against tenant-scoped models.
//
// A Guard sits between application code and a record store. For each
// operation on a model listed in the schema registry it resolves exactly one
// tenant id (from the request context, or inferred from the operation's own
// arguments), pins the operation's filter and write payload to that tenant,
// and rejects anything that would read or write across tenants. Models that
// are not tenant-scoped pass through untouched.
//
//	reg, err := schema.Load(".", nil)
//	g, err := tenantguard.NewGuard(
//	    tenantguard.WithStore(memory.New()),
//	    tenantguard.WithRegistry(reg),
//	)
//	client := tenantguard.NewClient(g)
//
//	ctx = tenantguard.WithTenant(ctx, "tenant_123")
//	cases, err := client.Model("Case").FindMany(ctx, operation.Args{
//	    "where": map[string]any{"status": "open"},
//	})
//
// Enforcement fails closed: every rejection is a returned error wrapping
// one of the sentinels in errors.go, and the store is never reached.
package tenantguard
