package tenantguard

import (
	"errors"
	"fmt"
)

var (
	// ErrStartupConfiguration is returned when the guard cannot be built:
	// the schema is missing, the unscoped escape hatch is enabled in
	// production, or no store was configured.
	ErrStartupConfiguration = errors.New("tenantguard: invalid startup configuration")

	// ErrMissingTenantScope is returned when an operation on a tenant-scoped
	// model has no resolvable tenant id.
	ErrMissingTenantScope = errors.New("tenantguard: missing tenant scope")

	// ErrAmbiguousTenant is returned when more than one distinct tenant id is
	// found while inferring the tenant from an operation's arguments.
	ErrAmbiguousTenant = fmt.Errorf("%w: ambiguous tenant", ErrMissingTenantScope)

	// ErrScanDepthExceeded is returned when an argument tree is nested deeper
	// than the configured scan depth.
	ErrScanDepthExceeded = fmt.Errorf("%w: scan depth exceeded", ErrMissingTenantScope)

	// ErrCrossTenant is the parent of every cross-tenant rejection.
	ErrCrossTenant = errors.New("tenantguard: cross-tenant")

	// ErrCrossTenantAccess is returned when a filter names another tenant.
	ErrCrossTenantAccess = fmt.Errorf("%w access", ErrCrossTenant)

	// ErrCrossTenantWrite is returned when a write payload names another tenant.
	ErrCrossTenantWrite = fmt.Errorf("%w write", ErrCrossTenant)

	// ErrPointLookupUnscoped is returned when a unique lookup or mutation has
	// no tenant id in its where clause.
	ErrPointLookupUnscoped = errors.New("tenantguard: point lookup without tenantId")

	// ErrUnsupportedAction is returned for actions the guard does not know
	// how to scope.
	ErrUnsupportedAction = errors.New("tenantguard: unsupported action")

	// ErrInvalidOperation is returned for malformed operations.
	ErrInvalidOperation = errors.New("tenantguard: invalid operation")
)
