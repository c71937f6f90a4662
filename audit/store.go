package audit

import (
	"context"
	"time"
)

// Store defines persistence operations for guard audit entries.
type Store interface {
	// CreateAuditEntry persists a new entry.
	CreateAuditEntry(ctx context.Context, e *Entry) error

	// ListAuditEntries returns entries matching the filter, newest first.
	ListAuditEntries(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// CountAuditEntries returns the number of entries matching the filter.
	CountAuditEntries(ctx context.Context, filter *QueryFilter) (int64, error)

	// PurgeAuditEntries removes entries older than the given time.
	PurgeAuditEntries(ctx context.Context, before time.Time) (int64, error)

	// DeleteAuditEntriesByTenant removes all entries for a tenant.
	DeleteAuditEntriesByTenant(ctx context.Context, tenantID string) error
}
