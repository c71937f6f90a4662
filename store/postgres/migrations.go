package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the tenant guard store (PostgreSQL).
var Migrations = migrate.NewGroup("tenantguard")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_records",
			Version: "20260301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenantguard_records (
    row_key         TEXT PRIMARY KEY,
    model           TEXT NOT NULL,
    record_id       TEXT NOT NULL,
    tenant_id       TEXT NOT NULL DEFAULT '',
    position        BIGINT NOT NULL DEFAULT 0,
    data            JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE(model, record_id)
);

CREATE INDEX IF NOT EXISTS idx_tenantguard_records_tenant ON tenantguard_records (model, tenant_id);
CREATE INDEX IF NOT EXISTS idx_tenantguard_records_position ON tenantguard_records (model, position);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tenantguard_records`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_audit",
			Version: "20260301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenantguard_audit (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL DEFAULT '',
    model           TEXT NOT NULL,
    action          TEXT NOT NULL,
    decision        TEXT NOT NULL,
    reason          TEXT NOT NULL DEFAULT '',
    eval_time_ns    BIGINT NOT NULL DEFAULT 0,
    trace_id        TEXT NOT NULL DEFAULT '',
    span_id         TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tenantguard_audit_tenant ON tenantguard_audit (tenant_id);
CREATE INDEX IF NOT EXISTS idx_tenantguard_audit_decision ON tenantguard_audit (tenant_id, decision);
CREATE INDEX IF NOT EXISTS idx_tenantguard_audit_created ON tenantguard_audit (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tenantguard_audit`)
				return err
			},
		},
	)
}
