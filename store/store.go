// Package store defines the aggregate persistence interface behind the
// tenant guard: a record executor that understands every guarded operation,
// plus the audit log. Backends: Memory, SQLite, PostgreSQL and MongoDB.
package store

import (
	"context"
	"errors"

	"github.com/lawclick/tenantguard/audit"
	"github.com/lawclick/tenantguard/operation"
)

var (
	// ErrRecordNotFound is returned by OrThrow lookups, update and delete
	// when no row matches.
	ErrRecordNotFound = errors.New("store: record not found")

	// ErrUniqueViolation is returned when a create reuses an existing id.
	ErrUniqueViolation = errors.New("store: unique constraint violated")

	// ErrInvalidArgs is returned when an argument tree cannot be evaluated.
	ErrInvalidArgs = errors.New("store: invalid arguments")
)

// Executor runs one operation against the records of its model.
//
// Result shapes by action:
//   - create, update, upsert, delete, findUniqueOrThrow, findFirstOrThrow: operation.Record
//   - findUnique, findFirst: operation.Record, or nil when nothing matches
//   - findMany, groupBy: []operation.Record
//   - createMany, updateMany, deleteMany: operation.BatchResult
//   - count: int64
//   - aggregate: operation.Record
type Executor interface {
	Execute(ctx context.Context, op *operation.Operation) (any, error)
}

// Store is the aggregate persistence interface.
// A single backend (memory, sqlite, postgres, mongo) implements all of it.
type Store interface {
	Executor
	audit.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
