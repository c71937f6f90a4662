package tenantguard

import (
	"context"
	"fmt"

	"github.com/lawclick/tenantguard/operation"
)

// Client is the drop-in data-access surface. Every call is routed through
// the guard, so callers use the same operation names and argument shapes
// whether or not a model is tenant-scoped.
type Client struct {
	guard *Guard
}

// NewClient wraps g.
func NewClient(g *Guard) *Client { return &Client{guard: g} }

// Guard returns the guard behind the client.
func (c *Client) Guard() *Guard { return c.guard }

// Execute runs an arbitrary operation through the guard.
func (c *Client) Execute(ctx context.Context, op *operation.Operation) (any, error) {
	return c.guard.Execute(ctx, op)
}

// Model returns the query surface for one model.
func (c *Client) Model(name string) *ModelClient {
	return &ModelClient{client: c, model: name}
}

// ModelClient exposes the operations of a single model.
type ModelClient struct {
	client *Client
	model  string
}

// Name returns the model name.
func (m *ModelClient) Name() string { return m.model }

func (m *ModelClient) run(ctx context.Context, action operation.Action, args operation.Args) (any, error) {
	return m.client.guard.Execute(ctx, operation.New(m.model, action, args))
}

func (m *ModelClient) record(ctx context.Context, action operation.Action, args operation.Args) (operation.Record, error) {
	res, err := m.run(ctx, action, args)
	if err != nil {
		return nil, err
	}
	return asRecord(res)
}

func (m *ModelClient) records(ctx context.Context, action operation.Action, args operation.Args) ([]operation.Record, error) {
	res, err := m.run(ctx, action, args)
	if err != nil {
		return nil, err
	}
	switch v := res.(type) {
	case nil:
		return nil, nil
	case []operation.Record:
		return v, nil
	case []map[string]any:
		out := make([]operation.Record, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s.%s returned %T", ErrInvalidOperation, m.model, action, res)
}

func (m *ModelClient) batch(ctx context.Context, action operation.Action, args operation.Args) (operation.BatchResult, error) {
	res, err := m.run(ctx, action, args)
	if err != nil {
		return operation.BatchResult{}, err
	}
	switch v := res.(type) {
	case operation.BatchResult:
		return v, nil
	case *operation.BatchResult:
		return *v, nil
	}
	return operation.BatchResult{}, fmt.Errorf("%w: %s.%s returned %T", ErrInvalidOperation, m.model, action, res)
}

func asRecord(res any) (operation.Record, error) {
	switch v := res.(type) {
	case nil:
		return nil, nil
	case operation.Record:
		return v, nil
	case map[string]any:
		return v, nil
	}
	return nil, fmt.Errorf("%w: unexpected result %T", ErrInvalidOperation, res)
}

// Create inserts one row.
func (m *ModelClient) Create(ctx context.Context, args operation.Args) (operation.Record, error) {
	return m.record(ctx, operation.Create, args)
}

// CreateMany inserts every row in data.
func (m *ModelClient) CreateMany(ctx context.Context, args operation.Args) (operation.BatchResult, error) {
	return m.batch(ctx, operation.CreateMany, args)
}

// FindUnique returns the row matching a unique where, or nil.
func (m *ModelClient) FindUnique(ctx context.Context, args operation.Args) (operation.Record, error) {
	return m.record(ctx, operation.FindUnique, args)
}

// FindUniqueOrThrow is FindUnique failing with store.ErrRecordNotFound.
func (m *ModelClient) FindUniqueOrThrow(ctx context.Context, args operation.Args) (operation.Record, error) {
	return m.record(ctx, operation.FindUniqueOrThrow, args)
}

// FindFirst returns the first matching row, or nil.
func (m *ModelClient) FindFirst(ctx context.Context, args operation.Args) (operation.Record, error) {
	return m.record(ctx, operation.FindFirst, args)
}

// FindFirstOrThrow is FindFirst failing with store.ErrRecordNotFound.
func (m *ModelClient) FindFirstOrThrow(ctx context.Context, args operation.Args) (operation.Record, error) {
	return m.record(ctx, operation.FindFirstOrThrow, args)
}

// FindMany returns every matching row.
func (m *ModelClient) FindMany(ctx context.Context, args operation.Args) ([]operation.Record, error) {
	return m.records(ctx, operation.FindMany, args)
}

// Update modifies the row matching a unique where.
func (m *ModelClient) Update(ctx context.Context, args operation.Args) (operation.Record, error) {
	return m.record(ctx, operation.Update, args)
}

// UpdateMany modifies every matching row.
func (m *ModelClient) UpdateMany(ctx context.Context, args operation.Args) (operation.BatchResult, error) {
	return m.batch(ctx, operation.UpdateMany, args)
}

// Upsert updates the row matching a unique where, or creates it.
func (m *ModelClient) Upsert(ctx context.Context, args operation.Args) (operation.Record, error) {
	return m.record(ctx, operation.Upsert, args)
}

// Delete removes the row matching a unique where.
func (m *ModelClient) Delete(ctx context.Context, args operation.Args) (operation.Record, error) {
	return m.record(ctx, operation.Delete, args)
}

// DeleteMany removes every matching row.
func (m *ModelClient) DeleteMany(ctx context.Context, args operation.Args) (operation.BatchResult, error) {
	return m.batch(ctx, operation.DeleteMany, args)
}

// Count returns the number of matching rows.
func (m *ModelClient) Count(ctx context.Context, args operation.Args) (int64, error) {
	res, err := m.run(ctx, operation.Count, args)
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	}
	return 0, fmt.Errorf("%w: %s.count returned %T; use Execute for counts with select", ErrInvalidOperation, m.model, res)
}

// Aggregate computes _count, _sum, _avg, _min and _max over matching rows.
func (m *ModelClient) Aggregate(ctx context.Context, args operation.Args) (operation.Record, error) {
	return m.record(ctx, operation.Aggregate, args)
}

// GroupBy aggregates matching rows per distinct combination of "by" fields.
func (m *ModelClient) GroupBy(ctx context.Context, args operation.Args) ([]operation.Record, error) {
	return m.records(ctx, operation.GroupBy, args)
}
