// Package operation defines the in-flight descriptor of a single data-access
// call: the model it targets, the action it performs, and its argument tree.
//
// Descriptors are built by callers, copied and possibly rewritten by the
// tenant guard, consumed by a store, then discarded. They are never persisted.
package operation

import "fmt"

// Action names one kind of data-access call. The set mirrors the query
// surface of an ORM client.
type Action string

const (
	Create            Action = "create"
	CreateMany        Action = "createMany"
	FindUnique        Action = "findUnique"
	FindUniqueOrThrow Action = "findUniqueOrThrow"
	FindFirst         Action = "findFirst"
	FindFirstOrThrow  Action = "findFirstOrThrow"
	FindMany          Action = "findMany"
	Update            Action = "update"
	UpdateMany        Action = "updateMany"
	Upsert            Action = "upsert"
	Delete            Action = "delete"
	DeleteMany        Action = "deleteMany"
	Count             Action = "count"
	Aggregate         Action = "aggregate"
	GroupBy           Action = "groupBy"
)

// Actions lists every supported action in a stable order.
var Actions = []Action{
	Create, CreateMany,
	FindUnique, FindUniqueOrThrow, FindFirst, FindFirstOrThrow, FindMany,
	Update, UpdateMany, Upsert,
	Delete, DeleteMany,
	Count, Aggregate, GroupBy,
}

// Valid reports whether a is one of the supported actions.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// IsPointLookup reports whether a addresses a single row through a unique
// where clause. These actions cannot be auto-scoped by merging filters.
func (a Action) IsPointLookup() bool {
	switch a {
	case FindUnique, FindUniqueOrThrow, Update, Delete, Upsert:
		return true
	}
	return false
}

// FiltersRows reports whether a takes a bulk where clause that can be
// narrowed by merging an extra predicate.
func (a Action) FiltersRows() bool {
	switch a {
	case FindMany, FindFirst, FindFirstOrThrow, Count, Aggregate, GroupBy, UpdateMany, DeleteMany:
		return true
	}
	return false
}

// WritesData reports whether a carries a write payload under "data".
func (a Action) WritesData() bool {
	switch a {
	case Create, CreateMany, Update, UpdateMany:
		return true
	}
	return false
}

// Mutates reports whether a writes rows.
func (a Action) Mutates() bool {
	switch a {
	case Create, CreateMany, Update, UpdateMany, Upsert, Delete, DeleteMany:
		return true
	}
	return false
}

// Well-known argument keys.
const (
	KeyWhere   = "where"
	KeyData    = "data"
	KeyCreate  = "create"
	KeyUpdate  = "update"
	KeySelect  = "select"
	KeyOrderBy = "orderBy"
	KeyTake    = "take"
	KeySkip    = "skip"
	KeyBy      = "by"
	KeyCount   = "_count"
	KeySum     = "_sum"
	KeyAvg     = "_avg"
	KeyMin     = "_min"
	KeyMax     = "_max"

	// KeyTenantID is the attribute that carries a row's tenant identifier.
	KeyTenantID = "tenantId"

	// KeyID is the attribute that uniquely identifies a row within a model.
	KeyID = "id"
)

// Args is the generic argument tree of an operation. Values are maps
// (map[string]any), lists ([]any or []map[string]any) and scalars.
type Args map[string]any

// Clone returns a shallow copy of a. Nested values are shared.
func (a Args) Clone() Args {
	if a == nil {
		return Args{}
	}
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Where returns the where clause as a map, or nil.
func (a Args) Where() map[string]any { return AsMap(a[KeyWhere]) }

// Record is one row as seen by the store: attribute name to value.
type Record map[string]any

// BatchResult is returned by createMany, updateMany and deleteMany.
type BatchResult struct {
	Count int64 `json:"count"`
}

// Operation describes one data-access call.
type Operation struct {
	Model  string `json:"model"`
	Action Action `json:"action"`
	Args   Args   `json:"args,omitempty"`
}

// New builds an operation. A nil args is replaced by an empty bag.
func New(model string, action Action, args Args) *Operation {
	if args == nil {
		args = Args{}
	}
	return &Operation{Model: model, Action: action, Args: args}
}

// Clone returns a copy of op whose top-level argument bag can be rewritten
// without affecting the caller's.
func (op *Operation) Clone() *Operation {
	return &Operation{Model: op.Model, Action: op.Action, Args: op.Args.Clone()}
}

// String renders the operation as "Model.action".
func (op *Operation) String() string {
	return fmt.Sprintf("%s.%s", op.Model, op.Action)
}

// AsMap returns v as a map[string]any when it is one (including Args and
// Record), or nil.
func AsMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case Args:
		return m
	case Record:
		return m
	}
	return nil
}

// AsList returns v as a []any when it is a list of values or of maps, or nil.
func AsList(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case []map[string]any:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out
	case []Record:
		out := make([]any, len(l))
		for i := range l {
			out[i] = map[string]any(l[i])
		}
		return out
	case []string:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out
	}
	return nil
}
