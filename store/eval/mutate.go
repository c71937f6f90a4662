package eval

import (
	"fmt"

	"github.com/lawclick/tenantguard/operation"
	"github.com/lawclick/tenantguard/store"
)

// Update operators accepted as a field value in a write payload.
const (
	OpSet       = "set"
	OpIncrement = "increment"
	OpDecrement = "decrement"
	OpMultiply  = "multiply"
	OpDivide    = "divide"
)

func updateOp(v any) (string, any, bool) {
	m := operation.AsMap(v)
	if len(m) != 1 {
		return "", nil, false
	}
	for op, arg := range m {
		switch op {
		case OpSet, OpIncrement, OpDecrement, OpMultiply, OpDivide:
			return op, arg, true
		}
	}
	return "", nil, false
}

// Apply writes data into rec. Scalar values and {set: v} replace the field;
// increment, decrement, multiply and divide require numeric operands.
// Any other map is stored as a JSON value.
func Apply(rec, data map[string]any) error {
	for field, v := range data {
		op, arg, ok := updateOp(v)
		if !ok {
			rec[field] = Copy(v)
			continue
		}
		if op == OpSet {
			rec[field] = Copy(arg)
			continue
		}
		next, err := arithmetic(op, rec[field], arg)
		if err != nil {
			return fmt.Errorf("%w: %s.%s: %w", store.ErrInvalidArgs, field, op, err)
		}
		rec[field] = next
	}
	return nil
}

func arithmetic(op string, current, operand any) (any, error) {
	if current == nil {
		current = int64(0)
	}
	cf, ci, cInt, ok := toNumber(current)
	if !ok {
		return nil, fmt.Errorf("field holds %T, not a number", current)
	}
	of, oi, oInt, ok := toNumber(operand)
	if !ok {
		return nil, fmt.Errorf("operand %T is not a number", operand)
	}
	if op == OpDivide && of == 0 {
		return nil, fmt.Errorf("division by zero")
	}

	if cInt && oInt && op != OpDivide {
		switch op {
		case OpIncrement:
			return ci + oi, nil
		case OpDecrement:
			return ci - oi, nil
		default:
			return ci * oi, nil
		}
	}
	switch op {
	case OpIncrement:
		return cf + of, nil
	case OpDecrement:
		return cf - of, nil
	case OpMultiply:
		return cf * of, nil
	default:
		if cInt && oInt && ci%oi == 0 {
			return ci / oi, nil
		}
		return cf / of, nil
	}
}

// NewRecord builds a row from a create payload. Update operators other than
// set are rejected since there is no prior value to apply them to.
func NewRecord(data map[string]any) (map[string]any, error) {
	rec := make(map[string]any, len(data)+1)
	for field, v := range data {
		op, arg, ok := updateOp(v)
		switch {
		case !ok:
			rec[field] = Copy(v)
		case op == OpSet:
			rec[field] = Copy(arg)
		default:
			return nil, fmt.Errorf("%w: %s.%s is not allowed in create", store.ErrInvalidArgs, field, op)
		}
	}
	return rec, nil
}
