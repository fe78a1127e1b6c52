package common

import "context"

type ctxKey string

const operatorKey ctxKey = "auth/operator"

// Operator identifies the authenticated staff member handling the call.
type Operator struct {
	ID    string
	Email string
	Name  string
}

// WithOperator stores the authenticated operator on the provided context.
func WithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, operatorKey, op)
}

// OperatorFrom extracts the authenticated operator from the context if present.
func OperatorFrom(ctx context.Context) (Operator, bool) {
	v := ctx.Value(operatorKey)
	if v == nil {
		return Operator{}, false
	}
	op, ok := v.(Operator)
	return op, ok
}
