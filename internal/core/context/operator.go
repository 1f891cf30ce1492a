// Package context carries request-scoped values: the operator working the
// terminal and the trace ids of the request.
package context

import (
	"context"
	"slices"
)

// Operator is the authenticated staff member behind a request. Role is the
// role name (admin, cashier, stock_worker); Permissions are derived from it
// when the token is validated.
type Operator struct {
	UserID      string
	Name        string
	Role        string
	Permissions []string
}

// Can reports whether the operator holds perm or the wildcard.
func (o *Operator) Can(perm string) bool {
	return slices.Contains(o.Permissions, "*") || slices.Contains(o.Permissions, perm)
}

// LogFields identifies the operator in log entries.
func (o *Operator) LogFields() []any {
	return []any{"operator_id", o.UserID, "operator_role", o.Role}
}

type operatorKey struct{}

func WithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

// GetOperator returns the operator of ctx, or nil for unauthenticated and
// system work.
func GetOperator(ctx context.Context) *Operator {
	if v, ok := ctx.Value(operatorKey{}).(*Operator); ok {
		return v
	}
	return nil
}

// OperatorID returns the operator's user id or "".
func OperatorID(ctx context.Context) string {
	if op := GetOperator(ctx); op != nil {
		return op.UserID
	}
	return ""
}

func HasPermission(ctx context.Context, perm string) bool {
	op := GetOperator(ctx)
	return op != nil && op.Can(perm)
}
