package dispatch

import (
	"context"
	"reflect"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
)

// QueryDispatcher executes queries through a Mediator.
type QueryDispatcher struct{ m *Mediator }

// NewQueryDispatcher constructs a QueryDispatcher over m.
func NewQueryDispatcher(m *Mediator) *QueryDispatcher { return &QueryDispatcher{m: m} }

// ExecuteQuery routes q to the handler bound for its runtime type and returns the result.
// Queries are read-only by convention; nothing here enforces it.
func ExecuteQuery[R any](ctx context.Context, d *QueryDispatcher, q cqrs.Query[R]) (R, error) {
	return result[R](d.m.dispatch(ctx, cqrs.KindQuery, q, reflect.TypeFor[R]()))
}
