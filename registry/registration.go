package registry

import (
	"context"
	"fmt"
	"reflect"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
)

// Provider constructs a handler of type H inside the resolution scope of one dispatch.
type Provider[H any] func(ctx context.Context, s cqrs.Scope) (H, error)

// Transient returns a Provider that builds a fresh handler for every dispatch.
func Transient[H any](ctor func() H) Provider[H] {
	if ctor == nil {
		return nil
	}

	return func(context.Context, cqrs.Scope) (H, error) { return ctor(), nil }
}

// Singleton returns a Provider that hands out h on every dispatch.
// h must be safe for concurrent use by multiple goroutines.
func Singleton[H any](h H) Provider[H] {
	return func(context.Context, cqrs.Scope) (H, error) { return h, nil }
}

// Invoker is the pre-typed call stored in a Binding.
type Invoker func(ctx context.Context, s cqrs.Scope, msg any) (any, error)

// Registration is one binding waiting to be indexed by Build.
// Construction problems are carried along and reported by Build.
type Registration struct {
	binding Binding
	err     error
}

// Command registers a handler for command type C.
func Command[C cqrs.Command, H cqrs.CommandHandler[C]](p Provider[H]) Registration {
	return CommandMethod(p, H.Handle)
}

// CommandWithResult registers a handler for command type C producing R.
func CommandWithResult[C cqrs.CommandWithResult[R], R any, H cqrs.CommandWithResultHandler[C, R]](p Provider[H]) Registration {
	return CommandWithResultMethod(p, H.Handle)
}

// Query registers a handler for query type Q producing R.
func Query[Q cqrs.Query[R], R any, H cqrs.QueryHandler[Q, R]](p Provider[H]) Registration {
	return QueryMethod(p, H.Handle)
}

// CommandMethod registers method m of handler type H for command type C. Use it with method
// expressions when one type handles several commands:
//
//	registry.CommandMethod(p, (*Accounts).Open)
func CommandMethod[H any, C cqrs.Command](p Provider[H], m func(H, context.Context, C) error) Registration {
	t := reflect.TypeFor[C]()
	if err := validate(cqrs.KindCommand, t, p == nil, m == nil); err != nil {
		return Registration{err: err}
	}

	call := func(ctx context.Context, s cqrs.Scope, msg any) (any, error) {
		c, ok := msg.(C)
		if !ok {
			return nil, mismatch(cqrs.KindCommand, t, msg)
		}

		h, err := provide(ctx, s, p, cqrs.KindCommand, t)
		if err != nil {
			return nil, err
		}

		return nil, m(h, ctx, c)
	}

	return Registration{binding: Binding{
		Kind:        cqrs.KindCommand,
		MessageType: t,
		Handler:     cqrs.TypeName(reflect.TypeFor[H]()),
		invoke:      call,
	}}
}

// CommandWithResultMethod registers method m of handler type H for command type C producing R.
func CommandWithResultMethod[H any, C cqrs.CommandWithResult[R], R any](
	p Provider[H],
	m func(H, context.Context, C) (R, error),
) Registration {
	return resultMethod(cqrs.KindCommandWithResult, p, m)
}

// QueryMethod registers method m of handler type H for query type Q producing R.
func QueryMethod[H any, Q cqrs.Query[R], R any](p Provider[H], m func(H, context.Context, Q) (R, error)) Registration {
	return resultMethod(cqrs.KindQuery, p, m)
}

func resultMethod[H, M, R any](kind cqrs.Kind, p Provider[H], m func(H, context.Context, M) (R, error)) Registration {
	t := reflect.TypeFor[M]()
	if err := validate(kind, t, p == nil, m == nil); err != nil {
		return Registration{err: err}
	}

	call := func(ctx context.Context, s cqrs.Scope, msg any) (any, error) {
		v, ok := msg.(M)
		if !ok {
			return nil, mismatch(kind, t, msg)
		}

		h, err := provide(ctx, s, p, kind, t)
		if err != nil {
			return nil, err
		}

		r, err := m(h, ctx, v)
		if err != nil {
			return nil, err
		}

		return r, nil
	}

	return Registration{binding: Binding{
		Kind:        kind,
		MessageType: t,
		ResultType:  reflect.TypeFor[R](),
		Handler:     cqrs.TypeName(reflect.TypeFor[H]()),
		invoke:      call,
	}}
}

// CommandOf registers an untyped handler for the runtime type of sample.
func CommandOf(sample any, fn func(ctx context.Context, cmd any) error) Registration {
	if fn == nil {
		return untyped(cqrs.KindCommand, sample, nil)
	}

	return untyped(cqrs.KindCommand, sample, func(ctx context.Context, v any) (any, error) {
		return nil, fn(ctx, v)
	})
}

// CommandWithResultOf registers an untyped result-bearing command handler for the runtime type of sample.
// The result type is not known up front; the dispatcher checks it after the call.
func CommandWithResultOf(sample any, fn func(ctx context.Context, cmd any) (any, error)) Registration {
	return untyped(cqrs.KindCommandWithResult, sample, fn)
}

// QueryOf registers an untyped query handler for the runtime type of sample.
func QueryOf(sample any, fn func(ctx context.Context, q any) (any, error)) Registration {
	return untyped(cqrs.KindQuery, sample, fn)
}

func untyped(kind cqrs.Kind, sample any, fn func(ctx context.Context, v any) (any, error)) Registration {
	t := reflect.TypeOf(sample)
	if err := validate(kind, t, false, fn == nil); err != nil {
		return Registration{err: err}
	}

	call := func(ctx context.Context, _ cqrs.Scope, msg any) (any, error) {
		if reflect.TypeOf(msg) != t {
			return nil, mismatch(kind, t, msg)
		}

		return fn(ctx, msg)
	}

	return Registration{binding: Binding{
		Kind:        kind,
		MessageType: t,
		Handler:     "func",
		invoke:      call,
	}}
}

func validate(kind cqrs.Kind, t reflect.Type, nilProvider, nilHandler bool) error {
	switch {
	case t == nil:
		return fmt.Errorf("bind %s: nil message type: %w", kind, berr.ErrInvalidBinding)
	case t.Kind() == reflect.Interface:
		return fmt.Errorf("bind %s %s: message type is an interface: %w", kind, t, berr.ErrInvalidBinding)
	case nilProvider:
		return fmt.Errorf("bind %s %s: nil provider: %w", kind, cqrs.TypeName(t), berr.ErrInvalidBinding)
	case nilHandler:
		return fmt.Errorf("bind %s %s: nil handler: %w", kind, cqrs.TypeName(t), berr.ErrInvalidBinding)
	}

	return nil
}

func provide[H any](ctx context.Context, s cqrs.Scope, p Provider[H], kind cqrs.Kind, t reflect.Type) (H, error) {
	h, err := p(ctx, s)
	if err != nil {
		return h, fmt.Errorf("%w: resolve %s handler for %s: %w", berr.ErrInvocationFailed, kind, cqrs.TypeName(t), err)
	}

	if cqrs.IsNil(h) {
		return h, fmt.Errorf("resolve %s handler for %s: provider returned nil: %w", kind, cqrs.TypeName(t), berr.ErrInvocationFailed)
	}

	return h, nil
}

func mismatch(kind cqrs.Kind, t reflect.Type, msg any) error {
	return fmt.Errorf("invoke %s %s with %T: %w", kind, cqrs.TypeName(t), msg, berr.ErrInvocationFailed)
}
