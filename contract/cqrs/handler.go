package cqrs

import "context"

// CommandHandler handles commands of type C.
type CommandHandler[C Command] interface {
	Handle(ctx context.Context, c C) error
}

// CommandWithResultHandler handles commands of type C and returns a result of type R.
type CommandWithResultHandler[C CommandWithResult[R], R any] interface {
	Handle(ctx context.Context, c C) (R, error)
}

// QueryHandler handles queries of type Q and returns a result of type R.
type QueryHandler[Q Query[R], R any] interface {
	Handle(ctx context.Context, q Q) (R, error)
}

// CommandHandlerFunc adapts a function to CommandHandler.
type CommandHandlerFunc[C Command] func(ctx context.Context, c C) error

func (f CommandHandlerFunc[C]) Handle(ctx context.Context, c C) error { return f(ctx, c) }

// CommandWithResultHandlerFunc adapts a function to CommandWithResultHandler.
type CommandWithResultHandlerFunc[C CommandWithResult[R], R any] func(ctx context.Context, c C) (R, error)

func (f CommandWithResultHandlerFunc[C, R]) Handle(ctx context.Context, c C) (R, error) {
	return f(ctx, c)
}

// QueryHandlerFunc adapts a function to QueryHandler.
type QueryHandlerFunc[Q Query[R], R any] func(ctx context.Context, q Q) (R, error)

func (f QueryHandlerFunc[Q, R]) Handle(ctx context.Context, q Q) (R, error) { return f(ctx, q) }
