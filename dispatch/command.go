package dispatch

import (
	"context"
	"errors"
	"reflect"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
)

// CommandDispatcher executes commands through a Mediator.
type CommandDispatcher struct{ m *Mediator }

// NewCommandDispatcher constructs a CommandDispatcher over m.
func NewCommandDispatcher(m *Mediator) *CommandDispatcher { return &CommandDispatcher{m: m} }

// Execute routes cmd to the handler bound for its runtime type and returns the handler's error
// unchanged. Core failures wrap ErrInvalidMessage, ErrHandlerNotFound or ErrInvocationFailed.
func (d *CommandDispatcher) Execute(ctx context.Context, cmd cqrs.Command) error {
	_, err := d.m.dispatch(ctx, cqrs.KindCommand, cmd, nil)
	return err
}

// ExecuteWithResult routes cmd to its handler and returns the produced result.
// cmd may be held as an interface; resolution uses its runtime type.
func ExecuteWithResult[R any](ctx context.Context, d *CommandDispatcher, cmd cqrs.CommandWithResult[R]) (R, error) {
	return result[R](d.m.dispatch(ctx, cqrs.KindCommandWithResult, cmd, reflect.TypeFor[R]()))
}

// Chain executes commands in order and stops on the first error.
func (d *CommandDispatcher) Chain(ctx context.Context, cmds ...cqrs.Command) error {
	for _, c := range cmds {
		if err := d.Execute(ctx, c); err != nil {
			return err
		}
	}

	return nil
}

// BatchOptions controls Batch execution behavior.
// OnProgress is called after each command completes (success or failure) with done and total.
// OnError is called when a command returns an error with its index, the command value, and the error.
type BatchOptions struct {
	OnProgress func(done, total int)
	OnError    func(index int, cmd cqrs.Command, err error)
}

// BatchOpt configures BatchOptions.
type BatchOpt func(*BatchOptions)

// WithBatchProgress sets the progress callback.
func WithBatchProgress(fn func(done, total int)) BatchOpt {
	return func(o *BatchOptions) { o.OnProgress = fn }
}

// WithBatchOnError sets the error callback.
func WithBatchOnError(fn func(index int, cmd cqrs.Command, err error)) BatchOpt {
	return func(o *BatchOptions) { o.OnError = fn }
}

// Batch executes every command sequentially and joins the errors. It stops early only when ctx is done.
func (d *CommandDispatcher) Batch(ctx context.Context, cmds []cqrs.Command, opts ...BatchOpt) error {
	var o BatchOptions
	for _, f := range opts {
		f(&o)
	}

	total := len(cmds)

	var errs []error

	for i, c := range cmds {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		if err := d.Execute(ctx, c); err != nil {
			if o.OnError != nil {
				o.OnError(i, c, err)
			}

			errs = append(errs, err)
		}

		if o.OnProgress != nil {
			o.OnProgress(i+1, total)
		}
	}

	return errors.Join(errs...)
}
