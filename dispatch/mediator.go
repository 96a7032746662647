package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
	"github.com/next-trace/scg-cqrs/registry"
)

// HandlerFunc is one step of the dispatch pipeline. The innermost step invokes the bound handler.
type HandlerFunc func(ctx context.Context, msg any) (any, error)

// Middleware wraps dispatch execution. The first registered middleware runs outermost.
type Middleware func(next HandlerFunc) HandlerFunc

// Option configures a Mediator.
type Option func(*Mediator)

// WithLogger sets the logger used for scope and journal failures. nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mediator) { m.logger = l }
}

// WithMiddleware appends middleware to the chain.
func WithMiddleware(mw ...Middleware) Option {
	return func(m *Mediator) { m.mws = append(m.mws, mw...) }
}

// WithScopes sets the resolution boundary. Without it every dispatch gets an empty scope.
func WithScopes(s cqrs.Scopes) Option {
	return func(m *Mediator) { m.scopes = s }
}

// WithOutcomePublisher records the Outcome of every dispatch to p.
func WithOutcomePublisher(p cqrs.OutcomePublisher) Option {
	return func(m *Mediator) { m.journal = p }
}

// WithIDGenerator overrides the dispatch id generator (uuid.NewString by default).
func WithIDGenerator(fn func() string) Option {
	return func(m *Mediator) { m.newID = fn }
}

// Mediator is the dispatch core shared by CommandDispatcher and QueryDispatcher.
// It holds no mutable state after New and is safe for concurrent use.
type Mediator struct {
	reg     *registry.Registry
	scopes  cqrs.Scopes
	mws     []Middleware
	journal cqrs.OutcomePublisher
	newID   func() string
	logger  *slog.Logger
}

// New constructs a Mediator over a built registry.
func New(reg *registry.Registry, opts ...Option) (*Mediator, error) {
	if reg == nil {
		return nil, fmt.Errorf("new mediator: nil registry: %w", berr.ErrInvalidBinding)
	}

	m := &Mediator{reg: reg}
	for _, opt := range opts {
		opt(m)
	}

	if m.scopes == nil {
		m.scopes = cqrs.NopScopes{}
	}

	if m.newID == nil {
		m.newID = uuid.NewString
	}

	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return m, nil
}

// Registry returns the registry the Mediator dispatches against.
func (m *Mediator) Registry() *registry.Registry { return m.reg }

// dispatch runs msg through the pipeline and records the outcome. want is the result type the
// caller expects, nil for plain commands.
func (m *Mediator) dispatch(ctx context.Context, kind cqrs.Kind, msg any, want reflect.Type) (any, error) {
	info := Info{
		ID:        m.newID(),
		Kind:      kind,
		Message:   cqrs.MessageName(msg),
		StartedAt: time.Now(),
	}

	res, err := m.run(ctx, info, msg, want)
	m.record(ctx, info, err)

	return res, err
}

func (m *Mediator) run(ctx context.Context, info Info, msg any, want reflect.Type) (any, error) {
	op := opName(info.Kind)

	if cqrs.IsNil(msg) {
		return nil, fmt.Errorf("%s %s: %w", op, info.Message, berr.ErrInvalidMessage)
	}

	t := reflect.TypeOf(msg)

	b, ok := m.reg.Resolve(info.Kind, t)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", op, t, berr.ErrHandlerNotFound)
	}

	if want != nil && b.ResultType != nil && b.ResultType != want {
		return nil, fmt.Errorf("%s %s: handler %s produces %s, caller expects %s: %w",
			op, info.Message, b.Handler, b.ResultType, want, berr.ErrInvocationFailed)
	}

	ctx = withInfo(ctx, info)

	scope, err := m.scopes.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: begin scope: %w", berr.ErrInvocationFailed, op, info.Message, err)
	}
	defer m.release(ctx, info, scope)

	next := HandlerFunc(func(ctx context.Context, msg any) (any, error) {
		res, err := b.Invoke(ctx, scope, msg)
		if err != nil {
			return nil, err
		}

		if want != nil && !conforms(res, want) {
			return nil, fmt.Errorf("%s %s: handler %s returned %T, caller expects %s: %w",
				op, info.Message, b.Handler, res, want, berr.ErrInvocationFailed)
		}

		return res, nil
	})

	for i := len(m.mws) - 1; i >= 0; i-- {
		next = m.mws[i](next)
	}

	return next(ctx, msg)
}

func (m *Mediator) release(ctx context.Context, info Info, scope cqrs.Scope) {
	if err := scope.Release(); err != nil {
		m.logger.WarnContext(ctx, "dispatch scope release failed",
			slog.String("message", info.Message),
			slog.String("kind", info.Kind.String()),
			slog.String("dispatch_id", info.ID),
			slog.String("error", err.Error()))
	}
}

func (m *Mediator) record(ctx context.Context, info Info, err error) {
	if m.journal == nil {
		return
	}

	o := cqrs.Outcome{
		ID:        info.ID,
		Kind:      info.Kind,
		Message:   info.Message,
		Status:    cqrs.StatusCompleted,
		StartedAt: info.StartedAt,
		Duration:  time.Since(info.StartedAt),
	}
	if err != nil {
		o.Status = cqrs.StatusFailed
		o.Code = berr.CodeOf(err)
		o.Error = err.Error()
	}

	// the caller may cancel right after a failure; the journal still gets the record
	if perr := m.journal.PublishOutcome(context.WithoutCancel(ctx), o); perr != nil {
		m.logger.WarnContext(ctx, "dispatch outcome not published",
			slog.String("message", info.Message),
			slog.String("kind", info.Kind.String()),
			slog.String("dispatch_id", info.ID),
			slog.String("error", perr.Error()))
	}
}

// conforms reports whether v can be returned as want. A nil result is only valid for interface results.
func conforms(v any, want reflect.Type) bool {
	if v == nil {
		return want.Kind() == reflect.Interface
	}

	return reflect.TypeOf(v).AssignableTo(want)
}

func opName(kind cqrs.Kind) string {
	if kind == cqrs.KindQuery {
		return "ask"
	}

	return "execute " + kind.String()
}

// result converts a boxed dispatch result to R.
func result[R any](res any, err error) (R, error) {
	var zero R
	if err != nil {
		return zero, err
	}

	if res == nil {
		return zero, nil
	}

	r, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("convert %T to %s: %w", res, reflect.TypeFor[R](), berr.ErrInvocationFailed)
	}

	return r, nil
}
