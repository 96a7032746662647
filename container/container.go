// Package container is a small scoped service container that implements the resolution
// boundary of the dispatcher: every dispatch begins a Scope, services constructed in it live
// until the dispatch completes, and closers are released with the scope.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
	"github.com/next-trace/scg-cqrs/registry"
)

type entry struct {
	ctor  func(ctx context.Context, s *Scope) (any, error)
	owned bool // closed with the scope
}

// Container holds service constructors. Register everything before the first Begin.
type Container struct {
	mu      sync.RWMutex
	entries map[reflect.Type]entry
}

var _ cqrs.Scopes = (*Container)(nil)

// New returns an empty Container.
func New() *Container {
	return &Container{entries: make(map[reflect.Type]entry)}
}

// Provide registers a scoped constructor for T: it runs at most once per scope, and the
// instance is closed on Release if it implements io.Closer.
func Provide[T any](c *Container, ctor func(ctx context.Context, s *Scope) (T, error)) error {
	if ctor == nil {
		return fmt.Errorf("provide %s: nil constructor: %w", reflect.TypeFor[T](), berr.ErrInvalidBinding)
	}

	return c.add(reflect.TypeFor[T](), entry{
		ctor:  func(ctx context.Context, s *Scope) (any, error) { return ctor(ctx, s) },
		owned: true,
	})
}

// Instance registers v as a shared instance of T. The container never closes it.
func Instance[T any](c *Container, v T) error {
	return c.add(reflect.TypeFor[T](), entry{
		ctor: func(context.Context, *Scope) (any, error) { return v, nil },
	})
}

func (c *Container) add(t reflect.Type, e entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[t]; exists {
		return fmt.Errorf("provide %s: %w", t, berr.ErrServiceExists)
	}

	c.entries[t] = e

	return nil
}

func (c *Container) lookup(t reflect.Type) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[t]

	return e, ok
}

// Begin starts a new Scope.
func (c *Container) Begin(ctx context.Context) (cqrs.Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Scope{c: c, instances: make(map[reflect.Type]any)}, nil
}

// Scope caches the services constructed during one dispatch.
type Scope struct {
	c *Container

	mu        sync.Mutex
	instances map[reflect.Type]any
	closers   []io.Closer
	released  bool
}

// Resolve returns the instance of T for scope s, constructing it on first use.
func Resolve[T any](ctx context.Context, s cqrs.Scope) (T, error) {
	var zero T

	t := reflect.TypeFor[T]()

	sc, ok := s.(*Scope)
	if !ok {
		return zero, fmt.Errorf("resolve %s: %T is not a container scope: %w", t, s, berr.ErrServiceNotProvided)
	}

	v, err := sc.get(ctx, t)
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("resolve %s: constructed %T: %w", t, v, berr.ErrServiceNotProvided)
	}

	return typed, nil
}

// From returns a handler Provider that resolves H from the dispatch scope.
func From[H any]() registry.Provider[H] {
	return func(ctx context.Context, s cqrs.Scope) (H, error) { return Resolve[H](ctx, s) }
}

func (s *Scope) get(ctx context.Context, t reflect.Type) (any, error) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil, fmt.Errorf("resolve %s: %w", t, berr.ErrScopeReleased)
	}

	if v, ok := s.instances[t]; ok {
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	e, ok := s.c.lookup(t)
	if !ok {
		return nil, fmt.Errorf("resolve %s: %w", t, berr.ErrServiceNotProvided)
	}

	// constructors may resolve other services, so the lock is not held here
	v, err := e.ctor(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", t, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.instances[t]; ok {
		closeOwned(e, v)
		return prev, nil
	}

	if s.released {
		closeOwned(e, v)
		return nil, fmt.Errorf("resolve %s: %w", t, berr.ErrScopeReleased)
	}

	s.instances[t] = v
	if c, ok := v.(io.Closer); ok && e.owned {
		s.closers = append(s.closers, c)
	}

	return v, nil
}

func closeOwned(e entry, v any) {
	if c, ok := v.(io.Closer); ok && e.owned {
		_ = c.Close()
	}
}

// Release closes owned instances in reverse construction order. Calling it again is a no-op.
func (s *Scope) Release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}

	s.released = true
	closers := s.closers
	s.closers = nil
	s.instances = nil
	s.mu.Unlock()

	var errs []error

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
