package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
)

// Key identifies a binding.
type Key struct {
	Kind        cqrs.Kind
	MessageType reflect.Type
}

// Binding links a message type to the invocation of its handler.
// ResultType is nil for commands and for untyped result-bearing registrations.
type Binding struct {
	Kind        cqrs.Kind
	MessageType reflect.Type
	ResultType  reflect.Type
	Handler     string

	invoke Invoker
}

// Invoke runs the bound handler for msg inside scope s.
func (b Binding) Invoke(ctx context.Context, s cqrs.Scope, msg any) (any, error) {
	return b.invoke(ctx, s, msg)
}

// Registry is the immutable binding index. It is safe for concurrent use once built.
type Registry struct {
	bindings map[Key]Binding
}

// Builder collects registrations, typically from several modules of the composition root.
type Builder struct {
	regs []Registration
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// Add appends registrations.
func (b *Builder) Add(regs ...Registration) *Builder {
	b.regs = append(b.regs, regs...)
	return b
}

// Build indexes the collected registrations. Every invalid or duplicate registration is
// reported; the errors are joined.
func (b *Builder) Build() (*Registry, error) {
	bindings := make(map[Key]Binding, len(b.regs))

	var errs []error

	for i, r := range b.regs {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}

		if r.binding.invoke == nil {
			errs = append(errs, fmt.Errorf("bind #%d: empty registration: %w", i, berr.ErrInvalidBinding))
			continue
		}

		k := Key{Kind: r.binding.Kind, MessageType: r.binding.MessageType}
		if _, exists := bindings[k]; exists {
			errs = append(errs, fmt.Errorf("bind %s %s: %w", k.Kind, cqrs.TypeName(k.MessageType), berr.ErrHandlerExists))
			continue
		}

		bindings[k] = r.binding
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Registry{bindings: bindings}, nil
}

// Build is shorthand for NewBuilder().Add(regs...).Build().
func Build(regs ...Registration) (*Registry, error) {
	return NewBuilder().Add(regs...).Build()
}

// Resolve looks up the binding for kind and the runtime message type t.
func (r *Registry) Resolve(kind cqrs.Kind, t reflect.Type) (Binding, bool) {
	b, ok := r.bindings[Key{Kind: kind, MessageType: t}]
	return b, ok
}

// Len returns the number of bindings.
func (r *Registry) Len() int { return len(r.bindings) }

// Bindings lists all bindings ordered by kind, then message name.
func (r *Registry) Bindings() []Binding {
	out := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}

		return out[i].MessageType.String() < out[j].MessageType.String()
	})

	return out
}
