// Package memory wires a ready-to-use mediator with an in-memory outcome journal for tests and examples.
package memory

import (
	"github.com/next-trace/scg-cqrs/adapters/inmemory"
	"github.com/next-trace/scg-cqrs/dispatch"
	"github.com/next-trace/scg-cqrs/registry"
)

// Mediator bundles the dispatchers with the journal recording their outcomes.
type Mediator struct {
	*dispatch.Mediator

	Commands *dispatch.CommandDispatcher
	Queries  *dispatch.QueryDispatcher
	Journal  *inmemory.Journal
}

// New builds the registry from regs and returns a Mediator with panic recovery enabled.
// Extra options are applied after the defaults.
func New(regs []registry.Registration, opts ...dispatch.Option) (*Mediator, error) {
	reg, err := registry.Build(regs...)
	if err != nil {
		return nil, err
	}

	journal := inmemory.New()
	defaults := []dispatch.Option{
		dispatch.WithOutcomePublisher(journal),
		dispatch.WithMiddleware(dispatch.Recovery()),
	}

	m, err := dispatch.New(reg, append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}

	return &Mediator{
		Mediator: m,
		Commands: dispatch.NewCommandDispatcher(m),
		Queries:  dispatch.NewQueryDispatcher(m),
		Journal:  journal,
	}, nil
}
