package cqrs

import "context"

// Scope is the resolution context of a single dispatch. Handler providers construct handlers
// and their dependencies inside it; the dispatcher releases it when the call completes.
type Scope interface {
	Release() error
}

// Scopes begins a Scope per dispatch. Implementations must be safe for concurrent use.
type Scopes interface {
	Begin(ctx context.Context) (Scope, error)
}

// NopScopes hands out scopes that own nothing. Used when no container is configured.
type NopScopes struct{}

func (NopScopes) Begin(context.Context) (Scope, error) { return nopScope{}, nil }

type nopScope struct{}

func (nopScope) Release() error { return nil }
