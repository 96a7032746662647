// Package dispatch routes commands and queries to the single handler bound for their runtime type.
//
// A Mediator owns the registry, the middleware chain, the resolution boundary and the optional
// outcome journal. CommandDispatcher and QueryDispatcher are thin facades over it:
//
//	m, err := dispatch.New(reg, dispatch.WithLogger(logger))
//	cmds := dispatch.NewCommandDispatcher(m)
//	id, err := dispatch.ExecuteWithResult[int](ctx, cmds, CreateUser{Name: "Ada"})
//
// Every call begins a fresh Scope and releases it before returning, so handlers are never
// shared across dispatches unless their provider chooses to share them.
package dispatch
