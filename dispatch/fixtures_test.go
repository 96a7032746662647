package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
	"github.com/next-trace/scg-cqrs/dispatch"
	"github.com/next-trace/scg-cqrs/registry"
)

var errEmptyName = errors.New("name is required")

type createUser struct {
	cqrs.Returns[int]
	Name string
}

type createUserHandler struct{}

func (createUserHandler) Handle(_ context.Context, c createUser) (int, error) {
	if c.Name == "" {
		return 0, errEmptyName
	}

	return 100, nil
}

type getUserName struct {
	cqrs.Answers[string]
	ID int
}

type getUserNameHandler struct{}

func (getUserNameHandler) Handle(context.Context, getUserName) (string, error) {
	return "Houssam", nil
}

type firstCommand struct{}

type secondCommand struct{}

// multiHandler serves two command types and counts invocations per type.
type multiHandler struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMultiHandler() *multiHandler { return &multiHandler{counts: map[string]int{}} }

func (h *multiHandler) First(context.Context, firstCommand) error {
	h.inc("first")
	return nil
}

func (h *multiHandler) Second(context.Context, secondCommand) error {
	h.inc("second")
	return nil
}

func (h *multiHandler) inc(k string) {
	h.mu.Lock()
	h.counts[k]++
	h.mu.Unlock()
}

func (h *multiHandler) snapshot() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]int, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}

	return out
}

type echo struct {
	cqrs.Answers[int]
	N int
}

type renameUser struct{ Name string }

// unbound message types
type (
	dummyCommand           struct{}
	dummyCommandWithResult struct{ cqrs.Returns[int] }
	dummyQuery             struct{ cqrs.Answers[string] }
)

type fixture struct {
	multi *multiHandler
	cmds  *dispatch.CommandDispatcher
	qrys  *dispatch.QueryDispatcher
}

func newFixture(t *testing.T, opts ...dispatch.Option) fixture {
	t.Helper()

	multi := newMultiHandler()

	reg, err := registry.Build(
		registry.CommandWithResult[createUser, int](registry.Transient(func() createUserHandler { return createUserHandler{} })),
		registry.Query[getUserName, string](registry.Singleton(getUserNameHandler{})),
		registry.CommandMethod(registry.Singleton(multi), (*multiHandler).First),
		registry.CommandMethod(registry.Singleton(multi), (*multiHandler).Second),
		registry.Query[echo, int](registry.Singleton(cqrs.QueryHandlerFunc[echo, int](
			func(_ context.Context, q echo) (int, error) { return q.N, nil },
		))),
	)
	require.NoError(t, err)

	m, err := dispatch.New(reg, opts...)
	require.NoError(t, err)

	return fixture{
		multi: multi,
		cmds:  dispatch.NewCommandDispatcher(m),
		qrys:  dispatch.NewQueryDispatcher(m),
	}
}

func mediator(t *testing.T, regs []registry.Registration, opts ...dispatch.Option) *dispatch.Mediator {
	t.Helper()

	reg, err := registry.Build(regs...)
	require.NoError(t, err)

	m, err := dispatch.New(reg, opts...)
	require.NoError(t, err)

	return m
}
