package registry_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
	"github.com/next-trace/scg-cqrs/registry"
)

type openAccount struct{ Owner string }

type closeAccount struct{ ID int }

type createAccount struct {
	cqrs.Returns[int]
	Owner string
}

type accountOwner struct {
	cqrs.Answers[string]
	ID int
}

type accounts struct{ opened, closed int }

func newAccounts() *accounts { return &accounts{} }

func (a *accounts) Open(ctx context.Context, c openAccount) error {
	a.opened++
	return nil
}

func (a *accounts) Close(ctx context.Context, c closeAccount) error {
	a.closed++
	return nil
}

func (a *accounts) Create(ctx context.Context, c createAccount) (int, error) { return 7, nil }

type ownerHandler struct{}

func (ownerHandler) Handle(ctx context.Context, q accountOwner) (string, error) {
	return fmt.Sprintf("owner-%d", q.ID), nil
}

type openHandler struct{ seen *[]string }

func (h openHandler) Handle(ctx context.Context, c openAccount) error {
	*h.seen = append(*h.seen, c.Owner)
	return nil
}

func nopScope(t *testing.T) cqrs.Scope {
	t.Helper()

	s, err := cqrs.NopScopes{}.Begin(t.Context())
	require.NoError(t, err)

	return s
}

func TestBuild_IndexesEveryCapability(t *testing.T) {
	t.Parallel()

	var seen []string

	reg, err := registry.Build(
		registry.Command[openAccount](registry.Singleton(openHandler{seen: &seen})),
		registry.CommandMethod(registry.Transient(newAccounts), (*accounts).Close),
		registry.CommandWithResultMethod(registry.Transient(newAccounts), (*accounts).Create),
		registry.Query[accountOwner, string](registry.Singleton(ownerHandler{})),
	)
	require.NoError(t, err)
	assert.Equal(t, 4, reg.Len())

	b, ok := reg.Resolve(cqrs.KindCommand, reflect.TypeFor[openAccount]())
	require.True(t, ok)
	assert.Nil(t, b.ResultType)

	_, err = b.Invoke(t.Context(), nopScope(t), openAccount{Owner: "ada"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ada"}, seen)

	b, ok = reg.Resolve(cqrs.KindCommandWithResult, reflect.TypeFor[createAccount]())
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[int](), b.ResultType)
	assert.Equal(t, "accounts", b.Handler)

	res, err := b.Invoke(t.Context(), nopScope(t), createAccount{Owner: "ada"})
	require.NoError(t, err)
	assert.Equal(t, 7, res)

	b, ok = reg.Resolve(cqrs.KindQuery, reflect.TypeFor[accountOwner]())
	require.True(t, ok)

	res, err = b.Invoke(t.Context(), nopScope(t), accountOwner{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, "owner-3", res)
}

func TestResolve_KeysByKindAndExactType(t *testing.T) {
	t.Parallel()

	reg, err := registry.Build(
		registry.CommandMethod(registry.Transient(newAccounts), (*accounts).Open),
	)
	require.NoError(t, err)

	_, ok := reg.Resolve(cqrs.KindQuery, reflect.TypeFor[openAccount]())
	assert.False(t, ok, "kind is part of the key")

	_, ok = reg.Resolve(cqrs.KindCommand, reflect.TypeFor[*openAccount]())
	assert.False(t, ok, "pointer and value types are distinct")

	_, ok = reg.Resolve(cqrs.KindCommand, reflect.TypeFor[closeAccount]())
	assert.False(t, ok)
}

func TestBuild_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := registry.Build(
		registry.CommandMethod(registry.Transient(newAccounts), (*accounts).Open),
		registry.CommandOf(openAccount{}, func(ctx context.Context, cmd any) error { return nil }),
	)
	require.ErrorIs(t, err, berr.ErrHandlerExists)
	assert.Contains(t, err.Error(), "openAccount")

	// same message type under a different kind is not a conflict
	_, err = registry.Build(
		registry.CommandOf(openAccount{}, func(ctx context.Context, cmd any) error { return nil }),
		registry.QueryOf(openAccount{}, func(ctx context.Context, q any) (any, error) { return nil, nil }),
	)
	require.NoError(t, err)
}

func TestBuild_ReportsEveryInvalidRegistration(t *testing.T) {
	t.Parallel()

	var nilCtor func() *accounts

	_, err := registry.Build(
		registry.CommandOf(nil, func(ctx context.Context, cmd any) error { return nil }),
		registry.CommandMethod(registry.Transient(nilCtor), (*accounts).Open),
		registry.CommandMethod(registry.Transient(newAccounts), func(*accounts, context.Context, fmt.Stringer) error {
			return nil
		}),
		registry.QueryOf(accountOwner{}, nil),
		registry.Registration{},
	)
	require.ErrorIs(t, err, berr.ErrInvalidBinding)

	msg := err.Error()
	assert.Contains(t, msg, "nil message type")
	assert.Contains(t, msg, "nil provider")
	assert.Contains(t, msg, "is an interface")
	assert.Contains(t, msg, "nil handler")
	assert.Contains(t, msg, "empty registration")
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	reg, err := registry.NewBuilder().Build()
	require.NoError(t, err)
	assert.Zero(t, reg.Len())
	assert.Empty(t, reg.Bindings())
}

func TestBindings_Ordered(t *testing.T) {
	t.Parallel()

	reg, err := registry.NewBuilder().
		Add(registry.Query[accountOwner, string](registry.Singleton(ownerHandler{}))).
		Add(
			registry.CommandMethod(registry.Transient(newAccounts), (*accounts).Open),
			registry.CommandMethod(registry.Transient(newAccounts), (*accounts).Close),
		).
		Build()
	require.NoError(t, err)

	var got []string
	for _, b := range reg.Bindings() {
		got = append(got, b.Kind.String()+" "+cqrs.TypeName(b.MessageType))
	}

	assert.Equal(t, []string{
		"command closeAccount",
		"command openAccount",
		"query accountOwner",
	}, got)
}

func TestInvoke_Failures(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")

	reg, err := registry.Build(
		registry.CommandMethod(func(context.Context, cqrs.Scope) (*accounts, error) { return nil, boom }, (*accounts).Open),
		registry.CommandMethod(func(context.Context, cqrs.Scope) (*accounts, error) { return nil, nil }, (*accounts).Close),
		registry.QueryOf(accountOwner{}, func(ctx context.Context, q any) (any, error) { return "x", nil }),
	)
	require.NoError(t, err)

	t.Run("provider error", func(t *testing.T) {
		b, _ := reg.Resolve(cqrs.KindCommand, reflect.TypeFor[openAccount]())
		_, err := b.Invoke(t.Context(), nopScope(t), openAccount{})
		require.ErrorIs(t, err, berr.ErrInvocationFailed)
		require.ErrorIs(t, err, boom)
	})

	t.Run("provider returned nil", func(t *testing.T) {
		b, _ := reg.Resolve(cqrs.KindCommand, reflect.TypeFor[closeAccount]())
		_, err := b.Invoke(t.Context(), nopScope(t), closeAccount{})
		require.ErrorIs(t, err, berr.ErrInvocationFailed)
	})

	t.Run("message of another type", func(t *testing.T) {
		b, _ := reg.Resolve(cqrs.KindCommand, reflect.TypeFor[openAccount]())
		_, err := b.Invoke(t.Context(), nopScope(t), closeAccount{})
		require.ErrorIs(t, err, berr.ErrInvocationFailed)

		b, _ = reg.Resolve(cqrs.KindQuery, reflect.TypeFor[accountOwner]())
		_, err = b.Invoke(t.Context(), nopScope(t), &accountOwner{})
		require.ErrorIs(t, err, berr.ErrInvocationFailed)
	})
}

func TestTransient_BuildsPerCall(t *testing.T) {
	t.Parallel()

	built := 0
	p := registry.Transient(func() *accounts {
		built++
		return &accounts{}
	})

	reg, err := registry.Build(registry.CommandMethod(p, (*accounts).Open))
	require.NoError(t, err)

	b, _ := reg.Resolve(cqrs.KindCommand, reflect.TypeFor[openAccount]())
	for range 3 {
		_, err := b.Invoke(t.Context(), nopScope(t), openAccount{})
		require.NoError(t, err)
	}

	assert.Equal(t, 3, built)
}
