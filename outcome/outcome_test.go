package outcome_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
	"github.com/next-trace/scg-cqrs/outcome"
)

func failed() cqrs.Outcome {
	return cqrs.Outcome{
		ID:        "d-42",
		Kind:      cqrs.KindCommandWithResult,
		Message:   "CreateUser",
		Status:    cqrs.StatusFailed,
		Code:      berr.ErrCodeHandlerNotFound,
		Error:     "execute command-with-result CreateUser: cqrs.handler_not_found",
		StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Duration:  3 * time.Millisecond,
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	o := failed()

	e, err := outcome.Encode(o, "")
	require.NoError(t, err)

	assert.Equal(t, "d-42", e.ID())
	assert.Equal(t, outcome.DefaultSource, e.Source())
	assert.Equal(t, outcome.TypeFailed, e.Type())
	assert.Equal(t, "CreateUser", e.Subject())
	assert.Equal(t, o.StartedAt, e.Time())
	assert.Equal(t, "command-with-result", e.Extensions()[outcome.ExtKind])
	assert.Equal(t, berr.ErrCodeHandlerNotFound, e.Extensions()[outcome.ExtCode])

	got, err := outcome.Decode(e)
	require.NoError(t, err)
	assert.Equal(t, o, got)
}

func TestMarshalUnmarshal(t *testing.T) {
	t.Parallel()

	o := failed()
	o.Status = cqrs.StatusCompleted
	o.Code, o.Error = "", ""

	b, err := outcome.Marshal(o, "billing")
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"cqrs.dispatch.completed"`)
	assert.Contains(t, string(b), `"source":"billing"`)
	assert.NotContains(t, string(b), outcome.ExtCode)

	got, err := outcome.Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, o, got)
}

func TestUnmarshal_Rejects(t *testing.T) {
	t.Parallel()

	_, err := outcome.Unmarshal([]byte("{not json"))
	require.ErrorIs(t, err, berr.ErrSerializationFailed)

	foreign := []byte(`{"specversion":"1.0","id":"1","source":"x","type":"order.placed"}`)
	_, err = outcome.Unmarshal(foreign)
	require.ErrorIs(t, err, berr.ErrSerializationFailed)
}

func TestEncode_RequiresID(t *testing.T) {
	t.Parallel()

	o := failed()
	o.ID = ""

	_, err := outcome.Encode(o, "")
	require.ErrorIs(t, err, berr.ErrSerializationFailed)
}

func TestSubject(t *testing.T) {
	t.Parallel()

	o := cqrs.Outcome{Kind: cqrs.KindQuery, Message: "GetUserName"}
	assert.Equal(t, "outcomes.query.GetUserName", outcome.Subject("outcomes", o))
	assert.Equal(t, "query.GetUserName", outcome.Subject("", o))

	o.Message = "struct { X int }"
	assert.Equal(t, "outcomes.query.struct_{_X_int_}", outcome.Subject("outcomes", o))

	o.Message = "v1.Thing"
	assert.Equal(t, "outcomes.query.v1_Thing", outcome.Subject("outcomes", o))
}
