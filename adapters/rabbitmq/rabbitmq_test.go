package rabbitmq_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/next-trace/scg-cqrs/adapters/rabbitmq"
	"github.com/next-trace/scg-cqrs/contract/cqrs"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
	"github.com/next-trace/scg-cqrs/outcome"
)

type fakePublisher struct {
	calls []rabbitmq.PubMsg
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, m rabbitmq.PubMsg) error {
	f.calls = append(f.calls, m)

	return f.err
}

type headerPropagator struct{}

func (headerPropagator) Inject(_ context.Context, h map[string]string) { h["traceparent"] = "tp" }

func failedQuery() cqrs.Outcome {
	return cqrs.Outcome{
		ID:        "q-9",
		Kind:      cqrs.KindQuery,
		Message:   "GetUserName",
		Status:    cqrs.StatusFailed,
		Code:      berr.ErrCodeHandlerNotFound,
		Error:     "not found",
		StartedAt: time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC),
	}
}

func TestRabbitMQ_PublishOutcome(t *testing.T) {
	fp := &fakePublisher{}
	ad := rabbitmq.NewWithPropagator(fp, headerPropagator{})

	if err := ad.PublishOutcome(t.Context(), failedQuery()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(fp.calls) != 1 {
		t.Fatalf("want 1, got %d", len(fp.calls))
	}

	c := fp.calls[0]
	if c.Exchange != rabbitmq.DefaultExchange || c.RoutingKey != "query.GetUserName" {
		t.Fatalf("routing: %q %q", c.Exchange, c.RoutingKey)
	}

	if c.MessageID != "q-9" || c.ContentType != outcome.ContentType || c.Timestamp.IsZero() {
		t.Fatalf("properties: %+v", c)
	}

	if c.Headers["traceparent"] != "tp" || c.Headers[outcome.ExtKind] != "query" {
		t.Fatalf("headers: %+v", c.Headers)
	}

	got, err := outcome.Unmarshal(c.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Code != berr.ErrCodeHandlerNotFound || got.Status != cqrs.StatusFailed {
		t.Fatalf("body: %+v", got)
	}
}

func TestRabbitMQ_NilPublisherError(t *testing.T) {
	ad := rabbitmq.New(nil)
	if err := ad.PublishOutcome(t.Context(), failedQuery()); !errors.Is(err, berr.ErrJournalNotConfigured) {
		t.Fatalf("want ErrJournalNotConfigured, got %v", err)
	}
}

func TestRabbitMQ_Publish_ErrorWrapping_And_ContextCancel(t *testing.T) {
	fp := &fakePublisher{err: errors.New("boom")}
	ad := rabbitmq.New(fp)

	if err := ad.PublishOutcome(t.Context(), failedQuery()); !errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	fp2 := &fakePublisher{err: context.Canceled}
	ad2 := rabbitmq.New(fp2)

	err := ad2.PublishOutcome(t.Context(), failedQuery())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
