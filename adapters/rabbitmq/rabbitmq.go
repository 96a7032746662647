package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
	"github.com/next-trace/scg-cqrs/outcome"
)

// DefaultExchange is the topic exchange outcomes are published to.
const DefaultExchange = "cqrs.outcomes"

type PubMsg struct {
	Exchange    string
	RoutingKey  string
	MessageID   string
	ContentType string
	Timestamp   time.Time
	Body        []byte
	Headers     map[string]string
}

type Publisher interface {
	Publish(ctx context.Context, m PubMsg) error
}

type Adapter struct {
	Publisher  Publisher
	Exchange   string
	Source     string
	Propagator cqrs.HeaderPropagator // optional, for context propagation into headers
}

var _ cqrs.OutcomePublisher = (*Adapter)(nil)

func New(p Publisher) *Adapter { return &Adapter{Publisher: p, Exchange: DefaultExchange} }

// NewWithPropagator allows configuring a HeaderPropagator for context propagation.
func NewWithPropagator(p Publisher, hp cqrs.HeaderPropagator) *Adapter {
	a := New(p)
	a.Propagator = hp

	return a
}

func (a *Adapter) PublishOutcome(ctx context.Context, o cqrs.Outcome) error {
	if err := a.ready(ctx); err != nil {
		return err
	}

	body, err := outcome.Marshal(o, a.Source)
	if err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", o.ID, err)
	}

	hdrs := map[string]string{outcome.ExtKind: o.Kind.String()}
	// Inject tracing context via configured propagator (keeps adapter decoupled)
	if a.Propagator != nil {
		a.Propagator.Inject(ctx, hdrs)
	}

	msg := PubMsg{
		Exchange:    a.Exchange,
		RoutingKey:  outcome.Subject("", o),
		MessageID:   o.ID,
		ContentType: outcome.ContentType,
		Timestamp:   o.StartedAt,
		Body:        body,
		Headers:     hdrs,
	}

	if err := a.Publisher.Publish(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("rabbitmq publish %s: %w", msg.RoutingKey, errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func (a *Adapter) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Publisher == nil {
		return fmt.Errorf("rabbitmq publish: nil publisher: %w", berr.ErrJournalNotConfigured)
	}

	return nil
}

func publishing(m PubMsg) amqp.Publishing {
	var h amqp.Table
	if len(m.Headers) > 0 {
		h = amqp.Table{}
		for k, v := range m.Headers {
			h[k] = v
		}
	}

	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Headers:      h,
		MessageId:    m.MessageID,
		ContentType:  m.ContentType,
		Timestamp:    m.Timestamp,
		Body:         m.Body,
	}
}

type amqpChannelPublisher struct{ ch *amqp.Channel }

func (p amqpChannelPublisher) Publish(ctx context.Context, m PubMsg) error {
	return p.ch.PublishWithContext(ctx, m.Exchange, m.RoutingKey, false, false, publishing(m))
}

// NewWithAMQPChannel publishes on a caller-managed channel. The exchange must already exist.
func NewWithAMQPChannel(ch *amqp.Channel) *Adapter {
	return New(amqpChannelPublisher{ch: ch})
}
