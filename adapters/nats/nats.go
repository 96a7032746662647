package nats

import (
	"context"
	"errors"
	"fmt"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
	"github.com/next-trace/scg-cqrs/outcome"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "outcomes"

// Client is a minimal NATS-like publisher interface decoupled from any concrete library.
// Users can provide a wrapper around their NATS connection to satisfy this.
type Client interface {
	// Publish publishes a message to a subject with optional headers.
	Publish(subject string, data []byte, headers map[string]string) error
}

// Adapter publishes dispatch outcomes as structured CloudEvents on
// "<prefix>.<kind>.<message>" subjects.
type Adapter struct {
	Client     Client
	Prefix     string
	Source     string
	Propagator cqrs.HeaderPropagator
}

// Ensure Adapter implements the journal contract.
var _ cqrs.OutcomePublisher = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(p string) Option { return func(a *Adapter) { a.Prefix = p } }

// WithSource sets the CloudEvents source attribute.
func WithSource(s string) Option { return func(a *Adapter) { a.Source = s } }

// WithPropagator injects tracing headers into every message.
func WithPropagator(p cqrs.HeaderPropagator) Option { return func(a *Adapter) { a.Propagator = p } }

// New creates a new NATS adapter instance with the provided client.
func New(c Client, opts ...Option) *Adapter {
	a := &Adapter{Client: c, Prefix: DefaultPrefix, Propagator: cqrs.NopHeaderPropagator{}}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *Adapter) PublishOutcome(ctx context.Context, o cqrs.Outcome) error {
	if err := a.ready(ctx); err != nil {
		return err
	}

	body, err := outcome.Marshal(o, a.Source)
	if err != nil {
		return fmt.Errorf("nats publish %s: %w", o.ID, err)
	}

	return a.publish(outcome.Subject(a.Prefix, o), body, a.headers(ctx, o))
}

func (a *Adapter) publish(subject string, body []byte, headers map[string]string) error {
	if err := a.Client.Publish(subject, body, headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("nats publish %s: %w", subject, errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func (a *Adapter) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Client == nil {
		return fmt.Errorf("nats publish: nil client: %w", berr.ErrJournalNotConfigured)
	}

	return nil
}

func (a *Adapter) headers(ctx context.Context, o cqrs.Outcome) map[string]string {
	h := map[string]string{
		"Content-Type": outcome.ContentType,
		// JetStream de-duplicates on this header
		"Nats-Msg-Id": o.ID,
	}

	if a.Propagator != nil {
		a.Propagator.Inject(ctx, h)
	}

	return h
}
