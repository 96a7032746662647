package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
	"github.com/next-trace/scg-cqrs/outcome"
)

// DefaultTopicPrefix prefixes the per-kind outcome topics.
const DefaultTopicPrefix = "outcomes"

// Writer is a minimal Kafka-like writer interface.
// Users can adapt segmentio/kafka-go or any other client to this.
type Writer interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Adapter publishes outcomes to "<prefix>.<kind>" topics keyed by message name, so the outcomes
// of one message type stay ordered within a partition.
type Adapter struct {
	Writer      Writer
	TopicPrefix string
	Source      string
	Propagator  cqrs.HeaderPropagator
}

var _ cqrs.OutcomePublisher = (*Adapter)(nil)

// New creates a new Kafka adapter instance with the provided writer.
func New(w Writer) *Adapter { return &Adapter{Writer: w, TopicPrefix: DefaultTopicPrefix} }

func (a *Adapter) PublishOutcome(ctx context.Context, o cqrs.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Writer == nil {
		return fmt.Errorf("kafka publish: nil writer: %w", berr.ErrJournalNotConfigured)
	}

	val, err := outcome.Marshal(o, a.Source)
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", o.ID, err)
	}

	topic := a.topic(o.Kind)
	headers := map[string]string{
		"content-type": outcome.ContentType,
		"ce_id":        o.ID,
		"ce_type":      outcome.EventType(o.Status),
	}

	if a.Propagator != nil {
		a.Propagator.Inject(ctx, headers)
	}

	if err = a.Writer.Write(ctx, topic, []byte(o.Message), val, headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("kafka publish write %s: %w", topic, errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}

func (a *Adapter) topic(k cqrs.Kind) string {
	if a.TopicPrefix == "" {
		return k.String()
	}

	return a.TopicPrefix + "." + k.String()
}
