// Package redis appends dispatch outcomes to a capped Redis stream.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
	"github.com/next-trace/scg-cqrs/outcome"
)

// Defaults for the outcome stream.
const (
	DefaultStream = "cqrs:outcomes"
	DefaultMaxLen = 10000
)

// Streamer is the slice of the go-redis client the adapter needs. *redis.Client,
// *redis.ClusterClient and redis.Pipeliner all satisfy it.
type Streamer interface {
	XAdd(ctx context.Context, a *goredis.XAddArgs) *goredis.StringCmd
}

// Adapter XADDs one entry per outcome. Entries carry the routing fields flat for XRANGE
// filtering and the full CloudEvent under "event".
type Adapter struct {
	Client Streamer
	Stream string
	MaxLen int64 // approximate cap; 0 keeps everything
	Source string
}

var _ cqrs.OutcomePublisher = (*Adapter)(nil)

// New creates an Adapter writing to DefaultStream capped at DefaultMaxLen.
func New(c Streamer) *Adapter {
	return &Adapter{Client: c, Stream: DefaultStream, MaxLen: DefaultMaxLen}
}

func (a *Adapter) PublishOutcome(ctx context.Context, o cqrs.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Client == nil {
		return fmt.Errorf("redis publish: nil client: %w", berr.ErrJournalNotConfigured)
	}

	event, err := outcome.Marshal(o, a.Source)
	if err != nil {
		return fmt.Errorf("redis publish %s: %w", o.ID, err)
	}

	args := &goredis.XAddArgs{
		Stream: a.Stream,
		Values: map[string]any{
			"id":      o.ID,
			"kind":    o.Kind.String(),
			"message": o.Message,
			"status":  string(o.Status),
			"event":   event,
		},
	}

	if a.MaxLen > 0 {
		args.MaxLen = a.MaxLen
		args.Approx = true
	}

	if err := a.Client.XAdd(ctx, args).Err(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("redis xadd %s: %w", a.Stream, errors.Join(berr.ErrPublishFailed, err))
	}

	return nil
}
