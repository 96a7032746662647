// Package bootstrap turns a config.Config into the logger, tracer provider and outcome journal a
// dispatch.Mediator is built with.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/next-trace/scg-cqrs/adapters/inmemory"
	"github.com/next-trace/scg-cqrs/adapters/kafka"
	"github.com/next-trace/scg-cqrs/adapters/nats"
	"github.com/next-trace/scg-cqrs/adapters/rabbitmq"
	"github.com/next-trace/scg-cqrs/adapters/redis"
	"github.com/next-trace/scg-cqrs/config"
	"github.com/next-trace/scg-cqrs/contract/cqrs"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
	"github.com/next-trace/scg-cqrs/dispatch"
	"github.com/next-trace/scg-cqrs/telemetry"
)

// Runtime holds the ambient services opened from a Config. Close releases them.
type Runtime struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	Journal        cqrs.OutcomePublisher // nil when the journal is disabled

	closers []func(context.Context) error
}

// Open builds a Runtime. Logs go to w.
func Open(ctx context.Context, cfg config.Config, w io.Writer) (*Runtime, error) {
	logger, err := cfg.NewLogger(w)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Logger: logger}

	tp, shutdown, err := telemetry.Setup(ctx, cfg.OTel)
	if err != nil {
		return nil, fmt.Errorf("bootstrap tracing: %w", err)
	}

	rt.TracerProvider = tp
	rt.closers = append(rt.closers, shutdown)

	journal, cleanup, err := OpenJournal(ctx, cfg)
	if err != nil {
		return nil, errors.Join(err, rt.Close(ctx))
	}

	rt.Journal = journal
	rt.closers = append(rt.closers, func(context.Context) error {
		cleanup()
		return nil
	})

	logger.InfoContext(ctx, "cqrs runtime ready",
		slog.String("journal", string(cfg.Journal)),
		slog.Bool("tracing", cfg.OTel.Enabled && cfg.OTel.Endpoint != ""))

	return rt, nil
}

// OpenJournal connects the outcome journal selected by cfg.Journal. The publisher is nil for
// config.JournalNone; cleanup is never nil.
func OpenJournal(ctx context.Context, cfg config.Config) (cqrs.OutcomePublisher, func(), error) {
	nop := func() {}
	prop := telemetry.HeaderPropagator{}

	switch cfg.Journal {
	case config.JournalNone, "":
		return nil, nop, nil
	case config.JournalMemory:
		return inmemory.New(), nop, nil
	case config.JournalNATS:
		ad, cleanup, err := nats.NewWithNATS(cfg.NATS, nats.WithSource(cfg.JournalSource), nats.WithPropagator(prop))
		if err != nil {
			return nil, nop, err
		}

		return ad, cleanup, nil
	case config.JournalRabbitMQ:
		ad, cleanup, err := rabbitmq.NewWithAMQPConn(cfg.RabbitMQ)
		if err != nil {
			return nil, nop, err
		}

		ad.Source, ad.Propagator = cfg.JournalSource, prop

		return ad, cleanup, nil
	case config.JournalKafka:
		ad, cleanup, err := kafka.NewWithKgo(cfg.Kafka)
		if err != nil {
			return nil, nop, err
		}

		ad.Source, ad.Propagator = cfg.JournalSource, prop

		return ad, cleanup, nil
	case config.JournalRedis:
		ad, cleanup, err := redis.NewWithRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nop, err
		}

		ad.Source = cfg.JournalSource

		return ad, cleanup, nil
	default:
		return nil, nop, fmt.Errorf("bootstrap journal %q: %w", cfg.Journal, berr.ErrJournalNotConfigured)
	}
}

// Options returns the dispatch options for this runtime: logger, journal and the standard
// middleware chain (logging, then tracing, then panic recovery closest to the handler).
func (r *Runtime) Options() []dispatch.Option {
	opts := []dispatch.Option{
		dispatch.WithLogger(r.Logger),
		dispatch.WithMiddleware(
			dispatch.Logging(r.Logger),
			dispatch.Tracing(r.TracerProvider),
			dispatch.Recovery(),
		),
	}

	if r.Journal != nil {
		opts = append(opts, dispatch.WithOutcomePublisher(r.Journal))
	}

	return opts
}

// Close releases everything Open acquired, newest first.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error

	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	r.closers = nil

	return errors.Join(errs...)
}
