package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	berr "github.com/next-trace/scg-cqrs/contract/errors"
)

// Config holds the connection settings, filled from CQRS_REDIS_* by the config package.
type Config struct {
	URL         string        `env:"URL"`
	Stream      string        `env:"STREAM" envDefault:"cqrs:outcomes"`
	MaxLen      int64         `env:"MAX_LEN" envDefault:"10000"`
	ConnTimeout time.Duration `env:"CONN_TIMEOUT" envDefault:"5s"`
}

// NewWithRedis connects to the server at cfg.URL (redis:// or rediss://), pings it and returns
// an Adapter and a cleanup that closes the client.
func NewWithRedis(ctx context.Context, cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("redis url required: %w", berr.ErrJournalNotConfigured)
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis url: %w: %w", berr.ErrJournalNotConfigured, err)
	}

	if cfg.ConnTimeout > 0 {
		opts.DialTimeout = cfg.ConnTimeout
	}

	client := goredis.NewClient(opts)

	pingCtx := ctx
	if cfg.ConnTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnTimeout)
		defer cancel()
	}

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("%w: redis ping: %w", berr.ErrPublishFailed, err)
	}

	ad := New(client)
	if cfg.Stream != "" {
		ad.Stream = cfg.Stream
	}

	ad.MaxLen = cfg.MaxLen

	return ad, func() { _ = client.Close() }, nil
}
