package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"

	berr "github.com/next-trace/scg-cqrs/contract/errors"
)

// Concrete franz-go based constructor and writer wrapper.

// Config holds the producer settings, filled from CQRS_KAFKA_* by the config package.
type Config struct {
	Brokers     []string `env:"BROKERS" envSeparator:","`
	ClientID    string   `env:"CLIENT_ID" envDefault:"scg-cqrs"`
	Acks        string   `env:"ACKS" envDefault:"all"`         // all, leader or none
	Compression string   `env:"COMPRESSION" envDefault:"none"` // none, gzip, snappy, lz4 or zstd
	TopicPrefix string   `env:"TOPIC_PREFIX" envDefault:"outcomes"`
	TLS         *tls.Config
}

type kgoWriter struct{ cl *kgo.Client }

func (w kgoWriter) Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	rec := &kgo.Record{Topic: topic, Key: key, Value: value}
	if len(headers) > 0 {
		rec.Headers = make([]kgo.RecordHeader, 0, len(headers))
		for k, v := range headers {
			rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
		}
	}

	return w.cl.ProduceSync(ctx, rec).FirstErr()
}

// NewWithKgo builds a franz-go client based Adapter. The returned cleanup should be called to close the client.
func NewWithKgo(cfg Config) (*Adapter, func(), error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil, fmt.Errorf("kafka brokers required: %w", berr.ErrJournalNotConfigured)
	}

	opts, err := clientOpts(cfg)
	if err != nil {
		return nil, nil, err
	}

	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: kafka client init: %w", berr.ErrPublishFailed, err)
	}

	ad := New(kgoWriter{cl: cl})
	if cfg.TopicPrefix != "" {
		ad.TopicPrefix = cfg.TopicPrefix
	}

	return ad, cl.Close, nil
}

func clientOpts(cfg Config) ([]kgo.Opt, error) {
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Brokers...)}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	if cfg.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(cfg.TLS))
	}

	// idempotent writes (the franz-go default) require acks from all in-sync replicas
	switch strings.ToLower(cfg.Acks) {
	case "", "all":
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	case "leader":
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	case "none":
		opts = append(opts, kgo.RequiredAcks(kgo.NoAck()), kgo.DisableIdempotentWrite())
	default:
		return nil, fmt.Errorf("kafka acks %q: %w", cfg.Acks, berr.ErrJournalNotConfigured)
	}

	switch strings.ToLower(cfg.Compression) {
	case "", "none":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.NoCompression()))
	case "gzip":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.GzipCompression()))
	case "snappy":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.SnappyCompression()))
	case "lz4":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.Lz4Compression()))
	case "zstd":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.ZstdCompression()))
	default:
		return nil, fmt.Errorf("kafka compression %q: %w", cfg.Compression, berr.ErrJournalNotConfigured)
	}

	return opts, nil
}
