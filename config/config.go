// Package config loads runtime settings from the environment and optional .env files.
//
// Every variable is prefixed with CQRS_. Adapter settings are nested, e.g. CQRS_NATS_URL or
// CQRS_KAFKA_BROKERS. Process environment wins over .env files, and earlier files win over later ones.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/next-trace/scg-cqrs/adapters/kafka"
	"github.com/next-trace/scg-cqrs/adapters/nats"
	"github.com/next-trace/scg-cqrs/adapters/rabbitmq"
	"github.com/next-trace/scg-cqrs/adapters/redis"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
	"github.com/next-trace/scg-cqrs/telemetry"
)

// Prefix is prepended to every variable name.
const Prefix = "CQRS_"

// Journal selects where dispatch outcomes are published.
type Journal string

const (
	JournalNone     Journal = "none"
	JournalMemory   Journal = "memory"
	JournalNATS     Journal = "nats"
	JournalRabbitMQ Journal = "rabbitmq"
	JournalKafka    Journal = "kafka"
	JournalRedis    Journal = "redis"
)

type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	Journal       Journal `env:"JOURNAL" envDefault:"none"`
	JournalSource string  `env:"JOURNAL_SOURCE" envDefault:"scg-cqrs"`

	NATS     nats.Config      `envPrefix:"NATS_"`
	RabbitMQ rabbitmq.Config  `envPrefix:"RABBITMQ_"`
	Kafka    kafka.Config     `envPrefix:"KAFKA_"`
	Redis    redis.Config     `envPrefix:"REDIS_"`
	OTel     telemetry.Config `envPrefix:"OTEL_"`
}

// Load reads the given .env files (".env" when none are given; missing files are skipped),
// overlays the process environment and parses the result into a validated Config.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	vars := make(map[string]string)

	for _, f := range files {
		m, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", f, err)
		}

		for k, v := range m {
			if _, seen := vars[k]; !seen {
				vars[k] = v
			}
		}
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	return Parse(vars)
}

// Parse builds a Config from vars alone, ignoring the process environment.
func Parse(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix, Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that the selected journal has the settings it needs.
func (c Config) Validate() error {
	var missing string

	switch c.Journal {
	case JournalNone, JournalMemory:
	case JournalNATS:
		if c.NATS.URL == "" {
			missing = Prefix + "NATS_URL"
		}
	case JournalRabbitMQ:
		if c.RabbitMQ.URL == "" {
			missing = Prefix + "RABBITMQ_URL"
		}
	case JournalKafka:
		if len(c.Kafka.Brokers) == 0 {
			missing = Prefix + "KAFKA_BROKERS"
		}
	case JournalRedis:
		if c.Redis.URL == "" {
			missing = Prefix + "REDIS_URL"
		}
	default:
		return fmt.Errorf("config: unknown journal %q: %w", c.Journal, berr.ErrJournalNotConfigured)
	}

	if missing != "" {
		return fmt.Errorf("config: journal %s requires %s: %w", c.Journal, missing, berr.ErrJournalNotConfigured)
	}

	return nil
}
