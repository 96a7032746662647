package cqrs

import (
	"context"
	"time"
)

// Status is the terminal state of a dispatch.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Outcome records one dispatch call. Code carries the error code from contract/errors when the
// failure originated in the core, and is empty for handler errors without a code.
type Outcome struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	Message   string        `json:"message"`
	Status    Status        `json:"status"`
	Code      string        `json:"code,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// OutcomePublisher receives the Outcome of every dispatch. Implementations must be safe for
// concurrent use by multiple goroutines.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, o Outcome) error
}
