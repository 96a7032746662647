package inmemory

import (
	"context"
	"sync"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
)

// Journal is a thread-safe in-memory cqrs.OutcomePublisher.
// It records outcomes for testing and examples.
type Journal struct {
	mu       sync.Mutex
	outcomes []cqrs.Outcome

	// Err, when set, is returned by PublishOutcome instead of recording.
	Err error
}

// Ensure Journal implements the contract.
var _ cqrs.OutcomePublisher = (*Journal)(nil)

// New creates an empty Journal.
func New() *Journal { return &Journal{} }

func (j *Journal) PublishOutcome(ctx context.Context, o cqrs.Outcome) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.Err != nil {
		return j.Err
	}

	j.outcomes = append(j.outcomes, o)

	return nil
}

// Outcomes returns a copy of the recorded outcomes in publish order.
func (j *Journal) Outcomes() []cqrs.Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append([]cqrs.Outcome(nil), j.outcomes...)
}

// Len returns the number of recorded outcomes.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return len(j.outcomes)
}

// Reset drops everything recorded so far.
func (j *Journal) Reset() {
	j.mu.Lock()
	j.outcomes = nil
	j.mu.Unlock()
}
