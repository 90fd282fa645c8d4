// Package queue delivers verification jobs to workers with at-least-once
// semantics and bounded, backed-off redelivery.
package queue

import (
	"context"
	"errors"
	"time"

	"claimcheck/internal/model"
	"claimcheck/internal/retry"
)

// ErrClosed is returned when the queue has been shut down
var ErrClosed = errors.New("queue closed")

// Delivery is one dequeued job. Exactly one of Ack or Nack must be called.
type Delivery interface {
	// Job returns the delivered verification job
	Job() model.VerificationJob

	// Ack marks the job done
	Ack(ctx context.Context) error

	// Nack schedules redelivery with backoff, or dead-letters the job when
	// attempts are exhausted
	Nack(ctx context.Context) error
}

// Queue is the durable verification queue contract
type Queue interface {
	// Enqueue adds a job for eventual delivery
	Enqueue(ctx context.Context, job model.VerificationJob) error

	// Dequeue blocks until a job is available or ctx is done
	Dequeue(ctx context.Context) (Delivery, error)

	// Close releases queue resources
	Close() error
}

// PolicyFromConfig builds the queue's shared retry policy
func PolicyFromConfig(cfg model.QueueConfig) retry.Policy {
	policy := retry.Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BackoffBase,
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 2 * time.Second
	}
	return policy
}
