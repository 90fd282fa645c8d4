package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"claimcheck/internal/model"
	"claimcheck/internal/retry"
)

// MemoryQueue is an in-process Queue with the same redelivery semantics as
// the Redis queue. It backs tests and the one-shot verify command.
type MemoryQueue struct {
	jobs   chan model.VerificationJob
	policy retry.Policy

	mu     sync.Mutex
	closed bool
	dead   []model.VerificationJob
	timers []*time.Timer
}

// NewMemoryQueue creates an in-memory queue
func NewMemoryQueue(policy retry.Policy) *MemoryQueue {
	return &MemoryQueue{
		jobs:   make(chan model.VerificationJob, 256),
		policy: policy,
	}
}

// Enqueue adds a job for delivery
func (q *MemoryQueue) Enqueue(ctx context.Context, job model.VerificationJob) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.mu.Unlock()

	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a job is available or ctx is done
func (q *MemoryQueue) Dequeue(ctx context.Context) (Delivery, error) {
	select {
	case job, ok := <-q.jobs:
		if !ok {
			return nil, ErrClosed
		}
		return &memoryDelivery{queue: q, job: job}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops redelivery timers and closes the queue
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	for _, t := range q.timers {
		t.Stop()
	}
	close(q.jobs)
	return nil
}

// DeadLetters returns jobs that exhausted their attempts
func (q *MemoryQueue) DeadLetters() []model.VerificationJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.VerificationJob, len(q.dead))
	copy(out, q.dead)
	return out
}

type memoryDelivery struct {
	queue *MemoryQueue
	job   model.VerificationJob
}

func (d *memoryDelivery) Job() model.VerificationJob {
	return d.job
}

func (d *memoryDelivery) Ack(ctx context.Context) error {
	return nil
}

func (d *memoryDelivery) Nack(ctx context.Context) error {
	q := d.queue
	attempt := d.job.Attempt + 1

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}

	if attempt >= q.policy.MaxAttempts {
		q.dead = append(q.dead, model.VerificationJob{ClaimID: d.job.ClaimID, Attempt: attempt})
		return nil
	}

	next := model.VerificationJob{ClaimID: d.job.ClaimID, Attempt: attempt}
	timer := time.AfterFunc(q.policy.Backoff(attempt), func() {
		q.mu.Lock()
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return
		}
		select {
		case q.jobs <- next:
		default:
			log.Printf("queue: dropping redelivery for claim %s, buffer full", next.ClaimID)
		}
	})
	q.timers = append(q.timers, timer)
	return nil
}
