package worker

import (
	"context"
	"log"
	"sync"

	"claimcheck/internal/queue"
)

// Workers runs a fixed number of worker goroutines, each pulling one job at
// a time from the queue. Claims are independent, so workers share no
// mutable state beyond the store and queue.
type Workers struct {
	queue  queue.Queue
	runner *Runner
	count  int
}

// NewWorkers creates a worker group
func NewWorkers(q queue.Queue, runner *Runner, count int) *Workers {
	if count <= 0 {
		count = 1
	}
	return &Workers{queue: q, runner: runner, count: count}
}

// Run blocks until ctx is cancelled, processing jobs on all workers
func (w *Workers) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.count; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (w *Workers) loop(ctx context.Context, id int) {
	for {
		delivery, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || err == queue.ErrClosed {
				return
			}
			log.Printf("worker %d: dequeue: %v", id, err)
			continue
		}

		job := delivery.Job()
		log.Printf("worker %d: processing claim %s (attempt %d)", id, job.ClaimID, job.Attempt+1)

		if err := w.runner.Process(ctx, job); err != nil {
			if nerr := delivery.Nack(context.WithoutCancel(ctx)); nerr != nil {
				log.Printf("worker %d: nack claim %s: %v", id, job.ClaimID, nerr)
			}
			continue
		}
		if aerr := delivery.Ack(context.WithoutCancel(ctx)); aerr != nil {
			log.Printf("worker %d: ack claim %s: %v", id, job.ClaimID, aerr)
		}
	}
}
