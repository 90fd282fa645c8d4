package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"claimcheck/internal/model"
	"claimcheck/internal/retry"
)

// RedisQueue is a Redis-backed reliable queue: jobs move from the pending
// list to a processing list on delivery, back to pending via a delayed zset
// on Nack, and to a dead-letter list when attempts are exhausted.
type RedisQueue struct {
	client *redis.Client
	name   string
	policy retry.Policy
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRedisQueue connects to Redis and starts the delayed-job reaper
func NewRedisQueue(cfg model.QueueConfig) (*RedisQueue, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "verification-queue"
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &RedisQueue{
		client: client,
		name:   name,
		policy: PolicyFromConfig(cfg),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go q.reapDelayed(ctx)
	return q, nil
}

func (q *RedisQueue) pendingKey() string    { return q.name + ":pending" }
func (q *RedisQueue) processingKey() string { return q.name + ":processing" }
func (q *RedisQueue) delayedKey() string    { return q.name + ":delayed" }
func (q *RedisQueue) deadKey() string       { return q.name + ":dead" }

// Enqueue adds a job to the pending list
func (q *RedisQueue) Enqueue(ctx context.Context, job model.VerificationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.pendingKey(), payload).Err(); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks until a job is available, moving it atomically onto the
// processing list so a crashed worker never loses it silently
func (q *RedisQueue) Dequeue(ctx context.Context) (Delivery, error) {
	for {
		payload, err := q.client.BRPopLPush(ctx, q.pendingKey(), q.processingKey(), 5*time.Second).Result()
		if err == redis.Nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("dequeue: %w", err)
		}

		var job model.VerificationJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			// Poison payload: drop it from processing and keep consuming
			log.Printf("queue: dropping malformed job payload: %v", err)
			q.client.LRem(ctx, q.processingKey(), 1, payload)
			continue
		}

		return &redisDelivery{queue: q, job: job, payload: payload}, nil
	}
}

// Close stops the reaper and disconnects
func (q *RedisQueue) Close() error {
	q.cancel()
	<-q.done
	return q.client.Close()
}

// reapDelayed periodically moves due delayed jobs back to pending
func (q *RedisQueue) reapDelayed(ctx context.Context) {
	defer close(q.done)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := strconv.FormatInt(time.Now().UnixMilli(), 10)
			due, err := q.client.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
				Min: "-inf", Max: now, Count: 100,
			}).Result()
			if err != nil || len(due) == 0 {
				continue
			}
			for _, payload := range due {
				pipe := q.client.TxPipeline()
				pipe.ZRem(ctx, q.delayedKey(), payload)
				pipe.LPush(ctx, q.pendingKey(), payload)
				if _, err := pipe.Exec(ctx); err != nil {
					log.Printf("queue: requeue delayed job: %v", err)
				}
			}
		}
	}
}

type redisDelivery struct {
	queue   *RedisQueue
	job     model.VerificationJob
	payload string
}

func (d *redisDelivery) Job() model.VerificationJob {
	return d.job
}

// Ack removes the job from the processing list
func (d *redisDelivery) Ack(ctx context.Context) error {
	return d.queue.client.LRem(ctx, d.queue.processingKey(), 1, d.payload).Err()
}

// Nack reschedules the job with exponential backoff, or dead-letters it
// when attempts are exhausted
func (d *redisDelivery) Nack(ctx context.Context) error {
	if err := d.queue.client.LRem(ctx, d.queue.processingKey(), 1, d.payload).Err(); err != nil {
		return fmt.Errorf("remove from processing: %w", err)
	}

	attempt := d.job.Attempt + 1
	if attempt >= d.queue.policy.MaxAttempts {
		log.Printf("queue: job for claim %s exhausted %d attempts, dead-lettering",
			d.job.ClaimID, attempt)
		return d.queue.client.LPush(ctx, d.queue.deadKey(), d.payload).Err()
	}

	next := model.VerificationJob{ClaimID: d.job.ClaimID, Attempt: attempt}
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	retryAt := time.Now().Add(d.queue.policy.Backoff(attempt)).UnixMilli()
	return d.queue.client.ZAdd(ctx, d.queue.delayedKey(), redis.Z{
		Score:  float64(retryAt),
		Member: string(payload),
	}).Err()
}
