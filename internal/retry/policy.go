// Package retry provides a reusable retry policy shared by the oracle
// adapter and the job queue, instead of ad hoc backoff loops.
package retry

import "time"

// Policy describes how many times an operation may be attempted and how
// long to wait between attempts.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int

	// BaseDelay is the wait after the first failure; each subsequent wait
	// doubles
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth when positive
	MaxDelay time.Duration

	// Retryable decides whether an error is worth retrying. Nil means all
	// errors are retryable.
	Retryable func(error) bool
}

// Backoff returns the wait before the given retry. attempt is 1-based: the
// wait after the first failure is Backoff(1) == BaseDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// ShouldRetry reports whether another attempt is allowed after the given
// 1-based attempt failed with err.
func (p Policy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	if p.Retryable != nil && !p.Retryable(err) {
		return false
	}
	return true
}
