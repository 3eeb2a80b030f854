// Package retry runs a call under an explicit retry policy.
package retry

import (
	"context"
	"time"
)

// maxShift keeps base << n from overflowing.
const maxShift = 30

// Policy describes how often and how long to wait between attempts.
type Policy struct {
	// Attempts is the total number of calls, including the first. Values below 1 mean 1.
	Attempts int
	// BaseDelay is the wait after the first failure; the n-th wait is BaseDelay × 2^n.
	BaseDelay time.Duration
	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration
	// Retryable decides whether an error is worth another attempt. Nil retries nothing.
	Retryable func(error) bool
	// Sleep waits between attempts. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Backoff returns the wait after the given zero-based failed attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	if attempt > maxShift {
		attempt = maxShift
	}

	delay := p.BaseDelay * time.Duration(1<<attempt)

	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}

	return delay
}

// Do calls fn until it succeeds, returns a non-retryable error, or the attempts run out.
// It returns the number of calls made and the last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var err error

	for attempt := 0; attempt < attempts; attempt++ {
		err = fn(ctx, attempt)
		if err == nil {
			return attempt + 1, nil
		}

		if attempt == attempts-1 || p.Retryable == nil || !p.Retryable(err) {
			return attempt + 1, err
		}

		delay := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}

		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return attempt + 1, err
		}
	}

	return attempts, err
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
