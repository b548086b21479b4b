package runner

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a failing inspection is repeated within one
// cycle. Delays double from BaseBackoff and are capped at MaxBackoff.
type RetryPolicy struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// JitterFn, if set, is added to each delay before capping.
	JitterFn func(time.Duration) time.Duration
}

// Retry calls fn until it succeeds, the retries are used up, or ctx is done.
// fn receives the attempt number, starting at 1. Any error is retryable; the
// last one is returned.
func Retry(ctx context.Context, policy RetryPolicy, fn func(attempt int) error) error {
	backoff := policy.BaseBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		if attempt > policy.MaxRetries {
			return err
		}

		delay := backoff
		if policy.JitterFn != nil {
			delay += policy.JitterFn(backoff)
		}
		if policy.MaxBackoff > 0 && delay > policy.MaxBackoff {
			delay = policy.MaxBackoff
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
			backoff *= 2
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
