package runner

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFlaky = errors.New("flaky")

func TestRetry_FirstAttemptSucceeds(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{MaxRetries: 3}, func(int) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("err = %v, calls = %d; want nil, 1", err, calls)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	var attempts []int
	err := Retry(context.Background(), RetryPolicy{MaxRetries: 2}, func(attempt int) error {
		attempts = append(attempts, attempt)
		return errFlaky
	})
	if !errors.Is(err, errFlaky) {
		t.Errorf("err = %v, want errFlaky", err)
	}
	if len(attempts) != 3 || attempts[2] != 3 {
		t.Errorf("attempts = %v, want [1 2 3]", attempts)
	}
}

func TestRetry_BackoffCapped(t *testing.T) {
	var delays []time.Duration
	policy := RetryPolicy{
		MaxRetries:  4,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  3 * time.Millisecond,
		JitterFn: func(d time.Duration) time.Duration {
			delays = append(delays, d)
			return 0
		},
	}

	start := time.Now()
	_ = Retry(context.Background(), policy, func(int) error { return errFlaky })

	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond, 8 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
	// 1 + 2 + 3 + 3 ms once capped.
	if elapsed := time.Since(start); elapsed < 9*time.Millisecond {
		t.Errorf("elapsed = %v, want at least 9ms", elapsed)
	}
}

func TestRetry_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, RetryPolicy{MaxRetries: 5, BaseBackoff: time.Hour}, func(int) error {
		calls++
		cancel()
		return errFlaky
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := Retry(ctx, RetryPolicy{}, func(int) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Errorf("err = %v, called = %v", err, called)
	}
}
