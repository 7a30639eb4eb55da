package persistence

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffPolicy computes the delay between retry attempts. Delays grow
// exponentially from BaseDelay by Multiplier, are capped at MaxDelay, and get
// a random +/- JitterFraction spread so colliding transactions de-synchronize.
// MaxAttempts is the total number of attempts including the first.
type BackoffPolicy struct {
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
	MaxAttempts    int
}

// DefaultBackoffPolicy returns the policy used when none is configured.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		BaseDelay:      50 * time.Millisecond,
		MaxDelay:       time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
		MaxAttempts:    3,
	}
}

// Delay returns the wait before the given retry. attempt is zero-based: the
// delay after the first failed attempt is Delay(0).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	base := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))
	if max := float64(p.MaxDelay); base > max {
		base = max
	}

	if p.JitterFraction > 0 {
		// Spread uniformly across [base*(1-j), base*(1+j)]
		spread := base * p.JitterFraction
		base = base - spread + rand.Float64()*2*spread
	}

	if base < 0 {
		base = 0
	}
	return time.Duration(base)
}

// ExecuteWithRetry runs fn up to policy.MaxAttempts times, sleeping the
// policy's backoff between attempts. Only errors accepted by isRetryable
// trigger another attempt; anything else returns as-is. When every attempt
// fails retryably the final error is wrapped in *RetryExhaustedError. The
// context bounds the whole loop including the backoff sleeps.
func ExecuteWithRetry(ctx context.Context, policy BackoffPolicy, isRetryable func(error) bool, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(policy.Delay(attempt - 1)):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}

	return &RetryExhaustedError{Attempts: attempts, Err: lastErr}
}
