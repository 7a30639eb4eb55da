package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffPolicy_Delay(t *testing.T) {
	t.Run("grows exponentially without jitter", func(t *testing.T) {
		p := BackoffPolicy{
			BaseDelay:  50 * time.Millisecond,
			MaxDelay:   time.Second,
			Multiplier: 2.0,
		}

		assert.Equal(t, 50*time.Millisecond, p.Delay(0))
		assert.Equal(t, 100*time.Millisecond, p.Delay(1))
		assert.Equal(t, 200*time.Millisecond, p.Delay(2))
		assert.Equal(t, 400*time.Millisecond, p.Delay(3))
	})

	t.Run("caps at max delay", func(t *testing.T) {
		p := BackoffPolicy{
			BaseDelay:  50 * time.Millisecond,
			MaxDelay:   200 * time.Millisecond,
			Multiplier: 2.0,
		}

		assert.Equal(t, 200*time.Millisecond, p.Delay(5))
		assert.Equal(t, 200*time.Millisecond, p.Delay(50))
	})

	t.Run("jitter stays within the configured spread", func(t *testing.T) {
		p := BackoffPolicy{
			BaseDelay:      100 * time.Millisecond,
			MaxDelay:       time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.25,
		}

		for i := 0; i < 100; i++ {
			d := p.Delay(0)
			assert.GreaterOrEqual(t, d, 75*time.Millisecond)
			assert.LessOrEqual(t, d, 125*time.Millisecond)
		}
	})

	t.Run("negative attempt treated as zero", func(t *testing.T) {
		p := BackoffPolicy{
			BaseDelay:  50 * time.Millisecond,
			MaxDelay:   time.Second,
			Multiplier: 2.0,
		}

		assert.Equal(t, p.Delay(0), p.Delay(-3))
	})
}

func TestDefaultBackoffPolicy(t *testing.T) {
	p := DefaultBackoffPolicy()

	assert.Equal(t, 50*time.Millisecond, p.BaseDelay)
	assert.Equal(t, time.Second, p.MaxDelay)
	assert.Equal(t, 2.0, p.Multiplier)
	assert.Equal(t, 0.25, p.JitterFraction)
	assert.Equal(t, 3, p.MaxAttempts)
}

func fastRetryPolicy(attempts int) BackoffPolicy {
	return BackoffPolicy{
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		Multiplier:  1.0,
		MaxAttempts: attempts,
	}
}

func TestExecuteWithRetry(t *testing.T) {
	retryable := errors.New("transient")
	isRetryable := func(err error) bool { return errors.Is(err, retryable) }

	t.Run("returns on first success", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), fastRetryPolicy(3), isRetryable, func(ctx context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), fastRetryPolicy(3), isRetryable, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return retryable
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-retryable error returns immediately", func(t *testing.T) {
		fatal := errors.New("constraint violated")
		calls := 0
		err := ExecuteWithRetry(context.Background(), fastRetryPolicy(3), isRetryable, func(ctx context.Context) error {
			calls++
			return fatal
		})
		require.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, calls)
	})

	t.Run("wraps the final error after exhaustion", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), fastRetryPolicy(3), isRetryable, func(ctx context.Context) error {
			calls++
			return retryable
		})

		var exhausted *RetryExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 3, exhausted.Attempts)
		assert.ErrorIs(t, err, retryable)
		assert.Equal(t, 3, calls)
	})

	t.Run("zero max attempts still runs once", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), BackoffPolicy{}, isRetryable, func(ctx context.Context) error {
			calls++
			return retryable
		})

		var exhausted *RetryExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 1, exhausted.Attempts)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops the backoff wait", func(t *testing.T) {
		policy := BackoffPolicy{
			BaseDelay:   time.Second,
			MaxDelay:    time.Second,
			Multiplier:  1.0,
			MaxAttempts: 3,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		calls := 0
		err := ExecuteWithRetry(ctx, policy, isRetryable, func(ctx context.Context) error {
			calls++
			return retryable
		})
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, calls)
	})
}
