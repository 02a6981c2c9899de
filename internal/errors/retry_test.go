package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(maxAttempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  maxAttempts,
		BaseDelay:    time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		JitterFactor: 0,
	}
}

func TestRetryWithResultSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result, err := RetryWithResult(context.Background(), fastRetryConfig(5), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(errors.New("rate limited"), "")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestRetryWithResultStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := RetryWithResult(context.Background(), fastRetryConfig(5), func(ctx context.Context) (string, error) {
		calls++
		return "", NewPermanentError(errors.New("bad key"), "Authentication failed.")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, errors.Is(err, ErrRetriesExhausted))
}

func TestRetryWithResultExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := RetryWithResult(context.Background(), fastRetryConfig(2), func(ctx context.Context) (string, error) {
		calls++
		return "", NewTransientError(errors.New("always 429"), "")
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetriesExhausted))
	// One initial attempt plus MaxAttempts retries.
	assert.Equal(t, 3, calls)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastRetryConfig(5), func(ctx context.Context) error {
		return NewTransientError(errors.New("transient"), "")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffDelayGrowsAndCaps(t *testing.T) {
	config := RetryConfig{BaseDelay: time.Second, MaxDelay: 3 * time.Second, JitterFactor: 0}

	assert.Equal(t, time.Second, backoffDelay(0, config))
	assert.Equal(t, 2*time.Second, backoffDelay(1, config))
	assert.Equal(t, 3*time.Second, backoffDelay(2, config))
	assert.Equal(t, 3*time.Second, backoffDelay(5, config))
}

func TestBackoffDelayJitterStaysInRange(t *testing.T) {
	config := RetryConfig{BaseDelay: time.Second, MaxDelay: 30 * time.Second, JitterFactor: 0.25}

	for i := 0; i < 50; i++ {
		d := backoffDelay(0, config)
		assert.GreaterOrEqual(t, d, 750*time.Millisecond)
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
	}
}
