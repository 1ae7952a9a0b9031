package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff_Success(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return nil
	}, 3, 10*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_EventualSuccess(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, 5, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expectedErr := errors.New("persistent error")
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return expectedErr
	}, 3, time.Millisecond)

	require.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_Permanent(t *testing.T) {
	attempts := 0
	bad := errors.New("bad request")
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return Permanent(bad)
	}, 5, time.Millisecond)

	require.Equal(t, bad, err)
	assert.Equal(t, 1, attempts)
	assert.Nil(t, Permanent(nil))
}

func TestRetryWithBackoff_ContextErrorsNotRetried(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return context.DeadlineExceeded
	}, 5, time.Millisecond)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := RetryWithBackoff(ctx, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("temporary error")
	}, 5, time.Millisecond)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoff_InvalidMaxAttempts(t *testing.T) {
	err := RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
	require.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestRetryWithBackoff_DelayGrows(t *testing.T) {
	var stamps []time.Time
	_ = RetryWithBackoff(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		return errors.New("again")
	}, 3, 20*time.Millisecond)

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}
