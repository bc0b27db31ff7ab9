package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svtalent/candidate-intake/internal/common"
)

func instantRetrier(cfg RetryConfig) (*Retrier, *[]time.Duration) {
	r := NewRetrier(cfg, quietLogger())
	var sleeps []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return r, &sleeps
}

func TestRetrierDelayProgression(t *testing.T) {
	r := NewRetrier(RetryConfig{InitialDelay: 2 * time.Second, Multiplier: 2, MaxDelay: 5 * time.Minute}, quietLogger())
	assert.Equal(t, 2*time.Second, r.Delay(1))
	assert.Equal(t, 4*time.Second, r.Delay(2))
	assert.Equal(t, 8*time.Second, r.Delay(3))
	assert.Equal(t, 2*time.Second, r.Delay(0))
}

func TestRetrierDelayCap(t *testing.T) {
	r := NewRetrier(RetryConfig{InitialDelay: 2 * time.Second, Multiplier: 2, MaxDelay: 5 * time.Second}, quietLogger())
	assert.Equal(t, 2*time.Second, r.Delay(1))
	assert.Equal(t, 4*time.Second, r.Delay(2))
	assert.Equal(t, 5*time.Second, r.Delay(3))
	assert.Equal(t, 5*time.Second, r.Delay(10))
}

func TestRetrierDoFirstTrySuccess(t *testing.T) {
	r, sleeps := instantRetrier(RetryConfig{MaxAttempts: 3})
	calls := 0
	err := r.Do(context.Background(), "sink.test", func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *sleeps)
}

func TestRetrierDoRetriesUnreachable(t *testing.T) {
	r, sleeps := instantRetrier(RetryConfig{MaxAttempts: 5, InitialDelay: 10 * time.Millisecond, Multiplier: 2})
	calls := 0
	err := r.Do(context.Background(), "sink.test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return common.NewAppError(common.CodeSinkUnreachable, "down", nil)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *sleeps)
}

func TestRetrierDoTerminalErrorReturnsImmediately(t *testing.T) {
	r, sleeps := instantRetrier(RetryConfig{MaxAttempts: 5})
	calls := 0
	rejection := common.NewAppError(common.CodeSinkRejected, "bad payload", nil)
	err := r.Do(context.Background(), "sink.test", func(ctx context.Context) error {
		calls++
		return rejection
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *sleeps)
	assert.True(t, common.IsCode(err, common.CodeSinkRejected))
}

func TestRetrierDoExhaustionKeepsCode(t *testing.T) {
	r, sleeps := instantRetrier(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})
	calls := 0
	err := r.Do(context.Background(), "sink.portal", func(ctx context.Context) error {
		calls++
		return common.NewAppError(common.CodeSinkUnreachable, "refused", nil)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, *sleeps, 2)
	assert.Contains(t, err.Error(), "attempts exhausted")
	// The wrapped taxonomy code survives so the caller can decide commit vs retry-later.
	assert.True(t, common.IsCode(err, common.CodeSinkUnreachable))
}

func TestRetrierDoStopsOnCanceledContext(t *testing.T) {
	r := NewRetrier(RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond}, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := r.Do(ctx, "sink.test", func(ctx context.Context) error {
		calls++
		return common.NewAppError(common.CodeSinkUnreachable, "down", nil)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}
