package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/errors"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/logger"
)

func testConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NopLogger{},
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeTransient, "flaky")
		}
		return nil
	}, testConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnTerminalError(t *testing.T) {
	attempts := 0
	terminal := errs.New(errs.ErrorTypeRemoteProtocol, "bad response")

	err := Do(func() error {
		attempts++
		return terminal
	}, testConfig(5))

	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, terminal)
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return errs.New(errs.ErrorTypeTransient, "always down")
	}, testConfig(3))

	assert.Equal(t, 3, attempts)
	assert.Error(t, err)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	got, err := DoWithResult(func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errs.New(errs.ErrorTypeTransient, "flaky")
		}
		return 42, nil
	}, testConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.True(t, DefaultRetryIf(errs.New(errs.ErrorTypeTransient, "x")))
	assert.False(t, DefaultRetryIf(errs.New(errs.ErrorTypeNotReady, "x")))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.True(t, DefaultRetryIf(errors.New("untyped")))
}

func TestUniformBackoffBounds(t *testing.T) {
	ub := &UniformBackoff{Min: 10 * time.Millisecond, Max: 50 * time.Millisecond}

	for attempt := 1; attempt <= 100; attempt++ {
		d := ub.NextDelay(attempt)
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 50*time.Millisecond)
	}

	assert.Equal(t, time.Duration(0), ub.NextDelay(0))
}

func TestUniformBackoffDegenerateRange(t *testing.T) {
	ub := &UniformBackoff{Min: 20 * time.Millisecond, Max: 20 * time.Millisecond}
	assert.Equal(t, 20*time.Millisecond, ub.NextDelay(1))
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitZeroDelay(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
}
