package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/errors"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/logger"
)

// Operation is a function that might need retrying.
type Operation func() error

// OperationWithResult returns a result and might need retrying.
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration.
type Config struct {
	// MaxAttempts is the maximum number of attempts.
	MaxAttempts int
	// Backoff strategy to use between attempts.
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried.
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
	// Context for cancellation.
	Context context.Context
	// Logger for retry attempts.
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

// DefaultRetryIf retries typed transient errors and leaves terminal
// classifications (not-ready, protocol, storage) alone.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	var typed *errs.Error
	if errors.As(err, &typed) {
		return errs.IsRetryable(typed.Type)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return true
}

// Do executes an operation with retry logic.
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error
	attempt := 0

	for {
		attempt++

		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt - 1,
					"last_error": lastErr.Error(),
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		err := op()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		lastErr = err

		if !cfg.RetryIf(err) {
			return err
		}

		delay := cfg.Backoff.NextDelay(attempt)

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic.
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)

	return result, err
}
