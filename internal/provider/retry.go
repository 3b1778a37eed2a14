package provider

import (
	"context"
	"errors"
	"time"

	"github.com/mpetrov/draftgate/internal/model"
)

const backoffBase = 500 * time.Millisecond

// sleepFunc is the sleep function used between retries (injectable for tests)
var sleepFunc = sleepCtx

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// transientError marks a collaborator failure as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so withRetry treats it as retryable. Rate limits,
// timeouts, 5xx responses, and empty generations are transient; a
// malformed request is not.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// withRetry runs fn with exponential backoff. Retryable failures are
// re-attempted up to attempts times; exhaustion surfaces a
// ProviderError. Context cancellation stops the schedule immediately.
func withRetry(ctx context.Context, provider, op string, attempts int, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := backoffBase

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransient(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		if err := sleepFunc(ctx, delay); err != nil {
			return err
		}
		delay *= 2
	}

	return &model.ProviderError{Provider: provider, Op: op, Attempts: attempts, Err: errors.Unwrap(lastErr)}
}
