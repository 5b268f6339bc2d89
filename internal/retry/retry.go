// Package retry provides bounded retries with linearly increasing backoff for
// storage and network calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy configures retry behaviour. The delay before attempt n+1 is n × BaseDelay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy returns the retry defaults used for store and generator calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
	}
}

// Retryable is implemented by errors that may succeed when the call is repeated.
type Retryable interface {
	Retryable() bool
}

// IsRetryable reports whether err, or any error it wraps, declares itself retryable.
func IsRetryable(err error) bool {
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Operation string
	Attempts  int
	Cause     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Operation, e.Attempts, e.Cause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}

// sleepFn is replaced in tests.
var sleepFn = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, or the policy's
// attempts are used up.
func Do(ctx context.Context, p Policy, operation string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if err := sleepFn(ctx, time.Duration(attempt)*p.BaseDelay); err != nil {
			return fmt.Errorf("%s interrupted while backing off: %w", operation, err)
		}
	}

	return &ExhaustedError{Operation: operation, Attempts: attempts, Cause: lastErr}
}

// Value is Do for calls that return a result.
func Value[T any](ctx context.Context, p Policy, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Do(ctx, p, operation, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
