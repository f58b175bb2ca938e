// Package retry runs operations against rate-limited upstreams under a
// configurable policy: bounded attempts, a status predicate deciding which
// failures are transient, and a delay strategy. Execution is delegated to a
// failsafe retry policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// DefaultDelay is used when a retryable failure carries no retry-after hint.
const DefaultDelay = 15 * time.Second

// StatusCoder is implemented by errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// RetryAfterHinter is implemented by errors that carry a retry-after hint.
type RetryAfterHinter interface {
	RetryAfter() (time.Duration, bool)
}

// Policy describes how a failing operation is retried.
type Policy struct {
	MaxAttempts int
	Retryable   func(status int) bool
	Delay       func(err error) time.Duration
	OnRetry     func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy retries 429 and 503 up to three attempts, honouring retry-after.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Retryable:   OnStatus(http.StatusTooManyRequests, http.StatusServiceUnavailable),
		Delay:       RetryAfterOr(DefaultDelay),
	}
}

// OnStatus builds a predicate matching exactly the given statuses.
func OnStatus(statuses ...int) func(int) bool {
	return func(status int) bool {
		return slices.Contains(statuses, status)
	}
}

// RetryAfterOr prefers the error's retry-after hint and falls back to a fixed delay.
func RetryAfterOr(fallback time.Duration) func(error) time.Duration {
	return func(err error) time.Duration {
		var hinted RetryAfterHinter
		if errors.As(err, &hinted) {
			if d, ok := hinted.RetryAfter(); ok {
				return d
			}
		}
		return fallback
	}
}

// StatusOf extracts the HTTP status carried by err, if any.
func StatusOf(err error) (int, bool) {
	var coded StatusCoder
	if errors.As(err, &coded) {
		return coded.HTTPStatus(), true
	}
	return 0, false
}

// Operation is one attempt of the retried call.
type Operation[T any] func(ctx context.Context) (T, error)

// Do runs op until it succeeds, fails permanently, or runs out of attempts.
func Do[T any](ctx context.Context, p Policy, op Operation[T]) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = DefaultPolicy().Retryable
	}
	delay := p.Delay
	if delay == nil {
		delay = RetryAfterOr(DefaultDelay)
	}
	transient := func(err error) bool {
		status, ok := StatusOf(err)
		return ok && retryable(status)
	}

	builder := retrypolicy.NewBuilder[T]().
		HandleIf(func(_ T, err error) bool { return err != nil && transient(err) }).
		WithMaxAttempts(attempts).
		WithDelayFunc(func(exec failsafe.ExecutionAttempt[T]) time.Duration {
			return delay(exec.LastError())
		}).
		ReturnLastFailure()
	if p.OnRetry != nil {
		builder = builder.OnRetryScheduled(func(e failsafe.ExecutionScheduledEvent[T]) {
			p.OnRetry(e.Attempts(), e.LastError(), e.Delay)
		})
	}

	tries := 0
	val, err := failsafe.With[T](builder.Build()).
		WithContext(ctx).
		GetWithExecution(func(exec failsafe.Execution[T]) (T, error) {
			tries++
			return op(exec.Context())
		})
	if err == nil {
		return val, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, fmt.Errorf("context cancelled during retry: %w", ctxErr)
	}
	if !transient(err) {
		return zero, &PermanentError{Err: err}
	}
	return zero, &ExhaustedError{Attempts: tries, Err: err}
}

// PermanentError wraps a failure that is not worth retrying.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// ExhaustedError wraps the last failure after every attempt was used.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }
