// Package retry provides bounded retry with exponential backoff for
// rate-limited external calls.
package retry

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"
)

// ErrRetryLimit is returned when the retry loop ends without producing
// either a result or an error. It should never surface in practice.
var ErrRetryLimit = errors.New("retry limit reached")

// Policy defines the retry behavior for a failed operation.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialDelay is the backoff before the second attempt.
	InitialDelay time.Duration
	// Multiplier is applied to the delay after each failed attempt.
	Multiplier float64
}

// DefaultPolicy returns the policy used for assistant-service calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 800 * time.Millisecond,
		Multiplier:   2.0,
	}
}

// statusError is implemented by errors that carry an HTTP status code.
// An interface is used so this package does not depend on the clients
// whose errors it classifies.
type statusError interface {
	error
	HTTPStatus() int
}

var rateLimitPattern = regexp.MustCompile(`(?i)rate limit|too many requests`)

// IsRateLimited reports whether err represents a rate-limited call:
// an HTTP 429 status or a message matching the provider's wording.
// Only rate-limited failures are worth retrying; everything else fails
// for a reason a retry will not fix.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var se statusError
	if errors.As(err, &se) && se.HTTPStatus() == http.StatusTooManyRequests {
		return true
	}
	return rateLimitPattern.MatchString(err.Error())
}

// Value executes op up to p.MaxAttempts times, backing off between
// attempts, and returns its result. Non-rate-limited failures abort
// immediately; exhausted retries return the last failure.
func Value[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := p.InitialDelay
	if delay <= 0 {
		delay = 800 * time.Millisecond
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2.0
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		v, err := op()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !IsRateLimited(err) {
			return zero, err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * mult)
	}

	if lastErr == nil {
		lastErr = ErrRetryLimit
	}
	return zero, lastErr
}

// Do executes an operation without a result value.
func Do(ctx context.Context, p Policy, op func() error) error {
	_, err := Value(ctx, p, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
