// Package retry defines retry policies and backoff strategies.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Policy defines a retry strategy.
type Policy struct {
	MaxRetries      int           `json:"max_retries"`
	InitialDelay    time.Duration `json:"initial_delay"`
	MaxDelay        time.Duration `json:"max_delay"`
	BackoffStrategy BackoffType   `json:"backoff_strategy"`
	JitterFactor    float64       `json:"jitter_factor"` // 0.0-1.0
}

// BackoffType identifies the backoff strategy.
type BackoffType string

const (
	BackoffFixed       BackoffType = "fixed"       // Same delay each time
	BackoffLinear      BackoffType = "linear"      // Delay increases linearly
	BackoffExponential BackoffType = "exponential" // Delay doubles each time
)

// DefaultPolicy returns a sensible default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:      3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		BackoffStrategy: BackoffExponential,
		JitterFactor:    0.25,
	}
}

// NoRetryPolicy returns a policy that never retries.
func NoRetryPolicy() Policy {
	return Policy{
		MaxRetries:   0,
		InitialDelay: 0,
		MaxDelay:     0,
	}
}

// CalculateDelay calculates the delay for a given attempt.
func (p *Policy) CalculateDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	var delay time.Duration

	switch p.BackoffStrategy {
	case BackoffFixed:
		delay = p.InitialDelay
	case BackoffLinear:
		delay = p.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		delay = p.InitialDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	default:
		delay = p.InitialDelay
	}

	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.JitterFactor > 0 {
		jitter := float64(delay) * p.JitterFactor * (rand.Float64()*2 - 1) // -jitter to +jitter
		delay = time.Duration(float64(delay) + jitter)
		if delay < 0 {
			delay = 0
		}
	}

	return delay
}

// Executor provides retry execution functionality.
type Executor struct {
	policy    Policy
	retryable func(error) bool
}

// NewExecutor creates a new retry executor with the given policy. The
// retryable predicate decides whether an error is worth another attempt;
// nil means every error is retryable.
func NewExecutor(policy Policy, retryable func(error) bool) *Executor {
	return &Executor{policy: policy, retryable: retryable}
}

// RetryableFunc is a function that can be retried.
type RetryableFunc func(ctx context.Context, attempt int) error

// Execute runs the function with retries according to the policy.
func (e *Executor) Execute(ctx context.Context, fn RetryableFunc) error {
	var lastErr error

	for attempt := 0; attempt <= e.policy.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt >= e.policy.MaxRetries {
			break
		}
		if e.retryable != nil && !e.retryable(err) {
			break
		}

		delay := e.policy.CalculateDelay(attempt + 1)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return lastErr
}

// ExecuteWithResult runs the function with retries and returns a result.
func ExecuteWithResult[T any](ctx context.Context, policy Policy, retryable func(error) bool, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error
	var result T

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		r, err := fn(ctx, attempt)
		if err == nil {
			return r, nil
		}

		result = r
		lastErr = err

		if attempt >= policy.MaxRetries {
			break
		}
		if retryable != nil && !retryable(err) {
			break
		}

		delay := policy.CalculateDelay(attempt + 1)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return result, lastErr
}
