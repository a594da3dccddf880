package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCalculateDelay(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{
			name:    "zero attempt yields no delay",
			policy:  Policy{InitialDelay: time.Second, MaxDelay: time.Minute, BackoffStrategy: BackoffFixed},
			attempt: 0,
			want:    0,
		},
		{
			name:    "fixed backoff",
			policy:  Policy{InitialDelay: time.Second, MaxDelay: time.Minute, BackoffStrategy: BackoffFixed},
			attempt: 3,
			want:    time.Second,
		},
		{
			name:    "linear backoff",
			policy:  Policy{InitialDelay: time.Second, MaxDelay: time.Minute, BackoffStrategy: BackoffLinear},
			attempt: 3,
			want:    3 * time.Second,
		},
		{
			name:    "exponential backoff",
			policy:  Policy{InitialDelay: time.Second, MaxDelay: time.Minute, BackoffStrategy: BackoffExponential},
			attempt: 3,
			want:    4 * time.Second,
		},
		{
			name:    "max delay cap",
			policy:  Policy{InitialDelay: time.Second, MaxDelay: 2 * time.Second, BackoffStrategy: BackoffExponential},
			attempt: 5,
			want:    2 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.CalculateDelay(tt.attempt)
			if got != tt.want {
				t.Fatalf("CalculateDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestExecutorRetriesUntilSuccess(t *testing.T) {
	policy := Policy{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffStrategy: BackoffFixed}
	executor := NewExecutor(policy, nil)

	calls := 0
	err := executor.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute returned %v, want nil", err)
	}
	if calls != 3 {
		t.Fatalf("function called %d times, want 3", calls)
	}
}

func TestExecutorStopsOnNonRetryable(t *testing.T) {
	policy := Policy{MaxRetries: 5, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffStrategy: BackoffFixed}
	permanent := errors.New("permanent")
	executor := NewExecutor(policy, func(err error) bool {
		return !errors.Is(err, permanent)
	})

	calls := 0
	err := executor.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("Execute returned %v, want permanent error", err)
	}
	if calls != 1 {
		t.Fatalf("function called %d times, want 1", calls)
	}
}

func TestExecutorHonorsContextCancellation(t *testing.T) {
	policy := Policy{MaxRetries: 10, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second, BackoffStrategy: BackoffFixed}
	executor := NewExecutor(policy, nil)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := executor.Execute(ctx, func(ctx context.Context, attempt int) error {
		calls++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute returned %v, want context.Canceled", err)
	}
}

func TestExecuteWithResult(t *testing.T) {
	policy := Policy{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffStrategy: BackoffFixed}

	calls := 0
	got, err := ExecuteWithResult(context.Background(), policy, nil, func(ctx context.Context, attempt int) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient")
		}
		return "done", nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult returned %v, want nil", err)
	}
	if got != "done" {
		t.Fatalf("ExecuteWithResult = %q, want %q", got, "done")
	}
}
