package poll

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUntil_ConvergesWithinBudget(t *testing.T) {
	calls := 0
	err := Until(context.Background(), time.Millisecond, 10, func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	if err != nil {
		t.Fatalf("expected convergence, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestUntil_ExhaustsBudget(t *testing.T) {
	calls := 0
	err := Until(context.Background(), time.Millisecond, 5, func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if calls != 5 {
		t.Errorf("expected 5 attempts, got %d", calls)
	}
}

func TestUntil_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := Until(context.Background(), time.Millisecond, 5, func(ctx context.Context) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
}

func TestUntil_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Until(ctx, time.Minute, 2, func(ctx context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
