package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	runner := NewRunner(3, NoDelay())
	calls := 0
	err := runner.Do(context.Background(), "flaky", func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("boom %d", calls)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoReturnsLastErrorVerbatim(t *testing.T) {
	sentinel := errors.New("final failure")
	runner := NewRunner(3, NoDelay())
	calls := 0
	err := runner.Do(context.Background(), "always-fails", func() error {
		calls++
		if calls == 3 {
			return sentinel
		}
		return fmt.Errorf("earlier failure %d", calls)
	})
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if err != sentinel {
		t.Fatalf("err = %v, want the third attempt's error unchanged", err)
	}
}

func TestDoPreservesErrorIdentity(t *testing.T) {
	runner := NewRunner(2, NoDelay())
	wrapped := fmt.Errorf("%w: index unreachable", apperr.ErrRemoteCall)
	err := runner.Do(context.Background(), "upsert", func() error {
		return wrapped
	})
	if !errors.Is(err, apperr.ErrRemoteCall) {
		t.Fatalf("error identity lost: %v", err)
	}
}

func TestDoZeroAttempts(t *testing.T) {
	runner := NewRunner(0, NoDelay())
	calls := 0
	err := runner.Do(context.Background(), "never", func() error {
		calls++
		return nil
	})
	if !errors.Is(err, apperr.ErrNoAttempts) {
		t.Fatalf("err = %v, want ErrNoAttempts", err)
	}
	if calls != 0 {
		t.Fatalf("operation ran %d times with zero attempts", calls)
	}
}

func TestDoStopsOnFirstSuccess(t *testing.T) {
	runner := NewRunner(5, NoDelay())
	calls := 0
	if err := runner.Do(context.Background(), "once", func() error {
		calls++
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestExponentialDelay(t *testing.T) {
	policy := ExponentialDelay(100*time.Millisecond, time.Second)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		if got := policy.Delay(tt.attempt); got != tt.want {
			t.Fatalf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestFixedDelay(t *testing.T) {
	policy := FixedDelay(50 * time.Millisecond)
	for _, attempt := range []int{1, 2, 7} {
		if got := policy.Delay(attempt); got != 50*time.Millisecond {
			t.Fatalf("Delay(%d) = %v", attempt, got)
		}
	}
}
