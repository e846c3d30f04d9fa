package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPoll_StopsAtTerminalState(t *testing.T) {
	statuses := []string{"IN_PROGRESS", "IN_PROGRESS", "FINISHED", "FINISHED"}
	calls := 0

	got, err := Poll(context.Background(), PollPolicy{MaxAttempts: 10},
		func(ctx context.Context) (string, error) {
			s := statuses[calls]
			calls++
			return s, nil
		},
		func(s string) bool { return s == "FINISHED" },
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "FINISHED" {
		t.Errorf("expected FINISHED, got %s", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestPoll_ExhaustsAttemptCap(t *testing.T) {
	calls := 0
	got, err := Poll(context.Background(), PollPolicy{MaxAttempts: 4, Interval: time.Millisecond},
		func(ctx context.Context) (string, error) {
			calls++
			return "IN_PROGRESS", nil
		},
		func(s string) bool { return s == "FINISHED" },
	)
	if !errors.Is(err, ErrPollExhausted) {
		t.Fatalf("expected ErrPollExhausted, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected exactly 4 calls, got %d", calls)
	}
	if got != "IN_PROGRESS" {
		t.Errorf("expected last value to be returned, got %q", got)
	}
}

func TestPoll_FetchErrorStopsImmediately(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := Poll(context.Background(), PollPolicy{MaxAttempts: 5},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, boom
		},
		func(int) bool { return false },
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestPoll_FixedInterval(t *testing.T) {
	interval := 20 * time.Millisecond
	start := time.Now()
	_, _ = Poll(context.Background(), PollPolicy{MaxAttempts: 3, Interval: interval},
		func(ctx context.Context) (int, error) { return 0, nil },
		func(int) bool { return false },
	)
	elapsed := time.Since(start)

	// two waits between three attempts, no growth
	if elapsed < 2*interval {
		t.Errorf("expected at least %v, got %v", 2*interval, elapsed)
	}
	if elapsed > 2*interval+500*time.Millisecond {
		t.Errorf("expected roughly %v, got %v", 2*interval, elapsed)
	}
}

func TestPoll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Poll(ctx, PollPolicy{MaxAttempts: 5, Interval: time.Hour},
		func(ctx context.Context) (int, error) {
			calls++
			cancel()
			return 0, nil
		},
		func(int) bool { return false },
	)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
