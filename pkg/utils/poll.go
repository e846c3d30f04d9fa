package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrPollExhausted = errors.New("poll attempts exhausted")

// PollPolicy polls an eventually consistent resource a fixed number of times
// with a fixed pause between attempts.
type PollPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// Poll calls fetch until terminal reports true for its result, fetch fails, or
// MaxAttempts calls have been made. The last fetched value is returned along
// with ErrPollExhausted when no terminal state was reached.
func Poll[T any](ctx context.Context, p PollPolicy, fetch func(ctx context.Context) (T, error), terminal func(T) bool) (T, error) {
	var last T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := wait(ctx, p.Interval); err != nil {
				return last, err
			}
		}

		v, err := fetch(ctx)
		if err != nil {
			return v, err
		}
		last = v
		if terminal(v) {
			return v, nil
		}
	}

	return last, fmt.Errorf("%w after %d attempts", ErrPollExhausted, attempts)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
